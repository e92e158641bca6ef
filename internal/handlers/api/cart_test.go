package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/handlers/api"
	"github.com/casafunko/api/internal/services/cart"
)

func cartMux(products ...cart.Product) (*http.ServeMux, *cart.Service) {
	catalog := &stubCatalog{products: make(map[uuid.UUID]cart.Product)}
	for _, p := range products {
		catalog.products[p.ID] = p
	}
	svc := cart.NewService(catalog, time.Hour, nil)
	mux := http.NewServeMux()
	api.NewCartHandler(svc, nil).RegisterRoutes(mux)
	return mux, svc
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestCartLifecycle(t *testing.T) {
	product := cart.Product{ID: uuid.New(), Name: "Funko Robin", UnitPrice: 8000, Stock: 3}
	mux, _ := cartMux(product)

	rr := doJSON(mux, http.MethodPost, "/api/v1/cart", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", rr.Code)
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}

	addBody := fmt.Sprintf(`{"product_id": %q}`, product.ID)
	var entry cart.Entry
	for i := 0; i < 2; i++ {
		rr = doJSON(mux, http.MethodPost, "/api/v1/cart/"+created.ID.String()+"/items", addBody)
		if rr.Code != http.StatusCreated {
			t.Fatalf("add status: got %d, want 201; body %s", rr.Code, rr.Body.String())
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &entry); err != nil {
			t.Fatalf("decoding entry: %v", err)
		}
	}

	rr = doJSON(mux, http.MethodGet, "/api/v1/cart/"+created.ID.String(), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status: got %d, want 200", rr.Code)
	}
	var summary cart.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary.Subtotal != 16000 {
		t.Errorf("subtotal: got %d, want 16000", summary.Subtotal)
	}
	if len(summary.Groups) != 1 || summary.Groups[0].Quantity != 2 {
		t.Errorf("groups: got %+v", summary.Groups)
	}

	// Removing one entry drops one unit; repeating the delete is a no-op.
	delPath := "/api/v1/cart/" + created.ID.String() + "/items/" + entry.ID.String()
	for i := 0; i < 2; i++ {
		if rr = doJSON(mux, http.MethodDelete, delPath, ""); rr.Code != http.StatusNoContent {
			t.Fatalf("remove status: got %d, want 204", rr.Code)
		}
	}
	rr = doJSON(mux, http.MethodGet, "/api/v1/cart/"+created.ID.String(), "")
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if summary.Subtotal != 8000 {
		t.Errorf("subtotal after remove: got %d, want 8000", summary.Subtotal)
	}

	if rr = doJSON(mux, http.MethodDelete, "/api/v1/cart/"+created.ID.String()+"/items", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status: got %d, want 204", rr.Code)
	}
	rr = doJSON(mux, http.MethodGet, "/api/v1/cart/"+created.ID.String(), "")
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if len(summary.Entries) != 0 {
		t.Errorf("entries after clear: got %d, want 0", len(summary.Entries))
	}
}

func TestCart_Errors(t *testing.T) {
	mux, _ := cartMux()

	if rr := doJSON(mux, http.MethodGet, "/api/v1/cart/not-a-uuid", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed id status: got %d, want 400", rr.Code)
	}
	if rr := doJSON(mux, http.MethodGet, "/api/v1/cart/"+uuid.NewString(), ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown cart status: got %d, want 404", rr.Code)
	}

	body := fmt.Sprintf(`{"product_id": %q}`, uuid.New())
	if rr := doJSON(mux, http.MethodPost, "/api/v1/cart/"+uuid.NewString()+"/items", body); rr.Code != http.StatusNotFound {
		t.Errorf("unknown cart add status: got %d, want 404", rr.Code)
	}
}

func TestCart_UnknownProduct(t *testing.T) {
	mux, svc := cartMux()
	cartID := svc.Create()

	body := fmt.Sprintf(`{"product_id": %q}`, uuid.New())
	rr := doJSON(mux, http.MethodPost, "/api/v1/cart/"+cartID.String()+"/items", body)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404; body %s", rr.Code, rr.Body.String())
	}

	if rr := doJSON(mux, http.MethodPost, "/api/v1/cart/"+cartID.String()+"/items", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing product id status: got %d, want 400", rr.Code)
	}
}
