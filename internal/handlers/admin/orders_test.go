package admin_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/handlers/admin"
	"github.com/casafunko/api/internal/services/order"
	"github.com/casafunko/api/internal/store"
)

func adminOrderMux(t *testing.T) (*http.ServeMux, *store.Orders) {
	t.Helper()
	orders := store.NewOrders(testDB.Pool)
	orderSvc := order.NewService(orders, "CASAFUNKO", nil)
	mux := http.NewServeMux()
	admin.NewOrderHandler(orderSvc, nil).RegisterRoutes(mux)
	return mux, orders
}

func seedOrder(t *testing.T, orders *store.Orders, reference string) order.Order {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	o := order.Order{
		ID:        uuid.New(),
		Reference: reference,
		Items: []order.Item{
			{ProductID: uuid.New(), Name: "Funko Batman", UnitPrice: 10000, Quantity: 2},
			{ProductID: order.ShippingProductID, Name: "Servientrega", UnitPrice: 15000, Quantity: 1},
		},
		TotalAmount:   35000,
		Status:        order.StatusPaid,
		Customer:      order.Customer{Name: "Laura Gomez", Email: "laura@example.com"},
		CourierID:     "servientrega",
		CourierName:   "Servientrega",
		ShippingPrice: 15000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := orders.Insert(context.Background(), o); err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	return o
}

func TestAdminOrders_List(t *testing.T) {
	testDB.Truncate(t)
	mux, orders := adminOrderMux(t)

	for i := 0; i < 3; i++ {
		seedOrder(t, orders, fmt.Sprintf("CASAFUNKO-admin-%d", i))
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/orders?limit=2", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp struct {
		Data       []order.Order `json:"data"`
		Page       int           `json:"page"`
		TotalPages int           `json:"total_pages"`
		Total      int64         `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 3 || resp.TotalPages != 2 || resp.Page != 1 {
		t.Errorf("pagination: got %+v", resp)
	}
	if len(resp.Data) != 2 {
		t.Errorf("page size: got %d, want 2", len(resp.Data))
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/api/orders?status=cancelled", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding filtered response: %v", err)
	}
	if resp.Total != 0 || len(resp.Data) != 0 {
		t.Errorf("status filter: got %+v", resp)
	}
}

func TestAdminOrders_UpdateStatus(t *testing.T) {
	testDB.Truncate(t)
	mux, orders := adminOrderMux(t)
	o := seedOrder(t, orders, "CASAFUNKO-"+uuid.NewString())

	patch := func(reference, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch,
			"/admin/api/orders/"+reference+path, strings.NewReader(body))
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	rr := patch(o.Reference, "/status", `{"status": "shipped"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	var updated order.Order
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if updated.Status != order.StatusShipped {
		t.Errorf("status: got %q, want shipped", updated.Status)
	}

	if rr := patch(o.Reference, "/status", `{"status": "archived"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid status: got %d, want 400", rr.Code)
	}
	if rr := patch("CASAFUNKO-missing", "/status", `{"status": "shipped"}`); rr.Code != http.StatusNotFound {
		t.Errorf("unknown order: got %d, want 404", rr.Code)
	}
}

func TestAdminOrders_UpdateTracking(t *testing.T) {
	testDB.Truncate(t)
	mux, orders := adminOrderMux(t)
	o := seedOrder(t, orders, "CASAFUNKO-"+uuid.NewString())

	body := `{"tracking_number": "TRK-42", "courier": "Coordinadora"}`
	req := httptest.NewRequest(http.MethodPatch,
		"/admin/api/orders/"+o.Reference+"/tracking", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204; body %s", rr.Code, rr.Body.String())
	}
	got, err := orders.GetByReference(context.Background(), o.Reference)
	if err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if got.TrackingNumber != "TRK-42" || got.CourierName != "Coordinadora" {
		t.Errorf("tracking: got %+v", got)
	}

	req = httptest.NewRequest(http.MethodPatch,
		"/admin/api/orders/"+o.Reference+"/tracking", strings.NewReader(`{}`))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing tracking number: got %d, want 400", rr.Code)
	}
}
