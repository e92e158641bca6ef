package admin_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casafunko/api/internal/auth"
	"github.com/casafunko/api/internal/handlers/admin"
	"github.com/casafunko/api/internal/store"
)

func loginMux(t *testing.T, jwtMgr *auth.JWTManager) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	admin.NewAuthHandler(store.NewAdmins(testDB.Pool), jwtMgr, nil).RegisterRoutes(mux)
	return mux
}

func postLogin(mux *http.ServeMux, email, password string) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"email": %q, "password": %q}`, email, password)
	req := httptest.NewRequest(http.MethodPost, "/admin/api/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestLogin(t *testing.T) {
	testDB.Truncate(t)
	jwtMgr := auth.NewJWTManager("test-secret")
	mux := loginMux(t, jwtMgr)

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	seeded := testDB.FixtureAdmin(t, "admin@casafunko.local", hash)

	rr := postLogin(mux, "admin@casafunko.local", "hunter2hunter2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Email != "admin@casafunko.local" {
		t.Errorf("email: got %q", resp.Email)
	}

	claims, err := jwtMgr.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.AdminID != seeded.ID {
		t.Errorf("token admin id: got %s, want %s", claims.AdminID, seeded.ID)
	}
}

func TestLogin_Rejections(t *testing.T) {
	testDB.Truncate(t)
	mux := loginMux(t, auth.NewJWTManager("test-secret"))

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	testDB.FixtureAdmin(t, "admin@casafunko.local", hash)

	// Unknown email and wrong password produce identical responses.
	unknown := postLogin(mux, "nobody@casafunko.local", "hunter2hunter2")
	wrongPw := postLogin(mux, "admin@casafunko.local", "wrong password")

	for name, rr := range map[string]*httptest.ResponseRecorder{"unknown email": unknown, "wrong password": wrongPw} {
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s status: got %d, want 401", name, rr.Code)
		}
	}
	if unknown.Body.String() != wrongPw.Body.String() {
		t.Errorf("responses differ: %q vs %q", unknown.Body.String(), wrongPw.Body.String())
	}
}
