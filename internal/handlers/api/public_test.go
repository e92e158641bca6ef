package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casafunko/api/internal/handlers/api"
)

func TestListCouriers(t *testing.T) {
	mux := http.NewServeMux()
	api.NewPublicHandler(nil, nil, nil).RegisterRoutes(mux)

	tests := []struct {
		name   string
		region string
		want   int
	}{
		{"local", "local", 2},
		{"national", "national", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/shipping/couriers?region="+tt.region, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200", rr.Code)
			}
			var resp struct {
				Region string `json:"region"`
				Data   []struct {
					ID    string `json:"id"`
					Name  string `json:"name"`
					Price int64  `json:"price"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Region != tt.region {
				t.Errorf("region: got %q, want %q", resp.Region, tt.region)
			}
			if len(resp.Data) != tt.want {
				t.Errorf("couriers: got %d, want %d", len(resp.Data), tt.want)
			}
		})
	}
}

func TestListCouriers_UnknownRegion(t *testing.T) {
	mux := http.NewServeMux()
	api.NewPublicHandler(nil, nil, nil).RegisterRoutes(mux)

	for _, region := range []string{"", "international"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shipping/couriers?region="+region, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("region %q status: got %d, want 400", region, rr.Code)
		}
	}
}
