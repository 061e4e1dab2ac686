package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ndewijer/Property-Investment-Backend/internal/api"
	"github.com/ndewijer/Property-Investment-Backend/internal/config"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	return api.NewRouter(api.Services{
		System:     testutil.NewTestSystemService(t, db),
		Investment: testutil.NewTestInvestmentService(t, db),
		Portfolio:  testutil.NewTestPortfolioService(t, db),
		Escrow:     testutil.NewTestEscrowService(t, db, testutil.FixedClock),
	}, metrics.New(), cfg)
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/system/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"invalid escrow id", http.MethodGet, "/api/escrow/not-a-uuid", "", http.StatusBadRequest},
		{"invalid user id", http.MethodGet, "/api/user/not-a-uuid/portfolio", "", http.StatusBadRequest},
		{"unknown escrow payment", http.MethodGet, "/api/escrow/" + testutil.MakeID(), "", http.StatusNotFound},
		{"empty portfolio", http.MethodGet, "/api/user/" + testutil.MakeID() + "/portfolio", "", http.StatusOK},
		{"initiate escrow", http.MethodPost, "/api/escrow", `{"amount":"1000","contactEmail":"tenant@example.com"}`, http.StatusCreated},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/escrow", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}
