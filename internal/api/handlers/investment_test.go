package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/handlers"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/testutil"
)

// TestInvestmentHandler_Buy tests purchasing over HTTP.
//
// WHY: The buy endpoint is the only way shares are created; its status codes
// tell the client whether to retry with a fresh quote or give up.
func TestInvestmentHandler_Buy(t *testing.T) {
	t.Run("creates investment with computed shares", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewInvestmentHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.CreateInvestmentProperty(t, db, "10000000")
		userID := testutil.MakeID()

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment", request.BuyRequest{
			UserID:               userID,
			InvestmentPropertyID: ip.ID,
			Amount:               testutil.Dec(t, "500000"),
		}, nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Buy(w, req)

		// Assert
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var investment model.UserInvestment
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&investment)

		if !investment.Shares.Equal(testutil.Dec(t, "0.05")) {
			t.Errorf("Expected shares 0.05, got %s", investment.Shares)
		}
		if investment.UserID != userID {
			t.Errorf("Expected user %s, got %s", userID, investment.UserID)
		}
	})

	tests := []struct {
		name       string
		body       func(t *testing.T, ipID string) any
		wantStatus int
	}{
		{
			name: "missing user id",
			body: func(t *testing.T, ipID string) any {
				return request.BuyRequest{InvestmentPropertyID: ipID, Amount: testutil.Dec(t, "1000")}
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "zero amount",
			body: func(t *testing.T, ipID string) any {
				return request.BuyRequest{UserID: testutil.MakeID(), InvestmentPropertyID: ipID}
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "malformed json",
			body: func(*testing.T, string) any {
				return `{"userId": `
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown investment property",
			body: func(t *testing.T, _ string) any {
				return request.BuyRequest{UserID: testutil.MakeID(), InvestmentPropertyID: testutil.MakeID(), Amount: testutil.Dec(t, "1000")}
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "stale quote",
			body: func(t *testing.T, ipID string) any {
				return request.BuyRequest{
					UserID:               testutil.MakeID(),
					InvestmentPropertyID: ipID,
					Amount:               testutil.Dec(t, "1000"),
					ExpectedValue:        testutil.DecPtr(t, "9000000"),
				}
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "oversubscribed",
			body: func(t *testing.T, ipID string) any {
				return request.BuyRequest{UserID: testutil.MakeID(), InvestmentPropertyID: ipID, Amount: testutil.Dec(t, "10000001")}
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			handler := handlers.NewInvestmentHandler(testutil.NewTestInvestmentService(t, db))
			ip := testutil.CreateInvestmentProperty(t, db, "10000000")

			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment", tt.body(t, ip.ID), nil)
			w := httptest.NewRecorder()

			handler.Buy(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if n := testutil.CountRows(t, db, "user_investment"); n != 0 {
				t.Errorf("Expected no investments to be created, got %d", n)
			}
		})
	}
}

func TestInvestmentHandler_Sell(t *testing.T) {
	t.Run("sells at current value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewInvestmentHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.NewInvestmentProperty().WithValue("10000000").WithCurrentValue("12000000").Build(t, db)
		investment := testutil.NewUserInvestment(testutil.MakeID(), ip).WithAmount("500000").WithShares("0.05").Build(t, db)

		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/investment/"+investment.ID+"/sell",
			map[string]string{"uuid": investment.ID})
		w := httptest.NewRecorder()

		handler.Sell(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var sale model.InvestmentSale
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&sale)

		if !sale.RealizedValue.Equal(testutil.Dec(t, "600000")) {
			t.Errorf("Expected realized value 600000, got %s", sale.RealizedValue)
		}
		if !sale.RealizedGainLoss.Equal(testutil.Dec(t, "100000")) {
			t.Errorf("Expected gain 100000, got %s", sale.RealizedGainLoss)
		}
	})

	t.Run("second sell returns 404", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewInvestmentHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.CreateInvestmentProperty(t, db, "10000000")
		investment := testutil.NewUserInvestment(testutil.MakeID(), ip).Build(t, db)
		params := map[string]string{"uuid": investment.ID}

		w := httptest.NewRecorder()
		handler.Sell(w, testutil.NewRequestWithURLParams(http.MethodPost, "/api/investment/"+investment.ID+"/sell", params))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected first sell 200, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.Sell(w, testutil.NewRequestWithURLParams(http.MethodPost, "/api/investment/"+investment.ID+"/sell", params))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected second sell 404, got %d", w.Code)
		}
	})
}
