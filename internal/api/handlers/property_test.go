package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/handlers"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/testutil"
)

func TestPropertyHandler_CreateInvestmentProperty(t *testing.T) {
	t.Run("creates fixed-rate investment property", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
		property := testutil.NewProperty().Build(t, db)
		rate := testutil.DecPtr(t, "5")

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment-property", request.CreateInvestmentPropertyRequest{
			PropertyID:        property.ID,
			InitialValue:      testutil.Dec(t, "10000000"),
			AppreciationModel: "fixed",
			AppreciationRate:  rate,
		}, nil)
		w := httptest.NewRecorder()

		// Execute
		handler.CreateInvestmentProperty(w, req)

		// Assert
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var ip model.InvestmentProperty
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&ip)

		if !ip.CurrentValue.Equal(testutil.Dec(t, "10000000")) {
			t.Errorf("Expected current value to default to initial value, got %s", ip.CurrentValue)
		}
		if ip.Property.ID != property.ID {
			t.Errorf("Expected property %s, got %s", property.ID, ip.Property.ID)
		}
		if n := testutil.CountRows(t, db, "property_value_history"); n != 1 {
			t.Errorf("Expected 1 history point, got %d", n)
		}
	})

	t.Run("rejects unknown model before reaching the service", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment-property", map[string]any{
			"propertyId":        testutil.MakeID(),
			"initialValue":      "1000",
			"appreciationModel": "linear",
		}, nil)
		w := httptest.NewRecorder()

		handler.CreateInvestmentProperty(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&resp)

		if _, ok := resp.Details["appreciationModel"]; !ok {
			t.Errorf("Expected field error for appreciationModel, got %v", resp.Details)
		}
	})

	t.Run("manual model with a rate is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
		property := testutil.NewProperty().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment-property", request.CreateInvestmentPropertyRequest{
			PropertyID:        property.ID,
			InitialValue:      testutil.Dec(t, "1000"),
			AppreciationModel: "manual",
			AppreciationRate:  testutil.DecPtr(t, "2"),
		}, nil)
		w := httptest.NewRecorder()

		handler.CreateInvestmentProperty(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("unknown property listing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/investment-property", request.CreateInvestmentPropertyRequest{
			PropertyID:        testutil.MakeID(),
			InitialValue:      testutil.Dec(t, "1000"),
			AppreciationModel: "manual",
		}, nil)
		w := httptest.NewRecorder()

		handler.CreateInvestmentProperty(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}

// TestPropertyHandler_UpdateValue tests manual value updates over HTTP.
//
// WHY: An administrator editing a value someone else just changed must get a
// conflict instead of silently overwriting it.
func TestPropertyHandler_UpdateValue(t *testing.T) {
	t.Run("updates value and bumps version", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.CreateInvestmentProperty(t, db, "10000000")
		version := ip.Version

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/investment-property/"+ip.ID+"/value",
			request.UpdateValueRequest{CurrentValue: testutil.Dec(t, "11000000"), ExpectedVersion: &version},
			map[string]string{"uuid": ip.ID})
		w := httptest.NewRecorder()

		handler.UpdateValue(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var updated model.InvestmentProperty
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&updated)

		if !updated.CurrentValue.Equal(testutil.Dec(t, "11000000")) {
			t.Errorf("Expected value 11000000, got %s", updated.CurrentValue)
		}
		if updated.Version != version+1 {
			t.Errorf("Expected version %d, got %d", version+1, updated.Version)
		}
	})

	t.Run("stale version returns 409", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.CreateInvestmentProperty(t, db, "10000000")
		stale := ip.Version + 5

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/investment-property/"+ip.ID+"/value",
			request.UpdateValueRequest{CurrentValue: testutil.Dec(t, "11000000"), ExpectedVersion: &stale},
			map[string]string{"uuid": ip.ID})
		w := httptest.NewRecorder()

		handler.UpdateValue(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("non-positive value returns 400", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
		ip := testutil.CreateInvestmentProperty(t, db, "10000000")

		req := testutil.NewJSONRequest(t, http.MethodPut, "/api/investment-property/"+ip.ID+"/value",
			`{"currentValue": "0"}`, map[string]string{"uuid": ip.ID})
		w := httptest.NewRecorder()

		handler.UpdateValue(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestPropertyHandler_InvestmentProperties(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
	userID := testutil.MakeID()

	held := testutil.CreateInvestmentProperty(t, db, "10000000")
	testutil.CreateInvestmentProperty(t, db, "20000000")
	testutil.NewUserInvestment(userID, held).Build(t, db)

	t.Run("lists all", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.InvestmentProperties(w, httptest.NewRequest(http.MethodGet, "/api/investment-property", nil))

		var list []model.InvestmentProperty
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&list)

		if w.Code != http.StatusOK || len(list) != 2 {
			t.Errorf("Expected 200 with 2 properties, got %d with %d", w.Code, len(list))
		}
	})

	t.Run("excludes held properties", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/investment-property",
			map[string]string{"excludeUser": userID}, nil)
		w := httptest.NewRecorder()
		handler.InvestmentProperties(w, req)

		var list []model.InvestmentProperty
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&list)

		if len(list) != 1 || list[0].ID == held.ID {
			t.Errorf("Expected only the unheld property, got %d properties", len(list))
		}
	})

	t.Run("invalid excludeUser", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/investment-property",
			map[string]string{"excludeUser": "someone"}, nil)
		w := httptest.NewRecorder()
		handler.InvestmentProperties(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestPropertyHandler_GetAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewPropertyHandler(testutil.NewTestInvestmentService(t, db))
	ip := testutil.CreateInvestmentProperty(t, db, "10000000")
	params := map[string]string{"uuid": ip.ID}

	w := httptest.NewRecorder()
	handler.ValueHistory(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/investment-property/"+ip.ID+"/history", params))
	if w.Code != http.StatusOK {
		t.Errorf("Expected history 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.DeleteInvestmentProperty(w, testutil.NewRequestWithURLParams(http.MethodDelete, "/api/investment-property/"+ip.ID, params))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected delete 204, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.GetInvestmentProperty(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/investment-property/"+ip.ID, params))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}

	var resp response.ErrorResponse
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Error != "investment property not found" {
		t.Errorf("Expected 'investment property not found', got '%s'", resp.Error)
	}
}
