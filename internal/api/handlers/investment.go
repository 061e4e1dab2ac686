package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
)

// InvestmentHandler handles buying and selling fractional investments.
type InvestmentHandler struct {
	investmentService *service.InvestmentService
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
	}
}

// Buy handles POST requests purchasing shares of an investment property.
//
// Endpoint: POST /api/investment
// Request Body: BuyRequest (userId, investmentPropertyId, amount, expectedValue)
// Response: 201 Created with UserInvestment
// Error: 400 Bad Request if validation fails or the amount is not positive
// Error: 404 Not Found if the investment property does not exist
// Error: 409 Conflict if the value moved since expectedValue or the property is fully subscribed
// Error: 500 Internal Server Error if the purchase fails
func (h *InvestmentHandler) Buy(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.BuyRequest](w, r, false)
	if !ok {
		return
	}

	investment, err := h.investmentService.Buy(r.Context(), service.BuyParams{
		UserID:               req.UserID,
		InvestmentPropertyID: req.InvestmentPropertyID,
		Amount:               req.Amount,
		ExpectedValue:        req.ExpectedValue,
	})
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusCreated, investment)
}

// Sell handles POST requests liquidating an investment at the property's current value.
// The body is optional.
//
// Endpoint: POST /api/investment/{uuid}/sell
// Request Body: SellRequest (expectedValue), optional
// Response: 200 OK with InvestmentSale
// Error: 404 Not Found if the investment does not exist or was already sold
// Error: 409 Conflict if the value moved since expectedValue
// Error: 500 Internal Server Error if the sale fails
func (h *InvestmentHandler) Sell(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.SellRequest](w, r, true)
	if !ok {
		return
	}

	sale, err := h.investmentService.Sell(r.Context(), chi.URLParam(r, "uuid"), req.ExpectedValue)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusOK, sale)
}
