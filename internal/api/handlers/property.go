package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
	"github.com/ndewijer/Property-Investment-Backend/internal/validation"
)

// PropertyHandler handles HTTP requests for property listings and the
// investment properties wrapping them.
type PropertyHandler struct {
	investmentService *service.InvestmentService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(investmentService *service.InvestmentService) *PropertyHandler {
	return &PropertyHandler{
		investmentService: investmentService,
	}
}

// CreateProperty handles POST requests to create a property listing.
//
// Endpoint: POST /api/property
// Request Body: CreatePropertyRequest (title, location, agentId)
// Response: 201 Created with Property
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if creation fails
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.CreatePropertyRequest](w, r, false)
	if !ok {
		return
	}

	property, err := h.investmentService.CreateProperty(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusCreated, property)
}

// InvestmentProperties handles GET requests listing investment properties.
// With ?excludeUser={uuid} the properties that user already holds are left out.
//
// Endpoint: GET /api/investment-property
// Response: 200 OK with array of InvestmentProperty
// Error: 400 Bad Request if excludeUser is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *PropertyHandler) InvestmentProperties(w http.ResponseWriter, r *http.Request) {
	excludeUser := r.URL.Query().Get("excludeUser")
	if excludeUser != "" {
		if err := validation.ValidateUUID(excludeUser); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
			return
		}
	}

	properties, err := h.investmentService.ListOpportunities(r.Context(), excludeUser)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveOpportunities)
		return
	}

	response.RespondJSON(w, http.StatusOK, properties)
}

// CreateInvestmentProperty handles POST requests to open a property for fractional investment.
// Writes the initial value history point.
//
// Endpoint: POST /api/investment-property
// Request Body: CreateInvestmentPropertyRequest
// Response: 201 Created with InvestmentProperty
// Error: 400 Bad Request if validation fails or the appreciation policy is inconsistent
// Error: 404 Not Found if the property listing does not exist
// Error: 500 Internal Server Error if creation fails
func (h *PropertyHandler) CreateInvestmentProperty(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.CreateInvestmentPropertyRequest](w, r, false)
	if !ok {
		return
	}

	ip, err := h.investmentService.CreateInvestmentProperty(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusCreated, ip)
}

// GetInvestmentProperty handles GET requests for a single investment property.
//
// Endpoint: GET /api/investment-property/{uuid}
// Response: 200 OK with InvestmentProperty
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the investment property does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *PropertyHandler) GetInvestmentProperty(w http.ResponseWriter, r *http.Request) {
	ip, err := h.investmentService.GetInvestmentProperty(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveProperty)
		return
	}

	response.RespondJSON(w, http.StatusOK, ip)
}

// DeleteInvestmentProperty handles DELETE requests. Investments in the
// property and its value history are removed with it.
//
// Endpoint: DELETE /api/investment-property/{uuid}
// Response: 204 No Content
// Error: 404 Not Found if the investment property does not exist
// Error: 500 Internal Server Error if deletion fails
func (h *PropertyHandler) DeleteInvestmentProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.investmentService.DeleteInvestmentProperty(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// UpdateValue handles PUT requests setting an investment property's current value.
// When expectedVersion is supplied the update is rejected if another write got there first.
//
// Endpoint: PUT /api/investment-property/{uuid}/value
// Request Body: UpdateValueRequest (currentValue, expectedVersion)
// Response: 200 OK with updated InvestmentProperty
// Error: 400 Bad Request if the value is not positive
// Error: 404 Not Found if the investment property does not exist
// Error: 409 Conflict if expectedVersion is stale
// Error: 500 Internal Server Error if the update fails
func (h *PropertyHandler) UpdateValue(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.UpdateValueRequest](w, r, false)
	if !ok {
		return
	}

	ip, err := h.investmentService.UpdateCurrentValue(r.Context(), chi.URLParam(r, "uuid"), req.CurrentValue, req.ExpectedVersion)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusOK, ip)
}

// ValueHistory handles GET requests for an investment property's value history, oldest first.
//
// Endpoint: GET /api/investment-property/{uuid}/history
// Response: 200 OK with array of PropertyValueHistory
// Error: 404 Not Found if the investment property does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *PropertyHandler) ValueHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.investmentService.GetValueHistory(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveHistory)
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}
