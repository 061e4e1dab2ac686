package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/api/response"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
)

// EscrowHandler handles rental payments held in escrow.
type EscrowHandler struct {
	escrowService *service.EscrowService
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowService *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{
		escrowService: escrowService,
	}
}

// EscrowPaymentResponse is the public view of a payment. The payer's contact
// address is never returned.
type EscrowPaymentResponse struct {
	ID                 string             `json:"id"`
	Status             model.EscrowStatus `json:"status"`
	Amount             decimal.Decimal    `json:"amount"`
	PlatformFee        decimal.Decimal    `json:"platformFee"`
	LandlordAmount     decimal.Decimal    `json:"landlordAmount"`
	EscrowEnabled      bool               `json:"escrowEnabled"`
	Description        string             `json:"description,omitempty"`
	PayerID            string             `json:"payerId,omitempty"`
	PropertyID         string             `json:"propertyId,omitempty"`
	DisputeReason      string             `json:"disputeReason,omitempty"`
	InspectionDeadline *time.Time         `json:"inspectionDeadline,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func newEscrowPaymentResponse(p model.EscrowPayment) EscrowPaymentResponse {
	return EscrowPaymentResponse{
		ID:                 p.ID,
		Status:             p.Status,
		Amount:             p.Amount,
		PlatformFee:        p.PlatformFee,
		LandlordAmount:     p.LandlordAmount,
		EscrowEnabled:      p.EscrowEnabled,
		Description:        p.Description,
		PayerID:            p.PayerID,
		PropertyID:         p.PropertyID,
		DisputeReason:      p.DisputeReason,
		InspectionDeadline: p.InspectionDeadline,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

// Initiate handles POST requests starting a rental payment.
// The payment is held in escrow unless escrowEnabled is false.
//
// Endpoint: POST /api/escrow
// Request Body: InitiateEscrowRequest (amount, contactEmail, escrowEnabled, description, payerId, propertyId, actor)
// Response: 201 Created with EscrowPaymentResponse
// Error: 400 Bad Request if the amount is not positive or the contact is missing
// Error: 500 Internal Server Error if the payment cannot be stored
func (h *EscrowHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.InitiateEscrowRequest](w, r, false)
	if !ok {
		return
	}

	payment, err := h.escrowService.Initiate(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusCreated, newEscrowPaymentResponse(payment))
}

// GetPayment handles GET requests for a single escrow payment.
//
// Endpoint: GET /api/escrow/{uuid}
// Response: 200 OK with EscrowPaymentResponse
// Error: 404 Not Found if the payment does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *EscrowHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.escrowService.Get(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveEscrow)
		return
	}

	response.RespondJSON(w, http.StatusOK, newEscrowPaymentResponse(payment))
}

// Release handles POST requests paying a held payment out to the landlord.
//
// Endpoint: POST /api/escrow/{uuid}/release
// Request Body: ReleaseEscrowRequest (actor), optional
// Response: 200 OK with EscrowPaymentResponse
// Error: 404 Not Found if the payment does not exist
// Error: 409 Conflict if the payment is not held in escrow
// Error: 500 Internal Server Error if the update fails
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.ReleaseEscrowRequest](w, r, true)
	if !ok {
		return
	}

	payment, err := h.escrowService.Release(r.Context(), chi.URLParam(r, "uuid"), req.Actor)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusOK, newEscrowPaymentResponse(payment))
}

// Dispute handles POST requests freezing a held payment.
//
// Endpoint: POST /api/escrow/{uuid}/dispute
// Request Body: DisputeEscrowRequest (reason, actor)
// Response: 200 OK with EscrowPaymentResponse
// Error: 400 Bad Request if the reason is blank
// Error: 404 Not Found if the payment does not exist
// Error: 409 Conflict if the payment is not held in escrow
// Error: 500 Internal Server Error if the update fails
func (h *EscrowHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[request.DisputeEscrowRequest](w, r, false)
	if !ok {
		return
	}

	payment, err := h.escrowService.Dispute(r.Context(), chi.URLParam(r, "uuid"), req.Reason, req.Actor)
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrStoreFailure)
		return
	}

	response.RespondJSON(w, http.StatusOK, newEscrowPaymentResponse(payment))
}

// Transitions handles GET requests for a payment's transition log, oldest first.
//
// Endpoint: GET /api/escrow/{uuid}/transitions
// Response: 200 OK with array of EscrowTransition
// Error: 404 Not Found if the payment does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *EscrowHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	transitions, err := h.escrowService.Transitions(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, r, err, apperrors.ErrFailedToRetrieveEscrow)
		return
	}

	response.RespondJSON(w, http.StatusOK, transitions)
}
