package request

import "github.com/shopspring/decimal"

// InitiateEscrowRequest starts a rental payment. EscrowEnabled defaults to true.
type InitiateEscrowRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	ContactEmail  string          `json:"contactEmail" validate:"omitempty,email"`
	EscrowEnabled *bool           `json:"escrowEnabled,omitempty"`
	Description   string          `json:"description" validate:"max=500"`
	PayerID       string          `json:"payerId" validate:"omitempty,uuid"`
	PropertyID    string          `json:"propertyId" validate:"omitempty,uuid"`
	Actor         string          `json:"actor" validate:"max=100"`
}

// ReleaseEscrowRequest pays a held payment out to the landlord.
type ReleaseEscrowRequest struct {
	Actor string `json:"actor" validate:"max=100"`
}

// DisputeEscrowRequest freezes a held payment with a reason.
type DisputeEscrowRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
	Actor  string `json:"actor" validate:"max=100"`
}
