package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the lifecycle state of an escrow payment.
type EscrowStatus string

const (
	EscrowPending   EscrowStatus = "pending"
	EscrowHeld      EscrowStatus = "held_in_escrow"
	EscrowReleased  EscrowStatus = "released"
	EscrowDisputed  EscrowStatus = "disputed"
	EscrowCompleted EscrowStatus = "completed" // Escrow bypassed at initiation
)

// Terminal reports whether no further transition is permitted from s.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowReleased || s == EscrowDisputed || s == EscrowCompleted
}

// EscrowPayment is one rental payment moving through the escrow workflow.
// ContactEmail is only set on a newly initiated payment; it is stored sealed
// and loaded on its own.
type EscrowPayment struct {
	ID                 string          `json:"id"`
	Amount             decimal.Decimal `json:"amount"`
	PlatformFeeRate    decimal.Decimal `json:"platformFeeRate"`
	PlatformFee        decimal.Decimal `json:"platformFee"`
	LandlordAmount     decimal.Decimal `json:"landlordAmount"`
	Status             EscrowStatus    `json:"status"`
	DisputeReason      string          `json:"disputeReason,omitempty"`
	ContactEmail       string          `json:"contactEmail,omitempty"`
	Description        string          `json:"description,omitempty"`
	PayerID            string          `json:"payerId,omitempty"`
	PropertyID         string          `json:"propertyId,omitempty"`
	EscrowEnabled      bool            `json:"escrowEnabled"`
	InspectionDeadline *time.Time      `json:"inspectionDeadline,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// EscrowTransition is one entry of a payment's append-only audit log.
type EscrowTransition struct {
	ID              string       `json:"id"`
	EscrowPaymentID string       `json:"escrowPaymentId"`
	FromStatus      EscrowStatus `json:"fromStatus,omitempty"`
	ToStatus        EscrowStatus `json:"toStatus"`
	Actor           string       `json:"actor"`
	Reason          string       `json:"reason,omitempty"`
	OccurredAt      time.Time    `json:"occurredAt"`
}
