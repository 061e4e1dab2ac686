// Package escrow implements the rental payment escrow state machine.
//
//	pending ──► held_in_escrow ──► released
//	   │                  └──────► disputed
//	   └──────► completed            (escrow disabled)
//
// released, disputed and completed are terminal. The machine never mutates
// the payment it is given: every operation returns a new value together with
// the transition to append to the audit log, so a failed operation leaves the
// caller's entity exactly as it was.
package escrow

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// DefaultFeeRate is the platform commission deducted from every payment.
var DefaultFeeRate = decimal.RequireFromString("0.05")

// DefaultInspectionWindow is how long a payment stays held before it is released automatically.
const DefaultInspectionWindow = 72 * time.Hour

// ActorSystem marks transitions performed by the machine or a background job.
const ActorSystem = "system"

// Policy configures fee and inspection behaviour.
type Policy struct {
	FeeRate          decimal.Decimal
	InspectionWindow time.Duration
}

// Machine applies escrow transitions under a Policy.
type Machine struct {
	policy Policy
	now    func() time.Time
}

// NewMachine creates a Machine. Zero policy fields fall back to the defaults.
func NewMachine(policy Policy) *Machine {
	if policy.FeeRate.IsZero() {
		policy.FeeRate = DefaultFeeRate
	}
	if policy.InspectionWindow <= 0 {
		policy.InspectionWindow = DefaultInspectionWindow
	}
	return &Machine{
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of the machine that reads time from now.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	return &Machine{policy: m.policy, now: now}
}

// Policy returns the machine's effective policy.
func (m *Machine) Policy() Policy {
	return m.policy
}

// InitiateParams describes a new payment.
type InitiateParams struct {
	Amount        decimal.Decimal
	ContactEmail  string
	EscrowEnabled bool
	Description   string
	PayerID       string
	PropertyID    string
	Actor         string
}

// SplitFee returns the platform fee and the landlord's share of amount.
// The fee is rounded to the same number of decimal places as amount, and the
// landlord amount is the remainder, so fee + landlord == amount exactly.
func SplitFee(amount, rate decimal.Decimal) (fee, landlord decimal.Decimal) {
	places := -amount.Exponent()
	if places < 0 {
		places = 0
	}
	fee = amount.Mul(rate).Round(places)
	return fee, amount.Sub(fee)
}

// Initiate validates a new payment and moves it out of pending: into
// held_in_escrow when escrow is enabled, or straight to completed otherwise.
// Both the creation and the move are returned as transitions.
func (m *Machine) Initiate(params InitiateParams) (model.EscrowPayment, []model.EscrowTransition, error) {
	if !params.Amount.IsPositive() {
		return model.EscrowPayment{}, nil, apperrors.ErrInvalidAmount
	}
	email := strings.TrimSpace(params.ContactEmail)
	if email == "" {
		return model.EscrowPayment{}, nil, apperrors.ErrMissingContact
	}

	actor := params.Actor
	if actor == "" {
		actor = ActorSystem
	}

	now := m.now()
	fee, landlord := SplitFee(params.Amount, m.policy.FeeRate)

	payment := model.EscrowPayment{
		ID:              uuid.New().String(),
		Amount:          params.Amount,
		PlatformFeeRate: m.policy.FeeRate,
		PlatformFee:     fee,
		LandlordAmount:  landlord,
		Status:          model.EscrowPending,
		ContactEmail:    email,
		Description:     params.Description,
		PayerID:         params.PayerID,
		PropertyID:      params.PropertyID,
		EscrowEnabled:   params.EscrowEnabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	transitions := []model.EscrowTransition{
		newTransition(payment.ID, "", model.EscrowPending, actor, "", now),
	}

	if !params.EscrowEnabled {
		payment.Status = model.EscrowCompleted
		transitions = append(transitions,
			newTransition(payment.ID, model.EscrowPending, model.EscrowCompleted, actor, "escrow disabled", now))
		return payment, transitions, nil
	}

	deadline := now.Add(m.policy.InspectionWindow)
	payment.Status = model.EscrowHeld
	payment.InspectionDeadline = &deadline
	transitions = append(transitions,
		newTransition(payment.ID, model.EscrowPending, model.EscrowHeld, actor, "", now))

	return payment, transitions, nil
}

// Release moves a held payment to released, making the landlord amount payable.
func (m *Machine) Release(payment model.EscrowPayment, actor string) (model.EscrowPayment, model.EscrowTransition, error) {
	return m.transition(payment, model.EscrowReleased, actor, "")
}

// Dispute moves a held payment to disputed and records the reason.
// Resolution happens outside this workflow. Once the inspection deadline has
// passed the payment is due for release and can no longer be disputed.
func (m *Machine) Dispute(payment model.EscrowPayment, reason, actor string) (model.EscrowPayment, model.EscrowTransition, error) {
	if payment.Status != model.EscrowHeld || m.Expired(payment, m.now()) {
		return payment, model.EscrowTransition{}, apperrors.ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return payment, model.EscrowTransition{}, apperrors.ErrMissingReason
	}
	return m.transition(payment, model.EscrowDisputed, actor, reason)
}

// Expired reports whether a held payment has passed its inspection deadline.
func (m *Machine) Expired(payment model.EscrowPayment, now time.Time) bool {
	if payment.Status != model.EscrowHeld || payment.InspectionDeadline == nil {
		return false
	}
	return !now.Before(*payment.InspectionDeadline)
}

func (m *Machine) transition(payment model.EscrowPayment, to model.EscrowStatus, actor, reason string) (model.EscrowPayment, model.EscrowTransition, error) {
	if payment.Status != model.EscrowHeld {
		return payment, model.EscrowTransition{}, apperrors.ErrInvalidTransition
	}
	if actor == "" {
		actor = ActorSystem
	}

	now := m.now()
	next := payment
	next.Status = to
	next.UpdatedAt = now
	if to == model.EscrowDisputed {
		next.DisputeReason = reason
	}

	return next, newTransition(payment.ID, payment.Status, to, actor, reason, now), nil
}

func newTransition(paymentID string, from, to model.EscrowStatus, actor, reason string, at time.Time) model.EscrowTransition {
	return model.EscrowTransition{
		ID:              uuid.New().String(),
		EscrowPaymentID: paymentID,
		FromStatus:      from,
		ToStatus:        to,
		Actor:           actor,
		Reason:          reason,
		OccurredAt:      at,
	}
}
