package apperrors

import "errors"

// ErrNotFound is the parent of every "entity does not exist" error.
// Handlers test for it with errors.Is to map to 404.
var ErrNotFound = errors.New("not found")

// Domain entity errors represent missing entities in the system.
// Each wraps ErrNotFound.
var (
	// ErrPropertyNotFound indicates that a property listing with the given ID does not exist.
	ErrPropertyNotFound = notFound("property not found")

	// ErrInvestmentPropertyNotFound indicates that an investment property with the given ID does not exist.
	ErrInvestmentPropertyNotFound = notFound("investment property not found")

	// ErrInvestmentNotFound indicates that a user investment no longer exists
	// (already sold or concurrently deleted).
	ErrInvestmentNotFound = notFound("investment not found")

	// ErrEscrowPaymentNotFound indicates that an escrow payment with the given ID does not exist.
	ErrEscrowPaymentNotFound = notFound("escrow payment not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidAmount indicates a non-positive or non-numeric money input.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrInvalidTransition indicates an escrow action attempted from a terminal or wrong state.
	ErrInvalidTransition = errors.New("invalid escrow transition")

	// ErrMissingReason indicates that a dispute was filed without a reason.
	ErrMissingReason = errors.New("dispute reason is required")

	// ErrMissingContact indicates that an escrow payment was initiated without a contact e-mail.
	ErrMissingContact = errors.New("contact email is required")

	// ErrOversubscribed indicates that a purchase would push the outstanding
	// shares of an investment property above 100%.
	ErrOversubscribed = errors.New("investment property is oversubscribed")

	// ErrStaleValue indicates that the property value changed between the
	// caller reading it and the write being committed.
	ErrStaleValue = errors.New("property value has changed")

	// ErrInvalidAppreciationModel indicates an appreciation model other than fixed or manual.
	ErrInvalidAppreciationModel = errors.New("appreciation model must be fixed or manual")

	// ErrInvalidAppreciationRate indicates a missing rate for a fixed model, or a rate on a manual one.
	ErrInvalidAppreciationRate = errors.New("appreciation rate is required for fixed model only")

	// ErrDivisionByZero guards ROI computation on a zero investment amount.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// ErrStoreFailure wraps opaque persistence errors so callers can tell them
// apart from business rule violations.
var ErrStoreFailure = errors.New("store failure")

// Operation failure messages used in HTTP error responses.
var (
	ErrFailedToRetrievePortfolio     = errors.New("failed to retrieve portfolio")
	ErrFailedToRetrievePerformance   = errors.New("failed to retrieve performance series")
	ErrFailedToRetrieveOpportunities = errors.New("failed to retrieve investment opportunities")
	ErrFailedToRetrieveHistory       = errors.New("failed to retrieve value history")
	ErrFailedToRetrieveProperty      = errors.New("failed to retrieve investment property")
	ErrFailedToRetrieveEscrow        = errors.New("failed to retrieve escrow payment")
	ErrFailedToGetVersionInfo        = errors.New("failed to get version information")
)

type notFoundError struct {
	msg string
}

func notFound(msg string) error {
	return &notFoundError{msg: msg}
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }
