package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/crypto"
	"github.com/ndewijer/Property-Investment-Backend/internal/escrow"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
	"github.com/ndewijer/Property-Investment-Backend/internal/service"
)

// FixedNow is the clock used by test services.
var FixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

// FixedClock returns FixedNow.
func FixedClock() time.Time { return FixedNow }

func NewTestInvestmentService(t *testing.T, db *sql.DB) *service.InvestmentService {
	t.Helper()
	return newTestInvestmentService(t, db, true)
}

// NewTestUncappedInvestmentService creates an InvestmentService that allows
// outstanding shares of a property to exceed 1.
func NewTestUncappedInvestmentService(t *testing.T, db *sql.DB) *service.InvestmentService {
	t.Helper()
	return newTestInvestmentService(t, db, false)
}

func newTestInvestmentService(t *testing.T, db *sql.DB, enforceShareCap bool) *service.InvestmentService {
	t.Helper()

	return service.NewInvestmentService(
		db,
		repository.NewPropertyRepository(db),
		repository.NewInvestmentPropertyRepository(db),
		repository.NewUserInvestmentRepository(db),
		repository.NewValueHistoryRepository(db),
		repository.NewSaleRepository(db),
		metrics.New(),
		enforceShareCap,
	).WithClock(FixedClock)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		repository.NewUserInvestmentRepository(db),
		repository.NewValueHistoryRepository(db),
		repository.NewSaleRepository(db),
		repository.NewInvestmentPropertyRepository(db),
	)
}

// NewTestSealer creates a contact sealer with an ephemeral key.
func NewTestSealer(t *testing.T) *crypto.Sealer {
	t.Helper()

	sealer, err := crypto.NewEphemeral()
	if err != nil {
		t.Fatalf("Failed to create sealer: %v", err)
	}
	return sealer
}

// NewTestEscrowService creates an EscrowService whose machine reads time from now.
func NewTestEscrowService(t *testing.T, db *sql.DB, now func() time.Time) *service.EscrowService {
	t.Helper()

	machine := escrow.NewMachine(escrow.Policy{}).WithClock(now)
	return service.NewEscrowService(
		db,
		repository.NewEscrowRepository(db, NewTestSealer(t)),
		machine,
		metrics.New(),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"escrow": true})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakePropertyTitle generates a unique listing title for testing.
//
// Example usage:
//
//	title := testutil.MakePropertyTitle("Lekki Duplex")
//	// Returns: "Lekki Duplex ABC123"
func MakePropertyTitle(base string) string {
	if base == "" {
		base = "Property"
	}
	return base + " " + randomAlphanumeric(6)
}

// Dec parses a decimal literal and fails the test on error.
func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", s, err)
	}
	return d
}

// DecPtr is Dec returning a pointer, for optional request fields.
func DecPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()

	d := Dec(t, s)
	return &d
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// CommonLocations contains frequently used listing locations.
var CommonLocations = []string{"Lekki, Lagos", "Ikoyi, Lagos", "Wuse II, Abuja", "GRA, Port Harcourt"}

// RandomLocation returns a random location from CommonLocations.
func RandomLocation() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return CommonLocations[rand.Intn(len(CommonLocations))]
}
