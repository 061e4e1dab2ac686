package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/escrow"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
	"github.com/ndewijer/Property-Investment-Backend/internal/testutil"
)

// TestInvestmentPropertyRepository_UpdateValue tests the version-guarded value write.
//
// WHY: Every value change goes through this statement; a writer holding an
// old version must not overwrite a newer value.
func TestInvestmentPropertyRepository_UpdateValue(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvestmentPropertyRepository(db)
	ip := testutil.CreateInvestmentProperty(t, db, "10000000")

	version, err := repo.UpdateValue(ctx, ip.ID, testutil.Dec(t, "11000000"), testutil.FixedNow, ip.Version)
	if err != nil {
		t.Fatalf("UpdateValue() returned unexpected error: %v", err)
	}
	if version != ip.Version+1 {
		t.Errorf("Expected version %d, got %d", ip.Version+1, version)
	}

	if _, err := repo.UpdateValue(ctx, ip.ID, testutil.Dec(t, "9000000"), testutil.FixedNow, ip.Version); !errors.Is(err, apperrors.ErrStaleValue) {
		t.Errorf("Expected ErrStaleValue for old version, got %v", err)
	}
	if _, err := repo.UpdateValue(ctx, testutil.MakeID(), testutil.Dec(t, "1"), testutil.FixedNow, 1); !errors.Is(err, apperrors.ErrInvestmentPropertyNotFound) {
		t.Errorf("Expected ErrInvestmentPropertyNotFound, got %v", err)
	}

	stored, err := repo.GetInvestmentProperty(ctx, ip.ID)
	if err != nil {
		t.Fatalf("GetInvestmentProperty() returned unexpected error: %v", err)
	}
	if !stored.CurrentValue.Equal(testutil.Dec(t, "11000000")) {
		t.Errorf("Expected stored value 11000000, got %s", stored.CurrentValue)
	}
	if !stored.LastUpdateDate.Equal(testutil.FixedNow) {
		t.Errorf("Expected last update %v, got %v", testutil.FixedNow, stored.LastUpdateDate)
	}
}

func TestInvestmentPropertyRepository_ListDueForAppreciation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewInvestmentPropertyRepository(db)
	cutoff := testutil.FixedNow.AddDate(0, -3, 0)

	due := testutil.NewInvestmentProperty().WithFixedRate("5").WithLastUpdateDate(cutoff.Add(-time.Hour)).Build(t, db)
	testutil.NewInvestmentProperty().WithFixedRate("5").WithLastUpdateDate(cutoff.Add(time.Hour)).Build(t, db)
	testutil.NewInvestmentProperty().WithLastUpdateDate(cutoff.AddDate(-1, 0, 0)).Build(t, db)

	list, err := repo.ListDueForAppreciation(ctx, cutoff)
	if err != nil {
		t.Fatalf("ListDueForAppreciation() returned unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != due.ID {
		t.Errorf("Expected only %s to be due, got %d properties", due.ID, len(list))
	}
	if list[0].AppreciationRate == nil || !list[0].AppreciationRate.Equal(testutil.Dec(t, "5")) {
		t.Errorf("Expected rate 5, got %v", list[0].AppreciationRate)
	}
}

func TestValueHistoryRepository_ListValueHistory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewValueHistoryRepository(db)

	a := testutil.NewInvestmentProperty().WithoutHistory().Build(t, db)
	b := testutil.NewInvestmentProperty().WithoutHistory().Build(t, db)
	c := testutil.NewInvestmentProperty().WithoutHistory().Build(t, db)

	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	testutil.NewValuePoint(a.ID, "300", march).Build(t, db)
	testutil.NewValuePoint(b.ID, "100", jan).Build(t, db)
	testutil.NewValuePoint(c.ID, "999", jan).Build(t, db)

	t.Run("filters and orders by date", func(t *testing.T) {
		history, err := repo.ListValueHistory(ctx, []string{a.ID, b.ID})
		if err != nil {
			t.Fatalf("ListValueHistory() returned unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("Expected 2 points, got %d", len(history))
		}
		if history[0].InvestmentPropertyID != b.ID || history[1].InvestmentPropertyID != a.ID {
			t.Errorf("Expected January point first")
		}
		if !history[1].ValueDate.Equal(march) {
			t.Errorf("Expected %v, got %v", march, history[1].ValueDate)
		}
	})

	t.Run("no ids gives empty result", func(t *testing.T) {
		history, err := repo.ListValueHistory(ctx, nil)
		if err != nil {
			t.Fatalf("ListValueHistory() returned unexpected error: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("Expected empty history, got %d", len(history))
		}
	})
}

// TestEscrowRepository tests escrow persistence.
//
// WHY: Payments and their audit log are the only record of who moved money
// when; the log must keep write order and contacts must stay sealed.
func TestEscrowRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewEscrowRepository(db, testutil.NewTestSealer(t))
	machine := escrow.NewMachine(escrow.Policy{}).WithClock(testutil.FixedClock)

	payment, transitions, err := machine.Initiate(escrow.InitiateParams{
		Amount:        testutil.Dec(t, "100.50"),
		ContactEmail:  "tenant@example.com",
		EscrowEnabled: true,
	})
	if err != nil {
		t.Fatalf("Initiate() returned unexpected error: %v", err)
	}
	if err := repo.InsertPayment(ctx, payment); err != nil {
		t.Fatalf("InsertPayment() returned unexpected error: %v", err)
	}
	if err := repo.InsertTransitions(ctx, transitions...); err != nil {
		t.Fatalf("InsertTransitions() returned unexpected error: %v", err)
	}

	t.Run("round trips amounts and contact", func(t *testing.T) {
		stored, err := repo.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment() returned unexpected error: %v", err)
		}
		if !stored.Amount.Equal(payment.Amount) || !stored.PlatformFee.Equal(testutil.Dec(t, "5.03")) || !stored.LandlordAmount.Equal(testutil.Dec(t, "95.47")) {
			t.Errorf("Amounts changed in storage: %s / %s / %s", stored.Amount, stored.PlatformFee, stored.LandlordAmount)
		}
		if stored.ContactEmail != "" {
			t.Errorf("Expected payment reads to leave the contact sealed, got '%s'", stored.ContactEmail)
		}
		contact, err := repo.GetContact(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetContact() returned unexpected error: %v", err)
		}
		if contact != "tenant@example.com" {
			t.Errorf("Expected contact to open, got '%s'", contact)
		}
		if _, err := repo.GetContact(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrEscrowPaymentNotFound) {
			t.Errorf("Expected ErrEscrowPaymentNotFound, got %v", err)
		}
		if stored.Status != model.EscrowHeld || !stored.EscrowEnabled {
			t.Errorf("Expected held with escrow enabled, got %s %v", stored.Status, stored.EscrowEnabled)
		}
	})

	t.Run("payments load under a different key", func(t *testing.T) {
		restarted := repository.NewEscrowRepository(db, testutil.NewTestSealer(t))

		stored, err := restarted.GetPayment(ctx, payment.ID)
		if err != nil {
			t.Fatalf("GetPayment() returned unexpected error: %v", err)
		}
		if stored.Status != model.EscrowHeld {
			t.Errorf("Expected held, got %s", stored.Status)
		}
		if _, err := restarted.GetContact(ctx, payment.ID); err == nil {
			t.Error("Expected GetContact() to fail under a different key")
		}
	})

	t.Run("expired ids", func(t *testing.T) {
		ids, err := repo.ListExpiredIDs(ctx, payment.InspectionDeadline.Add(-time.Second))
		if err != nil {
			t.Fatalf("ListExpiredIDs() returned unexpected error: %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("Expected nothing expired before the deadline, got %v", ids)
		}

		ids, err = repo.ListExpiredIDs(ctx, *payment.InspectionDeadline)
		if err != nil {
			t.Fatalf("ListExpiredIDs() returned unexpected error: %v", err)
		}
		if len(ids) != 1 || ids[0] != payment.ID {
			t.Errorf("Expected %s to be expired, got %v", payment.ID, ids)
		}
	})

	t.Run("transitions keep write order", func(t *testing.T) {
		log, err := repo.ListTransitions(ctx, payment.ID)
		if err != nil {
			t.Fatalf("ListTransitions() returned unexpected error: %v", err)
		}
		if len(log) != 2 || log[0].ToStatus != model.EscrowPending || log[1].ToStatus != model.EscrowHeld {
			t.Errorf("Expected pending then held, got %+v", log)
		}
	})

	t.Run("status update guarded by expected status", func(t *testing.T) {
		released := payment
		released.Status = model.EscrowReleased
		released.UpdatedAt = testutil.FixedNow.Add(time.Hour)

		if err := repo.UpdateStatus(ctx, released, model.EscrowPending); !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition for wrong expected status, got %v", err)
		}
		if err := repo.UpdateStatus(ctx, released, model.EscrowHeld); err != nil {
			t.Fatalf("UpdateStatus() returned unexpected error: %v", err)
		}

		missing := released
		missing.ID = testutil.MakeID()
		if err := repo.UpdateStatus(ctx, missing, model.EscrowHeld); !errors.Is(err, apperrors.ErrEscrowPaymentNotFound) {
			t.Errorf("Expected ErrEscrowPaymentNotFound, got %v", err)
		}
	})

	t.Run("released payments are not expired", func(t *testing.T) {
		expired, err := repo.ListExpiredIDs(ctx, testutil.FixedNow.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("ListExpiredIDs() returned unexpected error: %v", err)
		}
		if len(expired) != 0 {
			t.Errorf("Expected no expired payments, got %d", len(expired))
		}
	})
}
