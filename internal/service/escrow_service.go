package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Property-Investment-Backend/internal/api/request"
	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/escrow"
	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
	"github.com/ndewijer/Property-Investment-Backend/internal/repository"
)

// EscrowService persists escrow payments and drives them through the escrow machine.
type EscrowService struct {
	db      *sql.DB
	repo    *repository.EscrowRepository
	machine *escrow.Machine
	metrics *metrics.Metrics
}

// NewEscrowService creates a new EscrowService.
func NewEscrowService(db *sql.DB, repo *repository.EscrowRepository, machine *escrow.Machine, m *metrics.Metrics) *EscrowService {
	return &EscrowService{
		db:      db,
		repo:    repo,
		machine: machine,
		metrics: m,
	}
}

// Initiate creates a payment, holding it in escrow unless the request disables escrow.
// The payment and its initial transitions are written together.
func (s *EscrowService) Initiate(ctx context.Context, req request.InitiateEscrowRequest) (model.EscrowPayment, error) {
	enabled := true
	if req.EscrowEnabled != nil {
		enabled = *req.EscrowEnabled
	}

	payment, transitions, err := s.machine.Initiate(escrow.InitiateParams{
		Amount:        req.Amount,
		ContactEmail:  req.ContactEmail,
		EscrowEnabled: enabled,
		Description:   req.Description,
		PayerID:       req.PayerID,
		PropertyID:    req.PropertyID,
		Actor:         req.Actor,
	})
	if err != nil {
		return model.EscrowPayment{}, err
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := repo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		return repo.InsertTransitions(ctx, transitions...)
	})
	if err != nil {
		return model.EscrowPayment{}, storeError(err)
	}

	s.metrics.EscrowTransitions.WithLabelValues(string(payment.Status)).Inc()
	logger.Get().Infow("escrow payment initiated",
		"escrow_payment_id", payment.ID,
		"status", payment.Status,
		"amount", payment.Amount.String(),
		"platform_fee", payment.PlatformFee.String(),
	)

	return payment, nil
}

// Get retrieves an escrow payment.
func (s *EscrowService) Get(ctx context.Context, id string) (model.EscrowPayment, error) {
	payment, err := s.repo.GetPayment(ctx, id)
	return payment, storeError(err)
}

// Transitions returns the payment's transition log, oldest first.
func (s *EscrowService) Transitions(ctx context.Context, id string) ([]model.EscrowTransition, error) {
	if _, err := s.repo.GetPayment(ctx, id); err != nil {
		return nil, storeError(err)
	}
	transitions, err := s.repo.ListTransitions(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return transitions, nil
}

// Contact returns the payer's contact e-mail, opened from its sealed form.
func (s *EscrowService) Contact(ctx context.Context, id string) (string, error) {
	email, err := s.repo.GetContact(ctx, id)
	if err != nil {
		return "", storeError(err)
	}
	return email, nil
}

// Release pays a held payment out to the landlord.
// Returns ErrInvalidTransition unless the payment is held in escrow.
func (s *EscrowService) Release(ctx context.Context, id, actor string) (model.EscrowPayment, error) {
	return s.apply(ctx, id, func(p model.EscrowPayment) (model.EscrowPayment, model.EscrowTransition, error) {
		return s.machine.Release(p, actor)
	})
}

// Dispute freezes a held payment with a reason.
// Returns ErrInvalidTransition unless the payment is held, and ErrMissingReason for a blank reason.
func (s *EscrowService) Dispute(ctx context.Context, id, reason, actor string) (model.EscrowPayment, error) {
	return s.apply(ctx, id, func(p model.EscrowPayment) (model.EscrowPayment, model.EscrowTransition, error) {
		return s.machine.Dispute(p, reason, actor)
	})
}

// ReleaseExpired releases every held payment whose inspection window has
// passed at now, acting as the system. Payments moved concurrently by a user
// are skipped, and a payment that fails to release is logged and skipped so
// the rest of the sweep still runs. Returns the number released.
func (s *EscrowService) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ListExpiredIDs(ctx, now)
	if err != nil {
		return 0, storeError(err)
	}

	released := 0
	var errs []error
	for _, id := range ids {
		_, err := s.Release(ctx, id, escrow.ActorSystem)
		switch {
		case err == nil:
			released++
			s.metrics.EscrowAutoReleased.Inc()
		case errors.Is(err, apperrors.ErrInvalidTransition), errors.Is(err, apperrors.ErrNotFound):
			logger.Get().Infow("skipping auto-release of escrow payment moved concurrently",
				"escrow_payment_id", id)
		default:
			logger.Get().Warnw("failed to auto-release escrow payment",
				"escrow_payment_id", id, "error", err)
			errs = append(errs, fmt.Errorf("failed to release %s: %w", id, err))
		}
	}

	return released, errors.Join(errs...)
}

// apply loads the payment, computes the next state with step and persists it.
// The status write is guarded by the status step saw, so of two racing
// transitions only one can commit; the other gets ErrInvalidTransition.
func (s *EscrowService) apply(ctx context.Context, id string, step func(model.EscrowPayment) (model.EscrowPayment, model.EscrowTransition, error)) (model.EscrowPayment, error) {
	var next model.EscrowPayment
	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetPayment(ctx, id)
		if err != nil {
			return err
		}

		var transition model.EscrowTransition
		next, transition, err = step(current)
		if err != nil {
			return err
		}

		if err := repo.UpdateStatus(ctx, next, current.Status); err != nil {
			return err
		}
		return repo.InsertTransitions(ctx, transition)
	})
	if err != nil {
		return model.EscrowPayment{}, storeError(err)
	}

	s.metrics.EscrowTransitions.WithLabelValues(string(next.Status)).Inc()
	logger.Get().Infow("escrow payment transitioned",
		"escrow_payment_id", next.ID,
		"status", next.Status,
	)

	return next, nil
}
