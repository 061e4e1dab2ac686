package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// ContactSealer encrypts contact details before they reach the database.
type ContactSealer interface {
	Seal(plaintext string) (string, error)
	Open(token string) (string, error)
}

// EscrowRepository provides data access methods for escrow payments and their transition log.
type EscrowRepository struct {
	db     *sql.DB
	tx     *sql.Tx
	sealer ContactSealer
}

// NewEscrowRepository creates a new EscrowRepository. Contact e-mails are
// sealed with sealer on write and only opened by GetContact.
func NewEscrowRepository(db *sql.DB, sealer ContactSealer) *EscrowRepository {
	return &EscrowRepository{db: db, sealer: sealer}
}

// WithTx returns a new EscrowRepository scoped to the provided transaction.
func (r *EscrowRepository) WithTx(tx *sql.Tx) *EscrowRepository {
	return &EscrowRepository{
		db:     r.db,
		tx:     tx,
		sealer: r.sealer,
	}
}

func (r *EscrowRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const escrowPaymentColumns = `
	id, amount, platform_fee_rate, platform_fee, landlord_amount, status,
	dispute_reason, description, payer_id, property_id,
	escrow_enabled, inspection_deadline, created_at, updated_at
`

// scanPayment leaves ContactEmail empty; payment reads never need it.

func (r *EscrowRepository) scanPayment(row rowScanner) (model.EscrowPayment, error) {
	var p model.EscrowPayment
	var amountStr, rateStr, feeStr, landlordStr, createdStr, updatedStr string
	var reason, deadlineStr sql.NullString

	err := row.Scan(
		&p.ID,
		&amountStr,
		&rateStr,
		&feeStr,
		&landlordStr,
		&p.Status,
		&reason,
		&p.Description,
		&p.PayerID,
		&p.PropertyID,
		&p.EscrowEnabled,
		&deadlineStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return model.EscrowPayment{}, err
	}

	if p.Amount, err = parseDecimal("amount", amountStr); err != nil {
		return model.EscrowPayment{}, err
	}
	if p.PlatformFeeRate, err = parseDecimal("platform_fee_rate", rateStr); err != nil {
		return model.EscrowPayment{}, err
	}
	if p.PlatformFee, err = parseDecimal("platform_fee", feeStr); err != nil {
		return model.EscrowPayment{}, err
	}
	if p.LandlordAmount, err = parseDecimal("landlord_amount", landlordStr); err != nil {
		return model.EscrowPayment{}, err
	}
	p.DisputeReason = reason.String
	if p.InspectionDeadline, err = parseNullTime(deadlineStr); err != nil {
		return model.EscrowPayment{}, err
	}
	if p.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.EscrowPayment{}, err
	}
	if p.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.EscrowPayment{}, err
	}

	return p, nil
}

// InsertPayment stores a new escrow payment.
func (r *EscrowRepository) InsertPayment(ctx context.Context, p model.EscrowPayment) error {
	sealedEmail, err := r.sealer.Seal(p.ContactEmail)
	if err != nil {
		return err
	}

	var deadline sql.NullString
	if p.InspectionDeadline != nil {
		deadline = sql.NullString{String: formatTime(*p.InspectionDeadline), Valid: true}
	}
	var reason sql.NullString
	if p.DisputeReason != "" {
		reason = sql.NullString{String: p.DisputeReason, Valid: true}
	}

	query := `
		INSERT INTO escrow_payment (contact_email, ` + escrowPaymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.getQuerier().ExecContext(ctx, query,
		sealedEmail,
		p.ID,
		p.Amount.String(),
		p.PlatformFeeRate.String(),
		p.PlatformFee.String(),
		p.LandlordAmount.String(),
		p.Status,
		reason,
		p.Description,
		p.PayerID,
		p.PropertyID,
		p.EscrowEnabled,
		deadline,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert escrow payment: %w", err)
	}
	return nil
}

// GetPayment retrieves an escrow payment by ID.
// Returns ErrEscrowPaymentNotFound if no payment with the given ID exists.
func (r *EscrowRepository) GetPayment(ctx context.Context, id string) (model.EscrowPayment, error) {
	query := `SELECT ` + escrowPaymentColumns + ` FROM escrow_payment WHERE id = ?`

	p, err := r.scanPayment(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.EscrowPayment{}, apperrors.ErrEscrowPaymentNotFound
	}
	if err != nil {
		return model.EscrowPayment{}, fmt.Errorf("failed to get escrow payment: %w", err)
	}
	return p, nil
}

// GetContact opens the sealed contact e-mail of a payment.
// Returns ErrEscrowPaymentNotFound if no payment with the given ID exists.
func (r *EscrowRepository) GetContact(ctx context.Context, id string) (string, error) {
	var sealed string
	err := r.getQuerier().QueryRowContext(ctx, `SELECT contact_email FROM escrow_payment WHERE id = ?`, id).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrEscrowPaymentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get escrow contact: %w", err)
	}

	email, err := r.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to open contact email of escrow payment %s: %w", id, err)
	}
	return email, nil
}

// UpdateStatus writes the payment's status, dispute reason and update time,
// provided the stored status still equals expected. When another writer moved
// the payment first, ErrInvalidTransition is returned and nothing changes.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, p model.EscrowPayment, expected model.EscrowStatus) error {
	var reason sql.NullString
	if p.DisputeReason != "" {
		reason = sql.NullString{String: p.DisputeReason, Valid: true}
	}

	query := `
		UPDATE escrow_payment
		SET status = ?, dispute_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, p.Status, reason, formatTime(p.UpdatedAt), p.ID, expected)
	if err != nil {
		return fmt.Errorf("failed to update escrow payment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := r.getQuerier().QueryRowContext(ctx, `SELECT 1 FROM escrow_payment WHERE id = ?`, p.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrEscrowPaymentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check escrow payment: %w", err)
		}
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// InsertTransitions appends entries to the payment transition log in the given order.
func (r *EscrowRepository) InsertTransitions(ctx context.Context, transitions ...model.EscrowTransition) error {
	query := `
		INSERT INTO escrow_transition (id, escrow_payment_id, from_status, to_status, actor, reason, occurred_at, seq)
		SELECT ?, ?, ?, ?, ?, ?, ?, COALESCE(MAX(seq), 0) + 1
		FROM escrow_transition
		WHERE escrow_payment_id = ?
	`

	for _, t := range transitions {
		_, err := r.getQuerier().ExecContext(ctx, query,
			t.ID,
			t.EscrowPaymentID,
			t.FromStatus,
			t.ToStatus,
			t.Actor,
			t.Reason,
			formatTime(t.OccurredAt),
			t.EscrowPaymentID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert escrow transition: %w", err)
		}
	}
	return nil
}

// ListTransitions returns a payment's transition log in the order it was written.
func (r *EscrowRepository) ListTransitions(ctx context.Context, paymentID string) ([]model.EscrowTransition, error) {
	query := `
		SELECT id, escrow_payment_id, from_status, to_status, actor, reason, occurred_at
		FROM escrow_transition
		WHERE escrow_payment_id = ?
		ORDER BY seq
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escrow transitions: %w", err)
	}
	defer rows.Close()

	transitions := []model.EscrowTransition{}
	for rows.Next() {
		var t model.EscrowTransition
		var occurredStr string
		if err := rows.Scan(&t.ID, &t.EscrowPaymentID, &t.FromStatus, &t.ToStatus, &t.Actor, &t.Reason, &occurredStr); err != nil {
			return nil, fmt.Errorf("failed to scan escrow transition: %w", err)
		}
		if t.OccurredAt, err = ParseTime(occurredStr); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escrow transitions: %w", err)
	}

	return transitions, nil
}

// ListExpiredIDs returns the IDs of held payments whose inspection deadline
// is at or before now, earliest deadline first.
func (r *EscrowRepository) ListExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id
		FROM escrow_payment
		WHERE status = ? AND inspection_deadline IS NOT NULL AND inspection_deadline <= ?
		ORDER BY inspection_deadline, id
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, model.EscrowHeld, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query expired escrow payments: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan escrow payment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escrow payments: %w", err)
	}

	return ids, nil
}
