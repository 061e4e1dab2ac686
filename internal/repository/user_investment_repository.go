package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// UserInvestmentRepository provides data access methods for the user_investment table.
type UserInvestmentRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUserInvestmentRepository creates a new UserInvestmentRepository with the provided database connection.
func NewUserInvestmentRepository(db *sql.DB) *UserInvestmentRepository {
	return &UserInvestmentRepository{db: db}
}

// WithTx returns a new UserInvestmentRepository scoped to the provided transaction.
func (r *UserInvestmentRepository) WithTx(tx *sql.Tx) *UserInvestmentRepository {
	return &UserInvestmentRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *UserInvestmentRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const userInvestmentSelect = `
	SELECT ui.id, ui.user_id, ui.investment_property_id, ui.investment_amount,
		ui.shares, ui.investment_date, ` + investmentPropertyColumns + `
	FROM user_investment ui
	JOIN investment_property ip ON ip.id = ui.investment_property_id
	JOIN property p ON p.id = ip.property_id
`

func scanUserInvestment(row rowScanner) (model.UserInvestment, error) {
	var ui model.UserInvestment
	var amountStr, sharesStr, dateStr string

	ip, err := scanInvestmentProperty(row,
		&ui.ID,
		&ui.UserID,
		&ui.InvestmentPropertyID,
		&amountStr,
		&sharesStr,
		&dateStr,
	)
	if err != nil {
		return model.UserInvestment{}, err
	}

	if ui.InvestmentAmount, err = parseDecimal("investment_amount", amountStr); err != nil {
		return model.UserInvestment{}, err
	}
	if ui.Shares, err = parseDecimal("shares", sharesStr); err != nil {
		return model.UserInvestment{}, err
	}
	if ui.InvestmentDate, err = ParseTime(dateStr); err != nil {
		return model.UserInvestment{}, err
	}

	ui.InvestmentProperty = ip
	return ui, nil
}

// ListUserInvestments returns the user's investments joined with their
// investment property and listing, oldest first.
func (r *UserInvestmentRepository) ListUserInvestments(ctx context.Context, userID string) ([]model.UserInvestment, error) {
	query := userInvestmentSelect + `
		WHERE ui.user_id = ?
		ORDER BY ui.investment_date, ui.id
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user investments: %w", err)
	}
	defer rows.Close()

	investments := []model.UserInvestment{}
	for rows.Next() {
		ui, err := scanUserInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user investment: %w", err)
		}
		investments = append(investments, ui)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user investments: %w", err)
	}

	return investments, nil
}

// GetUserInvestment retrieves one investment with its investment property.
// Returns ErrInvestmentNotFound if the investment does not exist.
func (r *UserInvestmentRepository) GetUserInvestment(ctx context.Context, id string) (model.UserInvestment, error) {
	query := userInvestmentSelect + `WHERE ui.id = ?`

	ui, err := scanUserInvestment(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserInvestment{}, apperrors.ErrInvestmentNotFound
	}
	if err != nil {
		return model.UserInvestment{}, fmt.Errorf("failed to get user investment: %w", err)
	}
	return ui, nil
}

// InsertUserInvestment stores a new investment.
func (r *UserInvestmentRepository) InsertUserInvestment(ctx context.Context, ui model.UserInvestment) error {
	query := `
		INSERT INTO user_investment (id, user_id, investment_property_id, investment_amount, shares, investment_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		ui.ID,
		ui.UserID,
		ui.InvestmentPropertyID,
		ui.InvestmentAmount.String(),
		ui.Shares.String(),
		formatTime(ui.InvestmentDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user investment: %w", err)
	}
	return nil
}

// DeleteUserInvestment removes an investment.
// Returns ErrInvestmentNotFound if it was already removed.
func (r *UserInvestmentRepository) DeleteUserInvestment(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM user_investment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user investment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrInvestmentNotFound
	}
	return nil
}

// SumShares returns the total outstanding shares of an investment property.
// Shares are stored as decimal text, so the sum is taken in Go rather than SQL.
func (r *UserInvestmentRepository) SumShares(ctx context.Context, investmentPropertyID string) (decimal.Decimal, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT shares FROM user_investment WHERE investment_property_id = ?`, investmentPropertyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query shares: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var sharesStr string
		if err := rows.Scan(&sharesStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan shares: %w", err)
		}
		shares, err := parseDecimal("shares", sharesStr)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(shares)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating shares: %w", err)
	}

	return total, nil
}
