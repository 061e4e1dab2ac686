package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// SaleRepository provides data access methods for the investment_sale ledger.
type SaleRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSaleRepository creates a new SaleRepository with the provided database connection.
func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// WithTx returns a new SaleRepository scoped to the provided transaction.
func (r *SaleRepository) WithTx(tx *sql.Tx) *SaleRepository {
	return &SaleRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SaleRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertSale records a liquidated investment.
func (r *SaleRepository) InsertSale(ctx context.Context, sale model.InvestmentSale) error {
	query := `
		INSERT INTO investment_sale (
			id, investment_id, user_id, investment_property_id, investment_amount,
			shares, realized_value, realized_gain_loss, sold_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		sale.ID,
		sale.InvestmentID,
		sale.UserID,
		sale.InvestmentPropertyID,
		sale.InvestmentAmount.String(),
		sale.Shares.String(),
		sale.RealizedValue.String(),
		sale.RealizedGainLoss.String(),
		formatTime(sale.SoldAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert investment sale: %w", err)
	}
	return nil
}

// ListSalesByUser returns the user's sales, oldest first.
func (r *SaleRepository) ListSalesByUser(ctx context.Context, userID string) ([]model.InvestmentSale, error) {
	query := `
		SELECT id, investment_id, user_id, investment_property_id, investment_amount,
			shares, realized_value, realized_gain_loss, sold_at
		FROM investment_sale
		WHERE user_id = ?
		ORDER BY sold_at, id
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment sales: %w", err)
	}
	defer rows.Close()

	sales := []model.InvestmentSale{}
	for rows.Next() {
		var s model.InvestmentSale
		var amountStr, sharesStr, valueStr, gainStr, soldStr string
		if err := rows.Scan(
			&s.ID,
			&s.InvestmentID,
			&s.UserID,
			&s.InvestmentPropertyID,
			&amountStr,
			&sharesStr,
			&valueStr,
			&gainStr,
			&soldStr,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investment sale: %w", err)
		}

		if s.InvestmentAmount, err = parseDecimal("investment_amount", amountStr); err != nil {
			return nil, err
		}
		if s.Shares, err = parseDecimal("shares", sharesStr); err != nil {
			return nil, err
		}
		if s.RealizedValue, err = parseDecimal("realized_value", valueStr); err != nil {
			return nil, err
		}
		if s.RealizedGainLoss, err = parseDecimal("realized_gain_loss", gainStr); err != nil {
			return nil, err
		}
		if s.SoldAt, err = ParseTime(soldStr); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment sales: %w", err)
	}

	return sales, nil
}
