package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// ValueHistoryRepository provides data access methods for the append-only
// property_value_history table.
type ValueHistoryRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewValueHistoryRepository creates a new ValueHistoryRepository with the provided database connection.
func NewValueHistoryRepository(db *sql.DB) *ValueHistoryRepository {
	return &ValueHistoryRepository{db: db}
}

// WithTx returns a new ValueHistoryRepository scoped to the provided transaction.
func (r *ValueHistoryRepository) WithTx(tx *sql.Tx) *ValueHistoryRepository {
	return &ValueHistoryRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ValueHistoryRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertValuePoint appends a point to an investment property's value series.
func (r *ValueHistoryRepository) InsertValuePoint(ctx context.Context, point model.PropertyValueHistory) error {
	query := `
		INSERT INTO property_value_history (id, investment_property_id, property_value, value_date)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		point.ID,
		point.InvestmentPropertyID,
		point.PropertyValue.String(),
		formatTime(point.ValueDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert value history: %w", err)
	}
	return nil
}

// ListValueHistory returns the history points of the given investment
// properties ordered by value date. An empty ID list yields no points.
func (r *ValueHistoryRepository) ListValueHistory(ctx context.Context, investmentPropertyIDs []string) ([]model.PropertyValueHistory, error) {
	if len(investmentPropertyIDs) == 0 {
		return []model.PropertyValueHistory{}, nil
	}

	args := make([]any, len(investmentPropertyIDs))
	for i, id := range investmentPropertyIDs {
		args[i] = id
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT id, investment_property_id, property_value, value_date
		FROM property_value_history
		WHERE investment_property_id IN (` + placeholders(len(investmentPropertyIDs)) + `)
		ORDER BY value_date, id
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query value history: %w", err)
	}
	defer rows.Close()

	history := []model.PropertyValueHistory{}
	for rows.Next() {
		var point model.PropertyValueHistory
		var valueStr, dateStr string
		if err := rows.Scan(&point.ID, &point.InvestmentPropertyID, &valueStr, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan value history: %w", err)
		}
		if point.PropertyValue, err = parseDecimal("property_value", valueStr); err != nil {
			return nil, err
		}
		if point.ValueDate, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		history = append(history, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value history: %w", err)
	}

	return history, nil
}
