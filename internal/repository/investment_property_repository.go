package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// InvestmentPropertyRepository provides data access methods for the investment_property table.
type InvestmentPropertyRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewInvestmentPropertyRepository creates a new InvestmentPropertyRepository with the provided database connection.
func NewInvestmentPropertyRepository(db *sql.DB) *InvestmentPropertyRepository {
	return &InvestmentPropertyRepository{db: db}
}

// WithTx returns a new InvestmentPropertyRepository scoped to the provided transaction.
func (r *InvestmentPropertyRepository) WithTx(tx *sql.Tx) *InvestmentPropertyRepository {
	return &InvestmentPropertyRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *InvestmentPropertyRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const investmentPropertyColumns = `
	ip.id, ip.property_id, ip.initial_value, ip.current_value,
	ip.appreciation_model, ip.appreciation_rate, ip.last_update_date,
	ip.version, ip.created_at,
	p.id, p.title, p.location, p.agent_id, p.created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanInvestmentProperty reads the columns listed in investmentPropertyColumns.
// Destinations for columns selected before them are passed as leading.
func scanInvestmentProperty(row rowScanner, leading ...any) (model.InvestmentProperty, error) {
	var ip model.InvestmentProperty
	var initialStr, currentStr, lastUpdateStr, createdStr, propertyCreatedStr string
	var rateStr sql.NullString

	dest := append(leading,
		&ip.ID,
		&ip.PropertyID,
		&initialStr,
		&currentStr,
		&ip.AppreciationModel,
		&rateStr,
		&lastUpdateStr,
		&ip.Version,
		&createdStr,
		&ip.Property.ID,
		&ip.Property.Title,
		&ip.Property.Location,
		&ip.Property.AgentID,
		&propertyCreatedStr,
	)
	err := row.Scan(dest...)
	if err != nil {
		return model.InvestmentProperty{}, err
	}

	if ip.InitialValue, err = parseDecimal("initial_value", initialStr); err != nil {
		return model.InvestmentProperty{}, err
	}
	if ip.CurrentValue, err = parseDecimal("current_value", currentStr); err != nil {
		return model.InvestmentProperty{}, err
	}
	if rateStr.Valid {
		rate, err := parseDecimal("appreciation_rate", rateStr.String)
		if err != nil {
			return model.InvestmentProperty{}, err
		}
		ip.AppreciationRate = &rate
	}
	if ip.LastUpdateDate, err = ParseTime(lastUpdateStr); err != nil {
		return model.InvestmentProperty{}, err
	}
	if ip.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.InvestmentProperty{}, err
	}
	if ip.Property.CreatedAt, err = ParseTime(propertyCreatedStr); err != nil {
		return model.InvestmentProperty{}, err
	}

	return ip, nil
}

func (r *InvestmentPropertyRepository) queryInvestmentProperties(ctx context.Context, query string, args ...any) ([]model.InvestmentProperty, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investment properties: %w", err)
	}
	defer rows.Close()

	properties := []model.InvestmentProperty{}
	for rows.Next() {
		ip, err := scanInvestmentProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment property: %w", err)
		}
		properties = append(properties, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investment properties: %w", err)
	}

	return properties, nil
}

// GetInvestmentProperty retrieves an investment property with its listing.
// Returns ErrInvestmentPropertyNotFound if no investment property with the given ID exists.
func (r *InvestmentPropertyRepository) GetInvestmentProperty(ctx context.Context, id string) (model.InvestmentProperty, error) {
	query := `
		SELECT ` + investmentPropertyColumns + `
		FROM investment_property ip
		JOIN property p ON p.id = ip.property_id
		WHERE ip.id = ?
	`

	ip, err := scanInvestmentProperty(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.InvestmentProperty{}, apperrors.ErrInvestmentPropertyNotFound
	}
	if err != nil {
		return model.InvestmentProperty{}, fmt.Errorf("failed to get investment property: %w", err)
	}
	return ip, nil
}

// ListInvestmentProperties returns every investment property, newest first.
func (r *InvestmentPropertyRepository) ListInvestmentProperties(ctx context.Context) ([]model.InvestmentProperty, error) {
	query := `
		SELECT ` + investmentPropertyColumns + `
		FROM investment_property ip
		JOIN property p ON p.id = ip.property_id
		ORDER BY ip.created_at DESC, ip.id
	`
	return r.queryInvestmentProperties(ctx, query)
}

// ListInvestmentPropertiesExcludingUser returns the investment properties in
// which userID holds no investment, newest first.
func (r *InvestmentPropertyRepository) ListInvestmentPropertiesExcludingUser(ctx context.Context, userID string) ([]model.InvestmentProperty, error) {
	query := `
		SELECT ` + investmentPropertyColumns + `
		FROM investment_property ip
		JOIN property p ON p.id = ip.property_id
		WHERE NOT EXISTS (
			SELECT 1 FROM user_investment ui
			WHERE ui.investment_property_id = ip.id AND ui.user_id = ?
		)
		ORDER BY ip.created_at DESC, ip.id
	`
	return r.queryInvestmentProperties(ctx, query, userID)
}

// ListDueForAppreciation returns fixed-model properties last updated at or before cutoff.
func (r *InvestmentPropertyRepository) ListDueForAppreciation(ctx context.Context, cutoff time.Time) ([]model.InvestmentProperty, error) {
	query := `
		SELECT ` + investmentPropertyColumns + `
		FROM investment_property ip
		JOIN property p ON p.id = ip.property_id
		WHERE ip.appreciation_model = ? AND ip.last_update_date <= ?
		ORDER BY ip.last_update_date, ip.id
	`
	return r.queryInvestmentProperties(ctx, query, model.AppreciationFixed, formatTime(cutoff))
}

// InsertInvestmentProperty stores a new investment property.
func (r *InvestmentPropertyRepository) InsertInvestmentProperty(ctx context.Context, ip model.InvestmentProperty) error {
	query := `
		INSERT INTO investment_property (
			id, property_id, initial_value, current_value, appreciation_model,
			appreciation_rate, last_update_date, version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var rate sql.NullString
	if ip.AppreciationRate != nil {
		rate = sql.NullString{String: ip.AppreciationRate.String(), Valid: true}
	}

	_, err := r.getQuerier().ExecContext(ctx, query,
		ip.ID,
		ip.PropertyID,
		ip.InitialValue.String(),
		ip.CurrentValue.String(),
		ip.AppreciationModel,
		rate,
		formatTime(ip.LastUpdateDate),
		ip.Version,
		formatTime(ip.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert investment property: %w", err)
	}
	return nil
}

// UpdateValue sets the current value and last update date and bumps the version.
// The write only applies when the stored version still equals expectedVersion;
// otherwise ErrStaleValue is returned and nothing changes. Returns the new version.
func (r *InvestmentPropertyRepository) UpdateValue(ctx context.Context, id string, value decimal.Decimal, at time.Time, expectedVersion int64) (int64, error) {
	query := `
		UPDATE investment_property
		SET current_value = ?, last_update_date = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := r.getQuerier().ExecContext(ctx, query, value.String(), formatTime(at), id, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to update investment property value: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetInvestmentProperty(ctx, id); err != nil {
			return 0, err
		}
		return 0, apperrors.ErrStaleValue
	}

	return expectedVersion + 1, nil
}

// DeleteInvestmentProperty removes an investment property. Its investments and
// value history are removed by the foreign key cascade.
// Returns ErrInvestmentPropertyNotFound if no investment property with the given ID exists.
func (r *InvestmentPropertyRepository) DeleteInvestmentProperty(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM investment_property WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete investment property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrInvestmentPropertyNotFound
	}
	return nil
}
