package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
	"github.com/ndewijer/Property-Investment-Backend/internal/model"
)

// PropertyRepository provides data access methods for the property table.
type PropertyRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPropertyRepository creates a new PropertyRepository with the provided database connection.
func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// WithTx returns a new PropertyRepository scoped to the provided transaction.
func (r *PropertyRepository) WithTx(tx *sql.Tx) *PropertyRepository {
	return &PropertyRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *PropertyRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertProperty stores a new property listing.
func (r *PropertyRepository) InsertProperty(ctx context.Context, p model.Property) error {
	query := `
		INSERT INTO property (id, title, location, agent_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().ExecContext(ctx, query,
		p.ID,
		p.Title,
		p.Location,
		p.AgentID,
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// GetProperty retrieves a property by ID.
// Returns ErrPropertyNotFound if no property with the given ID exists.
func (r *PropertyRepository) GetProperty(ctx context.Context, id string) (model.Property, error) {
	query := `
		SELECT id, title, location, agent_id, created_at
		FROM property
		WHERE id = ?
	`

	var p model.Property
	var createdStr string
	err := r.getQuerier().QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Location,
		&p.AgentID,
		&createdStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, apperrors.ErrPropertyNotFound
	}
	if err != nil {
		return model.Property{}, fmt.Errorf("failed to get property: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdStr)
	if err != nil {
		return model.Property{}, err
	}
	return p, nil
}
