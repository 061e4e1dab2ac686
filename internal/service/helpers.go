package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/ndewijer/Property-Investment-Backend/internal/apperrors"
)

// keyedMutex hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the mutex for key and returns the function that releases it.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// runInTx executes fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// domainErrors pass through the service unchanged.
var domainErrors = []error{
	apperrors.ErrNotFound,
	apperrors.ErrInvalidAmount,
	apperrors.ErrInvalidTransition,
	apperrors.ErrMissingReason,
	apperrors.ErrMissingContact,
	apperrors.ErrOversubscribed,
	apperrors.ErrStaleValue,
	apperrors.ErrInvalidAppreciationModel,
	apperrors.ErrInvalidAppreciationRate,
	apperrors.ErrDivisionByZero,
}

// storeError marks unexpected persistence errors with ErrStoreFailure while
// keeping the underlying error in the chain.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err
		}
	}
	if errors.Is(err, apperrors.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrStoreFailure, err)
}
