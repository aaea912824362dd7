// Package store persists normalised FIR documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("report not found")

// DefaultRecent is how many reports a listing returns when no limit is given.
const DefaultRecent = 20

// Record is a stored report.
type Record struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Hash      string         `json:"content_hash,omitempty"`
	Document  map[string]any `json:"document"`
}

// Store saves and retrieves reports. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, doc map[string]any) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func fail(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecent
	}
	return limit
}
