// Package session keeps in-progress collection sessions in memory.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/fir"
)

var ErrNotComplete = errors.New("session is not complete")

// Session is one citizen's or officer's walk through a catalog.
type Session struct {
	mu     sync.Mutex
	saveMu sync.Mutex

	ID      string
	Catalog string

	CreatedAt time.Time
	UpdatedAt time.Time

	col       *collector.Collector
	savedID   string
	savedHash string
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID       string           `json:"session_id"`
	Catalog  string           `json:"catalog"`
	State    collector.State  `json:"state"`
	Field    *collector.Field `json:"field,omitempty"`
	Value    any              `json:"value,omitempty"`
	Done     int              `json:"done"`
	Total    int              `json:"total"`
	Document any              `json:"document"`
	SavedID  string           `json:"saved_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submit answers the current field.
func (s *Session) Submit(answer string) error {
	return s.Do(func(c *collector.Collector) error { return c.Submit(answer) })
}

// Skip advances past the current field.
func (s *Session) Skip() error {
	return s.Do(func(c *collector.Collector) error { return c.Skip() })
}

// Back returns to the previous field.
func (s *Session) Back() {
	s.Do(func(c *collector.Collector) error {
		c.Back()
		return nil
	})
}

// Edit writes value at a dotted path without moving.
func (s *Session) Edit(path string, value any) error {
	return s.Do(func(c *collector.Collector) error { return c.Edit(path, value) })
}

// Do runs fn with exclusive access to the session's collector.
func (s *Session) Do(fn func(c *collector.Collector) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.col)
	s.UpdatedAt = time.Now()
	return err
}

// Document returns a deep copy of the document collected so far.
func (s *Session) Document() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return docpath.Clone(s.col.Tree())
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	done, total := s.col.Progress()
	snap := Snapshot{
		ID:        s.ID,
		Catalog:   s.Catalog,
		State:     s.col.State(),
		Done:      done,
		Total:     total,
		Document:  docpath.Clone(s.col.Tree()),
		SavedID:   s.savedID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if f, ok := s.col.Current(); ok {
		snap.Field = &f
		if v, ok := s.col.Value(); ok {
			snap.Value = docpath.Clone(v)
		}
	}
	return snap
}

// Save persists the completed document through save. A document unchanged
// since the last save is not stored again; the earlier id is returned with
// fresh set to false. The session stays readable while save runs; saves of
// one session are serialised.
func (s *Session) Save(ctx context.Context, save func(ctx context.Context, doc any) (string, error)) (id string, fresh bool, err error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.col.Done() {
		s.mu.Unlock()
		return "", false, ErrNotComplete
	}
	doc := docpath.Clone(s.col.Tree())
	savedID, savedHash := s.savedID, s.savedHash
	s.mu.Unlock()

	hash, err := fir.DocumentHash(doc)
	if err != nil {
		return "", false, err
	}
	if savedID != "" && hash == savedHash {
		return savedID, false, nil
	}
	id, err = save(ctx, doc)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	s.savedID, s.savedHash = id, hash
	s.UpdatedAt = time.Now()
	s.mu.Unlock()
	return id, true, nil
}
