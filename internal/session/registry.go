package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/firdesk/internal/catalog"
	"github.com/dgallion1/firdesk/internal/collector"
	"github.com/google/uuid"
)

// Registry is a thread-safe in-memory session registry with TTL eviction.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	opts     []collector.Option
	log      *slog.Logger
}

func NewRegistry(ttl time.Duration, log *slog.Logger, opts ...collector.Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		opts:     opts,
		log:      log,
	}
}

// Create starts a session over cat, seeded with its defaults.
func (r *Registry) Create(cat *catalog.Catalog) (*Session, error) {
	col, err := cat.Collector(r.opts...)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Catalog:   cat.Name,
		CreatedAt: now,
		UpdatedAt: now,
		col:       col,
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Info("session created", "session_id", s.ID, "catalog", cat.Name)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete discards a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many
// were evicted. The registry lock is not held while sessions are inspected.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	now := time.Now()
	var idle []*Session
	for _, s := range sessions {
		s.mu.Lock()
		updated := s.UpdatedAt
		s.mu.Unlock()
		if now.Sub(updated) > r.ttl {
			idle = append(idle, s)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for _, s := range idle {
		if r.sessions[s.ID] == s {
			delete(r.sessions, s.ID)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 {
				r.log.Info("evicted idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}
