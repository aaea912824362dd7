package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/firdesk/internal/config"
	"github.com/dgallion1/firdesk/internal/pathstore"
	"github.com/dgallion1/firdesk/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "firdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

// fakePathstore is an in-memory stand-in for the pathstore /kv API.
type fakePathstore struct {
	mu    sync.Mutex
	nodes map[string]any
	fail  int
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodPut:
		var req pathstore.NodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var nodes []pathstore.Node
		for k, v := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				nodes = append(nodes, pathstore.Node{Key: k, Value: v})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
	default:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(pathstore.Node{Key: key, Value: v})
	}
}

func setupPathstore(t *testing.T) (*PathstoreStore, *fakePathstore) {
	t.Helper()
	fake := &fakePathstore{nodes: map[string]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s := NewPathstoreStore(pathstore.NewClient(srv.URL, "key")).
		WithRetry(retry.Policy{Attempts: 3, Wait: func(int) time.Duration { return 0 }})
	return s, fake
}

func backends(t *testing.T) map[string]Store {
	ps, _ := setupPathstore(t)
	return map[string]Store{
		"sqlite":    setupSQLite(t),
		"pathstore": ps,
	}
}

func report(station string) map[string]any {
	return map[string]any{
		"meta":                 map[string]any{"district": "Brihanmumbai City", "policeStation": station},
		"accused":              []any{map[string]any{"name": "A"}},
		"totalValueOfProperty": float64(1900),
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := s.Save(ctx, report("Agripada"))
			require.NoError(t, err)
			require.Len(t, id, 36)

			rec, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, rec.ID)
			assert.Len(t, rec.Hash, 64)
			assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
			assert.Equal(t, report("Agripada"), rec.Document)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var ids []string
			for _, station := range []string{"Agripada", "Byculla", "Colaba"} {
				id, err := s.Save(ctx, report(station))
				require.NoError(t, err)
				ids = append(ids, id)
				time.Sleep(2 * time.Millisecond)
			}

			recs, err := s.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, ids[2], recs[0].ID)
			assert.Equal(t, ids[1], recs[1].ID)

			recs, err = s.Recent(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, recs, 3)
		})
	}
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firdesk.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	id, err := s.Save(context.Background(), report("Agripada"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestSQLite_ClosedIsPersistenceError(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "firdesk.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Save(context.Background(), report("Agripada"))
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "save", pe.Op)
}

func TestPathstore_RetriesAndStoresUnderPrefix(t *testing.T) {
	s, fake := setupPathstore(t)
	fake.fail = 2

	id, err := s.Save(context.Background(), report("Agripada"))
	require.NoError(t, err)
	_, ok := fake.nodes[ReportPrefix+"/"+id]
	assert.True(t, ok)
}

func TestPathstore_UnavailableIsPersistenceError(t *testing.T) {
	s, fake := setupPathstore(t)
	fake.fail = 10

	_, err := s.Save(context.Background(), report("Agripada"))
	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.True(t, retry.IsRetryable(err))
}

func TestOpen(t *testing.T) {
	s, err := Open(config.Config{StoreBackend: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(config.Config{StoreBackend: "pathstore", PathstoreURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.IsType(t, &PathstoreStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.Config{StoreBackend: "redis"})
	assert.Error(t, err)
}
