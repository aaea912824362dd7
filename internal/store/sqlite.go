package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/store/schema"
	"github.com/google/uuid"
)

// SQLiteStore keeps reports in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fail("open", fmt.Errorf("creating data directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fail("open", err)
	}
	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(schema.FS); err != nil {
		db.Close()
		return nil, fail("migrate", err)
	}
	return s, nil
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save stores doc under a new id.
func (s *SQLiteStore) Save(ctx context.Context, doc map[string]any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fail("save", fmt.Errorf("encode document: %w", err))
	}
	id := uuid.NewString()
	district, _ := docpath.Get(doc, "meta.district")
	station, _ := docpath.Get(doc, "meta.policeStation")

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, created_at, content_hash, district, station, document)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), fir.ContentHashHex(data), text(district), text(station), string(data))
	if err != nil {
		return "", fail("save", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, content_hash, document FROM reports WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fail("get", err)
	}
	return rec, nil
}

// Recent returns the newest reports first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, content_hash, document FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, fail("recent", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fail("recent", err)
		}
		records = append(records, *rec)
	}
	return records, fail("recent", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec  Record
		data string
	)
	if err := sc.Scan(&rec.ID, &rec.CreatedAt, &rec.Hash, &data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Document); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func text(v any) string {
	s, _ := v.(string)
	return s
}
