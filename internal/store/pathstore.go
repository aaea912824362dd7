package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgallion1/firdesk/internal/fir"
	"github.com/dgallion1/firdesk/internal/pathstore"
	"github.com/dgallion1/firdesk/internal/retry"
	"github.com/google/uuid"
)

// ReportPrefix is where reports live in pathstore: fir/reports/{id}.
const ReportPrefix = "fir/reports"

// PathstoreStore keeps reports in a remote pathstore service.
type PathstoreStore struct {
	client *pathstore.Client
	retry  retry.Policy
}

var _ Store = (*PathstoreStore)(nil)

func NewPathstoreStore(client *pathstore.Client) *PathstoreStore {
	return &PathstoreStore{client: client, retry: retry.Default}
}

// WithRetry replaces the retry policy.
func (s *PathstoreStore) WithRetry(p retry.Policy) *PathstoreStore {
	s.retry = p
	return s
}

func (s *PathstoreStore) Save(ctx context.Context, doc map[string]any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fail("save", fmt.Errorf("encode document: %w", err))
	}
	id := uuid.NewString()
	value := map[string]any{
		"id":           id,
		"created_at":   time.Now().UTC().Format(time.RFC3339Nano),
		"content_hash": fir.ContentHashHex(data),
		"document":     doc,
	}
	err = s.retry.Do(ctx, "pathstore save", func(ctx context.Context) error {
		return s.client.PutNode(ctx, ReportPrefix+"/"+id, pathstore.NodeRequest{
			Value:  value,
			Source: "firdesk",
		})
	})
	if err != nil {
		return "", fail("save", err)
	}
	return id, nil
}

func (s *PathstoreStore) Get(ctx context.Context, id string) (*Record, error) {
	var node *pathstore.Node
	err := s.retry.Do(ctx, "pathstore get", func(ctx context.Context) error {
		var err error
		node, err = s.client.GetNode(ctx, ReportPrefix+"/"+id)
		return err
	})
	if err != nil {
		return nil, fail("get", err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	rec, err := recordFrom(node.Value)
	if err != nil {
		return nil, fail("get", err)
	}
	return rec, nil
}

// Recent scans every report under ReportPrefix and returns the newest.
// TODO: push ordering and limit into pathstore once it supports sorted scans.
func (s *PathstoreStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	var nodes []pathstore.Node
	err := s.retry.Do(ctx, "pathstore list", func(ctx context.Context) error {
		var err error
		nodes, err = s.client.ListChildren(ctx, ReportPrefix, 0)
		return err
	})
	if err != nil {
		return nil, fail("recent", err)
	}

	records := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		rec, err := recordFrom(n.Value)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit = clampLimit(limit); len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *PathstoreStore) Close() error {
	s.client.Close()
	return nil
}

func recordFrom(value any) (*Record, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.ID == "" {
		return nil, fmt.Errorf("decode record: missing id")
	}
	return &rec, nil
}
