package llm

import (
	"context"
	"slices"
	"sync"
	"time"
)

type call struct {
	at     time.Time
	ms     int64
	failed bool
}

// StatsSnapshot aggregates the model calls still inside the window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Stats keeps model call latencies for a rolling window.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 256),
		window: window,
		now:    time.Now,
	}
}

// Record adds one call. Failed calls count toward Errors and latency alike.
func (s *Stats) Record(d time.Duration, err error) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{at: now, ms: ms, failed: err != nil})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(s.calls))
	var sum int64
	var failed int
	for _, c := range s.calls {
		values = append(values, c.ms)
		sum += c.ms
		if c.failed {
			failed++
		}
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count:  len(values),
		Errors: failed,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
		P99Ms:  percentile(values, 99),
	}
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}

// Instrumented records every Generate call on a Stats window.
type Instrumented struct {
	Generator
	stats *Stats
}

func Instrument(g Generator, stats *Stats) *Instrumented {
	return &Instrumented{Generator: g, stats: stats}
}

func (i *Instrumented) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := i.Generator.Generate(ctx, req)
	i.stats.Record(time.Since(start), err)
	return resp, err
}

func (i *Instrumented) Stats() StatsSnapshot {
	return i.stats.Snapshot()
}
