package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/devanalytics/devanalytics/internal/store"
	"github.com/devanalytics/devanalytics/schema"
	"golang.org/x/sync/singleflight"
)

// Facade exposes read-only access to aggregated indicators. A store miss
// computes the snapshot from the repository history, persists it, then
// returns it (read-through). Concurrent requests for the same cold key
// coalesce into a single computation via singleflight, so callers never
// observe a partially computed snapshot and cold keys are computed once.
type Facade struct {
	store    store.Store
	history  *History
	window   schema.WindowSize
	topN     int
	group    singleflight.Group
	computes atomic.Int64
}

// NewFacade creates a query facade over a store and a shared history.
func NewFacade(st store.Store, h *History, window schema.WindowSize, topN int) *Facade {
	return &Facade{
		store:   st,
		history: h,
		window:  window,
		topN:    topN,
	}
}

// Query returns one snapshot per window overlapping the half-open range
// [from, to), in window order. A zero 'from' starts at the repository's
// first commit; a zero 'to' ends now.
func (f *Facade) Query(ctx context.Context, repoID string, from, to time.Time) ([]schema.MetricSnapshot, error) {
	if from.IsZero() {
		first, _ := f.history.Span(repoID)
		if first.IsZero() {
			return []schema.MetricSnapshot{}, nil
		}
		from = first
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}

	windows := schema.WindowsBetween(from, to, f.window)
	snaps := make([]schema.MetricSnapshot, 0, len(windows))
	for _, w := range windows {
		snap, err := f.snapshot(ctx, repoID, w)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// Computations returns the number of metric computations performed by the
// read-through path. Tests use it to verify coalescing.
func (f *Facade) Computations() int64 {
	return f.computes.Load()
}

// snapshot fetches one window's snapshot, computing it on a miss.
func (f *Facade) snapshot(ctx context.Context, repoID string, w schema.TimeWindow) (schema.MetricSnapshot, error) {
	snap, err := f.store.Get(ctx, repoID, w)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return schema.MetricSnapshot{}, err
	}

	key := fmt.Sprintf("%s|%s", repoID, w.Key())
	v, err, _ := f.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the store already.
		if snap, err := f.store.Get(ctx, repoID, w); err == nil {
			return snap, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return schema.MetricSnapshot{}, err
		}

		f.computes.Add(1)
		snap := Compute(repoID, f.history.Commits(repoID, w), w, f.topN)
		if err := f.store.Upsert(ctx, snap); err != nil {
			return schema.MetricSnapshot{}, err
		}
		return snap, nil
	})
	if err != nil {
		return schema.MetricSnapshot{}, fmt.Errorf("computing snapshot for %s %s: %w", repoID, w, err)
	}
	return v.(schema.MetricSnapshot), nil
}
