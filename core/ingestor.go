package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/devanalytics/devanalytics/internal/ingest"
	"github.com/devanalytics/devanalytics/internal/logging"
	"github.com/devanalytics/devanalytics/internal/store"
	"github.com/devanalytics/devanalytics/schema"
)

// ErrInconsistentWindow marks a late commit landing in an already-closed
// window. The condition invalidates the affected snapshot instead of
// failing the ingestion run.
var ErrInconsistentWindow = errors.New("late commit for closed window")

// IngestStats summarizes one ingestion run for a repository.
type IngestStats struct {
	Ingested      int // Commits appended to the history
	Skipped       int // Malformed records skipped by the source
	LateArrivals  int // Commits that landed in an already-closed window
	WindowsClosed int // Windows whose snapshot was computed and stored
}

// Ingestor pulls commit records from a source, maintains the per-repository
// history, and keeps the snapshot store current. Within one repository
// commits apply in increasing timestamp order; different repositories are
// fully independent and may be ingested concurrently.
type Ingestor struct {
	source  ingest.Source
	store   store.Store
	history *History
	window  schema.WindowSize
	topN    int

	mu      sync.Mutex
	cursors map[string]string
}

// NewIngestor wires a source, a store and a shared history together.
func NewIngestor(src ingest.Source, st store.Store, h *History, window schema.WindowSize, topN int) *Ingestor {
	return &Ingestor{
		source:  src,
		store:   st,
		history: h,
		window:  window,
		topN:    topN,
		cursors: make(map[string]string),
	}
}

// Run ingests all pending commits for one repository. Each time a window
// closes its snapshot is computed and upserted; a commit arriving for a
// window that already closed raises the inconsistent-window condition,
// which invalidates that snapshot so the next access recomputes it.
// The resume cursor advances only on success, so a failed run restarts
// from the last fully ingested commit.
func (ing *Ingestor) Run(ctx context.Context, repoID string) (IngestStats, error) {
	stats := IngestStats{}

	ing.mu.Lock()
	cursor := ing.cursors[repoID]
	ing.mu.Unlock()

	it, err := ing.source.Commits(ctx, repoID, cursor)
	if err != nil {
		return stats, fmt.Errorf("ingestion for %s: %w", repoID, err)
	}
	defer func() { _ = it.Close() }()

	var open schema.TimeWindow
	hasOpen := false
	for {
		rec, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("ingestion for %s: %w", repoID, err)
		}

		if !ing.history.Append(repoID, rec) {
			continue // duplicate hash, already ingested
		}
		stats.Ingested++

		w := schema.WindowOf(rec.Timestamp, ing.window)
		switch {
		case !hasOpen:
			open = w
			hasOpen = true
		case w.Start.After(open.Start):
			// The open window is now complete; snapshot it.
			if err := ing.closeWindow(ctx, repoID, open); err != nil {
				return stats, err
			}
			stats.WindowsClosed++
			open = w
		case w.Start.Before(open.Start):
			// Late arrival into a closed window.
			stats.LateArrivals++
			logging.L().WithField("repo", repoID).WithField("commit", rec.Hash).
				Warnf("%v: invalidating %s", ErrInconsistentWindow, w)
			if err := ing.store.Invalidate(ctx, repoID, w); err != nil {
				return stats, fmt.Errorf("invalidating %s %s: %w", repoID, w, err)
			}
		}
	}

	// Snapshot the final open window.
	if hasOpen {
		if err := ing.closeWindow(ctx, repoID, open); err != nil {
			return stats, err
		}
		stats.WindowsClosed++
	}

	stats.Skipped = it.Skipped()
	if c := it.Cursor(); c != "" {
		ing.mu.Lock()
		ing.cursors[repoID] = c
		ing.mu.Unlock()
	}

	logging.L().WithField("repo", repoID).
		Debugf("ingested %d commits (%d skipped, %d late)", stats.Ingested, stats.Skipped, stats.LateArrivals)
	return stats, nil
}

// Cursor returns the repository's resume cursor (last ingested commit hash).
func (ing *Ingestor) Cursor(repoID string) string {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.cursors[repoID]
}

// closeWindow computes and stores the snapshot for a completed window.
func (ing *Ingestor) closeWindow(ctx context.Context, repoID string, w schema.TimeWindow) error {
	snap := Compute(repoID, ing.history.Commits(repoID, w), w, ing.topN)
	if err := ing.store.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("storing snapshot for %s %s: %w", repoID, w, err)
	}
	return nil
}
