// Package store holds computed metric snapshots keyed by (repository, window),
// supporting incremental recomputation.
package store

import (
	"context"
	"errors"

	"github.com/devanalytics/devanalytics/schema"
)

// ErrNotFound signals that no snapshot exists for the requested key.
// Callers interpret it as "schedule computation", not as a system error.
var ErrNotFound = errors.New("snapshot not found")

// Store persists metric snapshots. At most one snapshot exists per
// (repository, window) key; Upsert replaces the prior snapshot for that
// key atomically, and concurrent upserts to the same key serialize.
type Store interface {
	// Upsert writes or replaces the snapshot for its (repository, window) key.
	Upsert(ctx context.Context, snap schema.MetricSnapshot) error

	// Get retrieves the snapshot for a key, or ErrNotFound.
	Get(ctx context.Context, repoID string, window schema.TimeWindow) (schema.MetricSnapshot, error)

	// Invalidate drops the snapshot for a key so the next access recomputes it.
	// Invalidating an absent key is a no-op.
	Invalidate(ctx context.Context, repoID string, window schema.TimeWindow) error

	// Close releases underlying resources.
	Close() error
}

// New returns a store for the configured backend. NoneBackend yields an
// in-memory store so callers never need a nil check.
func New(backend schema.DatabaseBackend, connStr string) (Store, error) {
	if backend == schema.NoneBackend {
		return NewMemStore(), nil
	}
	return NewSQLStore(backend, connStr)
}
