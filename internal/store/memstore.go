package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/devanalytics/devanalytics/schema"
)

// MemStore keeps snapshots in process memory. It backs tests and the
// "none" backend, and shows the store contract at its simplest.
type MemStore struct {
	mu    sync.RWMutex
	snaps map[string]schema.MetricSnapshot
}

var _ Store = &MemStore{} // Compile-time check

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{snaps: make(map[string]schema.MetricSnapshot)}
}

// Upsert implements the Store interface. The write lock serializes
// concurrent upserts to the same key; readers never observe a partial write.
func (m *MemStore) Upsert(_ context.Context, snap schema.MetricSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[memKey(snap.RepoID, snap.Window)] = snap
	return nil
}

// Get implements the Store interface.
func (m *MemStore) Get(_ context.Context, repoID string, window schema.TimeWindow) (schema.MetricSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[memKey(repoID, window)]
	if !ok {
		return schema.MetricSnapshot{}, ErrNotFound
	}
	return snap, nil
}

// Invalidate implements the Store interface.
func (m *MemStore) Invalidate(_ context.Context, repoID string, window schema.TimeWindow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, memKey(repoID, window))
	return nil
}

// Close implements the Store interface.
func (m *MemStore) Close() error {
	return nil
}

// Len returns the number of stored snapshots.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snaps)
}

func memKey(repoID string, window schema.TimeWindow) string {
	return fmt.Sprintf("%s|%s", repoID, window.Key())
}
