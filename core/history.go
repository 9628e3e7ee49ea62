package core

import (
	"sync"
	"time"

	"github.com/devanalytics/devanalytics/schema"
)

// History is the append-only commit log for a set of repositories.
// Commits are kept in timestamp order per repository; a late arrival is
// inserted at its position rather than appended. Duplicate hashes are
// dropped, which makes re-ingestion after a cursor reset idempotent.
type History struct {
	mu      sync.RWMutex
	commits map[string][]schema.CommitRecord
	seen    map[string]map[string]struct{}
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{
		commits: make(map[string][]schema.CommitRecord),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Append adds one commit to a repository's log. It reports whether the
// commit was new; a duplicate hash leaves the log unchanged.
func (h *History) Append(repoID string, rec schema.CommitRecord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	hashes, ok := h.seen[repoID]
	if !ok {
		hashes = make(map[string]struct{})
		h.seen[repoID] = hashes
	}
	if _, dup := hashes[rec.Hash]; dup {
		return false
	}
	hashes[rec.Hash] = struct{}{}

	log := append(h.commits[repoID], rec)
	// Keep timestamp order; late arrivals bubble back to their slot.
	for i := len(log) - 1; i > 0 && log[i].Timestamp.Before(log[i-1].Timestamp); i-- {
		log[i], log[i-1] = log[i-1], log[i]
	}
	h.commits[repoID] = log
	return true
}

// Commits returns the repository's commits that fall inside the window.
func (h *History) Commits(repoID string, window schema.TimeWindow) []schema.CommitRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []schema.CommitRecord
	for _, rec := range h.commits[repoID] {
		if window.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	return out
}

// All returns a copy of the repository's full commit log in order.
func (h *History) All(repoID string) []schema.CommitRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	log := h.commits[repoID]
	out := make([]schema.CommitRecord, len(log))
	copy(out, log)
	return out
}

// Len returns the number of commits recorded for a repository.
func (h *History) Len(repoID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.commits[repoID])
}

// Span returns the first and last commit timestamps for a repository.
// The zero times are returned for an empty log.
func (h *History) Span(repoID string) (time.Time, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	log := h.commits[repoID]
	if len(log) == 0 {
		return time.Time{}, time.Time{}
	}
	return log[0].Timestamp, log[len(log)-1].Timestamp
}
