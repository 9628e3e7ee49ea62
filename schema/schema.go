// Package schema has configs, models and shared constants for all parts of devanalytics.
package schema

import "time"

// FileChange records the line delta for a single file within one commit.
type FileChange struct {
	Path    string `json:"path"`    // Relative path to the file in the repository
	Added   int    `json:"added"`   // Lines added to the file in this commit
	Removed int    `json:"removed"` // Lines removed from the file in this commit
}

// Churn is the total number of lines touched by this change.
func (fc FileChange) Churn() int {
	return fc.Added + fc.Removed
}

// CommitRecord is an immutable fact about a single commit. It is created
// once by the ingestion layer and never mutated afterwards.
type CommitRecord struct {
	Hash      string       `json:"hash"`            // Unique commit identifier
	Author    string       `json:"author"`          // Author identity used for contributor metrics
	Email     string       `json:"email,omitempty"` // Author email when the source provides one
	Timestamp time.Time    `json:"timestamp"`       // Author timestamp of the commit
	Changes   []FileChange `json:"changes"`         // Ordered file-change tuples
}

// Churn sums lines added and removed across all file changes in the commit.
func (c CommitRecord) Churn() int {
	total := 0
	for _, fc := range c.Changes {
		total += fc.Churn()
	}
	return total
}

// HotspotFile is a file ranked by aggregate churn within a window.
type HotspotFile struct {
	Path  string `json:"path"`
	Churn int    `json:"churn"`
}

// MetricSnapshot holds the derived performance indicators for one
// (repository, window) key. Snapshots are recomputed whenever new commits
// fall into their window and are otherwise immutable; recomputation is
// deterministic given the same commit set.
type MetricSnapshot struct {
	RepoID        string        `json:"repo_id"`
	Window        TimeWindow    `json:"window"`
	CommitCount   int           `json:"commit_count"`
	TotalChurn    int           `json:"total_churn"`
	Contributors  int           `json:"contributors"`         // Distinct author identities in the window
	TopAuthor     string        `json:"top_author,omitempty"` // Most active author; ties go to the lexicographically smallest identity
	Concentration float64       `json:"concentration"`        // Commits by the most active author / total commits
	Hotspots      []HotspotFile `json:"hotspots"`             // Top-N files by descending churn
}

// AuthorActivity aggregates per-author commit cadence and volume metrics.
type AuthorActivity struct {
	Name              string         `json:"name"`
	Email             string         `json:"email,omitempty"`
	CommitCount       int            `json:"commit_count"`
	Insertions        int            `json:"total_insertions"`
	Deletions         int            `json:"total_deletions"`
	FilesChanged      int            `json:"total_files_changed"`
	WeekdayFrequency  map[string]int `json:"weekday_frequency"` // Monday..Sunday -> count
	WeeklyFrequency   map[string]int `json:"weekly_frequency"`  // YYYY-Www -> count
	DailyFrequency    map[string]int `json:"daily_frequency"`   // YYYY-MM-DD -> count
	AverageStreakDays float64        `json:"average_streak_days"`
}

// MiningReport is the full author-activity report for one repository.
type MiningReport struct {
	RepoID       string           `json:"repo_id"`
	MinedAt      time.Time        `json:"mined_at"`
	TotalCommits int              `json:"total_commits"`
	FirstCommit  time.Time        `json:"min_author_date"`
	LastCommit   time.Time        `json:"max_author_date"`
	Authors      []AuthorActivity `json:"authors"`
}
