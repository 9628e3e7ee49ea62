// Package core implements the metrics engine, repository history,
// ingestion coordination and the read-through query facade.
package core

import (
	"sort"

	"github.com/devanalytics/devanalytics/schema"
)

// Compute derives the metric snapshot for one window from a commit set.
// Commits outside the window are ignored, so callers may pass a full
// history. The result is deterministic for a given input set regardless
// of commit order: hotspots sort by descending churn with ties broken by
// ascending path, and the top-author tie goes to the lexicographically
// smallest identity. An empty window yields a zero snapshot, not an error.
func Compute(repoID string, commits []schema.CommitRecord, window schema.TimeWindow, topN int) schema.MetricSnapshot {
	snap := schema.MetricSnapshot{
		RepoID:   repoID,
		Window:   window,
		Hotspots: []schema.HotspotFile{},
	}

	authorCommits := make(map[string]int)
	fileChurn := make(map[string]int)
	for _, c := range commits {
		if !window.Contains(c.Timestamp) {
			continue
		}
		snap.CommitCount++
		snap.TotalChurn += c.Churn()
		authorCommits[c.Author]++
		for _, fc := range c.Changes {
			fileChurn[fc.Path] += fc.Churn()
		}
	}

	snap.Contributors = len(authorCommits)
	snap.TopAuthor, snap.Concentration = concentration(authorCommits, snap.CommitCount)
	snap.Hotspots = rankHotspots(fileChurn, topN)
	return snap
}

// concentration returns the most active author and the ratio of their
// commits to the window total. Counts are exact integers; the ratio stays
// at full float64 precision and is only rounded for display.
func concentration(authorCommits map[string]int, total int) (string, float64) {
	if total == 0 {
		return "", 0.0
	}
	top := ""
	topCount := -1
	for author, count := range authorCommits {
		if count > topCount || (count == topCount && author < top) {
			top = author
			topCount = count
		}
	}
	return top, float64(topCount) / float64(total)
}

// rankHotspots orders files by descending total churn, ties broken by
// ascending path, truncated to topN.
func rankHotspots(fileChurn map[string]int, topN int) []schema.HotspotFile {
	hotspots := make([]schema.HotspotFile, 0, len(fileChurn))
	for path, churn := range fileChurn {
		hotspots = append(hotspots, schema.HotspotFile{Path: path, Churn: churn})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Churn != hotspots[j].Churn {
			return hotspots[i].Churn > hotspots[j].Churn
		}
		return hotspots[i].Path < hotspots[j].Path
	})
	if len(hotspots) > topN {
		hotspots = hotspots[:topN]
	}
	return hotspots
}
