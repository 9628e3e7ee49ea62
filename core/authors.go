package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/devanalytics/devanalytics/schema"
)

// AggregateAuthors computes per-author cadence and volume metrics from a
// commit set: commit counts, insertions/deletions, weekday and ISO-week
// frequencies, and the average streak of consecutive active days.
// Authors are returned by descending commit count, ties by ascending name.
func AggregateAuthors(commits []schema.CommitRecord) []schema.AuthorActivity {
	type bucket struct {
		activity schema.AuthorActivity
		days     map[string]struct{}
	}
	buckets := make(map[string]*bucket)

	for _, c := range commits {
		b, ok := buckets[c.Author]
		if !ok {
			b = &bucket{
				activity: schema.AuthorActivity{
					Name:             c.Author,
					Email:            c.Email,
					WeekdayFrequency: make(map[string]int),
					WeeklyFrequency:  make(map[string]int),
					DailyFrequency:   make(map[string]int),
				},
				days: make(map[string]struct{}),
			}
			buckets[c.Author] = b
		}

		ts := c.Timestamp.UTC()
		day := ts.Format("2006-01-02")
		b.activity.CommitCount++
		b.activity.WeekdayFrequency[ts.Weekday().String()]++
		b.activity.WeeklyFrequency[isoWeekBucket(ts)]++
		b.activity.DailyFrequency[day]++
		b.days[day] = struct{}{}
		for _, fc := range c.Changes {
			b.activity.Insertions += fc.Added
			b.activity.Deletions += fc.Removed
		}
		b.activity.FilesChanged += len(c.Changes)
	}

	authors := make([]schema.AuthorActivity, 0, len(buckets))
	for _, b := range buckets {
		b.activity.AverageStreakDays = averageStreak(sortedDays(b.days))
		authors = append(authors, b.activity)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].CommitCount != authors[j].CommitCount {
			return authors[i].CommitCount > authors[j].CommitCount
		}
		return authors[i].Name < authors[j].Name
	})
	return authors
}

// BuildMiningReport assembles the full author-activity report for one
// repository from its commit history.
func BuildMiningReport(repoID string, commits []schema.CommitRecord) schema.MiningReport {
	report := schema.MiningReport{
		RepoID:       repoID,
		MinedAt:      time.Now().UTC(),
		TotalCommits: len(commits),
		Authors:      AggregateAuthors(commits),
	}
	for _, c := range commits {
		ts := c.Timestamp.UTC()
		if report.FirstCommit.IsZero() || ts.Before(report.FirstCommit) {
			report.FirstCommit = ts
		}
		if ts.After(report.LastCommit) {
			report.LastCommit = ts
		}
	}
	return report
}

// isoWeekBucket formats a timestamp as its ISO week bucket, e.g. "2023-W05".
func isoWeekBucket(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// sortedDays converts a set of day keys into a sorted time slice.
func sortedDays(days map[string]struct{}) []time.Time {
	out := make([]time.Time, 0, len(days))
	for d := range days {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// averageStreak returns the mean length of runs of consecutive calendar
// days. An isolated active day counts as a streak of one.
func averageStreak(days []time.Time) float64 {
	if len(days) == 0 {
		return 0.0
	}
	var streaks []int
	current := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			current++
		} else {
			streaks = append(streaks, current)
			current = 1
		}
	}
	streaks = append(streaks, current)

	total := 0
	for _, s := range streaks {
		total += s
	}
	return float64(total) / float64(len(streaks))
}
