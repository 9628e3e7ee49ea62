package schema

import (
	"fmt"
	"time"
)

// TimeWindow is a half-open interval [Start, End) used to bucket commits
// for aggregation. Windows produced for one repository with a fixed
// WindowSize are non-overlapping and contiguous.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the half-open interval.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether the window intersects the half-open range [from, to).
func (w TimeWindow) Overlaps(from, to time.Time) bool {
	return w.Start.Before(to) && from.Before(w.End)
}

// Key returns a stable string identity for the window, suitable for use
// in store keys and coalescing registries.
func (w TimeWindow) Key() string {
	return fmt.Sprintf("%d-%d", w.Start.Unix(), w.End.Unix())
}

// String renders the window for logs and table output.
func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339))
}

// WindowOf returns the window of the given size that contains t.
// All alignment happens in UTC; weekly windows start on Monday and
// monthly windows on the first of the month.
func WindowOf(t time.Time, size WindowSize) TimeWindow {
	t = t.UTC()
	var start, end time.Time
	switch size {
	case HourlyWindow:
		start = t.Truncate(time.Hour)
		end = start.Add(time.Hour)
	case WeeklyWindow:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		// time.Weekday counts Sunday as 0; shift so Monday opens the week
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case MonthlyWindow:
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default: // DailyWindow
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	}
	return TimeWindow{Start: start, End: end}
}

// NextWindow returns the window immediately following w for the given size.
func NextWindow(w TimeWindow, size WindowSize) TimeWindow {
	return WindowOf(w.End, size)
}

// WindowsBetween returns the ordered, contiguous sequence of windows that
// overlap the half-open range [from, to). An empty or inverted range
// yields no windows.
func WindowsBetween(from, to time.Time, size WindowSize) []TimeWindow {
	if !from.Before(to) {
		return nil
	}
	var windows []TimeWindow
	w := WindowOf(from, size)
	for w.Start.Before(to) {
		windows = append(windows, w)
		w = NextWindow(w, size)
	}
	return windows
}
