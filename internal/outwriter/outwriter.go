// Package outwriter renders metric snapshots as tables, JSON, or CSV.
package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/devanalytics/devanalytics/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// Activity labels for the table view.
const (
	quietLabel  = "Quiet"
	activeLabel = "Active"
	busyLabel   = "Busy"
)

// Label colors.
var (
	quietColor  = color.New(color.FgHiBlack)
	activeColor = color.New(color.FgGreen)
	busyColor   = color.New(color.FgRed)
)

// concentrationFormat rounds ratios to 4 decimal places for display only;
// stored values keep full precision.
const concentrationFormat = "%.4f"

// WriteSnapshots renders a snapshot sequence, dispatching on the output
// mode. outputFile may be empty to write to w directly.
func WriteSnapshots(w io.Writer, snaps []schema.MetricSnapshot, mode schema.OutputMode, outputFile string, noColor bool) error {
	return writeWithFile(w, outputFile, func(w io.Writer) error {
		switch mode {
		case schema.JSONOut:
			return writeJSON(w, snaps)
		case schema.CSVOut:
			return writeSnapshotCSV(w, snaps)
		default:
			return writeSnapshotTable(w, snaps, noColor)
		}
	})
}

// WriteMiningReport renders an author-activity report as indented JSON.
func WriteMiningReport(w io.Writer, report schema.MiningReport, outputFile string) error {
	return writeWithFile(w, outputFile, func(w io.Writer) error {
		return writeJSON(w, report)
	})
}

// writeWithFile routes output to a file when a path is set, else to w.
func writeWithFile(w io.Writer, outputFile string, fn func(io.Writer) error) error {
	if outputFile == "" {
		return fn(w)
	}
	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", outputFile, err)
	}
	defer func() { _ = file.Close() }()
	if err := fn(file); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote output to %s\n", outputFile)
	return nil
}

// writeJSON encodes data with consistent indentation.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeSnapshotTable writes the human-readable table view.
func writeSnapshotTable(w io.Writer, snaps []schema.MetricSnapshot, noColor bool) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repo", "Window Start", "Commits", "Churn", "Authors", "Top Author", "Concentration", "Hotspots", "Activity"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := tableHotspotPathWidth()
	var data [][]string
	for _, s := range snaps {
		data = append(data, []string{
			s.RepoID,
			s.Window.Start.UTC().Format(time.RFC3339),
			strconv.Itoa(s.CommitCount),
			strconv.Itoa(s.TotalChurn),
			strconv.Itoa(s.Contributors),
			s.TopAuthor,
			fmt.Sprintf(concentrationFormat, s.Concentration),
			formatHotspots(s.Hotspots, 3, pathWidth),
			activityLabel(s.CommitCount, noColor),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeSnapshotCSV writes one row per snapshot with the full hotspot list.
func writeSnapshotCSV(w io.Writer, snaps []schema.MetricSnapshot) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	header := []string{"repo_id", "window_start", "window_end", "commit_count", "total_churn", "contributors", "top_author", "concentration", "hotspots"}
	if err := csvWriter.Write(header); err != nil {
		return err
	}
	for _, s := range snaps {
		row := []string{
			s.RepoID,
			s.Window.Start.UTC().Format(time.RFC3339),
			s.Window.End.UTC().Format(time.RFC3339),
			strconv.Itoa(s.CommitCount),
			strconv.Itoa(s.TotalChurn),
			strconv.Itoa(s.Contributors),
			s.TopAuthor,
			fmt.Sprintf(concentrationFormat, s.Concentration),
			formatHotspots(s.Hotspots, len(s.Hotspots), 0),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// formatHotspots renders up to limit hotspot entries as "path(churn)".
// A positive pathWidth truncates each path to that many runes.
func formatHotspots(hotspots []schema.HotspotFile, limit, pathWidth int) string {
	if len(hotspots) == 0 {
		return "-"
	}
	n := min(limit, len(hotspots))
	parts := make([]string, 0, n)
	for _, h := range hotspots[:n] {
		parts = append(parts, fmt.Sprintf("%s(%d)", truncatePath(h.Path, pathWidth), h.Churn))
	}
	if len(hotspots) > n {
		parts = append(parts, fmt.Sprintf("+%d more", len(hotspots)-n))
	}
	return strings.Join(parts, "; ")
}

// tableHotspotPathWidth calculates the maximum width for hotspot paths in
// table output based on terminal width. The remaining columns are close
// to fixed width; the hotspot column absorbs what is left.
func tableHotspotPathWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		termWidth = 80 // Conservative default for narrow terminals and CI
	}

	// Reserve space for the fixed columns with borders and padding.
	baseWidth := 85 // Repo + Window Start + numeric columns + Activity

	available := termWidth - baseWidth
	if available < 15 {
		// Minimum reasonable path width
		return 15
	}
	if available > 70 {
		// Maximum path width to prevent overly long paths
		return 70
	}
	return available
}

// truncatePath trims a path to maxWidth runes, keeping the tail.
// A non-positive maxWidth leaves the path untouched.
func truncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if maxWidth > 3 && len(runes) > maxWidth {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// activityLabel buckets a window's commit count into a colored label.
func activityLabel(commits int, noColor bool) string {
	var label string
	var c *color.Color
	switch {
	case commits == 0:
		label, c = quietLabel, quietColor
	case commits < 10:
		label, c = activeLabel, activeColor
	default:
		label, c = busyLabel, busyColor
	}
	if noColor {
		return label
	}
	return c.Sprint(label)
}
