// Package parquet exports metric snapshots to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/devanalytics/devanalytics/schema"
	"github.com/parquet-go/parquet-go"
)

// SnapshotRow is the flat Parquet representation of a metric snapshot.
type SnapshotRow struct {
	RepoID        string    `parquet:"repo_id,snappy"`
	WindowStart   time.Time `parquet:"window_start,snappy"`
	WindowEnd     time.Time `parquet:"window_end,snappy"`
	CommitCount   int32     `parquet:"commit_count,snappy"`
	TotalChurn    int32     `parquet:"total_churn,snappy"`
	Contributors  int32     `parquet:"contributors,snappy"`
	TopAuthor     string    `parquet:"top_author,snappy"`
	Concentration float64   `parquet:"concentration,snappy"`
}

// HotspotRow is one hotspot entry of one snapshot, with its rank within
// the window.
type HotspotRow struct {
	RepoID      string    `parquet:"repo_id,snappy"`
	WindowStart time.Time `parquet:"window_start,snappy"`
	Rank        int32     `parquet:"rank,snappy"`
	Path        string    `parquet:"path,snappy"`
	Churn       int32     `parquet:"churn,snappy"`
}

// SnapshotRows flattens snapshots into Parquet rows.
func SnapshotRows(snaps []schema.MetricSnapshot) []SnapshotRow {
	rows := make([]SnapshotRow, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, SnapshotRow{
			RepoID:        s.RepoID,
			WindowStart:   s.Window.Start.UTC(),
			WindowEnd:     s.Window.End.UTC(),
			CommitCount:   int32(s.CommitCount),
			TotalChurn:    int32(s.TotalChurn),
			Contributors:  int32(s.Contributors),
			TopAuthor:     s.TopAuthor,
			Concentration: s.Concentration,
		})
	}
	return rows
}

// HotspotRows flattens per-snapshot hotspot lists into Parquet rows.
func HotspotRows(snaps []schema.MetricSnapshot) []HotspotRow {
	var rows []HotspotRow
	for _, s := range snaps {
		for i, h := range s.Hotspots {
			rows = append(rows, HotspotRow{
				RepoID:      s.RepoID,
				WindowStart: s.Window.Start.UTC(),
				Rank:        int32(i + 1),
				Path:        h.Path,
				Churn:       int32(h.Churn),
			})
		}
	}
	return rows
}

// WriteSnapshotsParquet writes snapshot rows to a Parquet file.
// The schema is derived from the SnapshotRow struct tags.
func WriteSnapshotsParquet(rows []SnapshotRow, outputPath string) error {
	return writeParquet(rows, outputPath)
}

// WriteHotspotsParquet writes hotspot rows to a Parquet file.
func WriteHotspotsParquet(rows []HotspotRow, outputPath string) error {
	return writeParquet(rows, outputPath)
}

// writeParquet writes any row type using struct schema inference.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
