package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devanalytics/devanalytics/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleSnapshots returns two snapshots with ranked hotspots.
func sampleSnapshots() []schema.MetricSnapshot {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []schema.MetricSnapshot{
		{
			RepoID:        "r1",
			Window:        schema.TimeWindow{Start: start, End: start.Add(24 * time.Hour)},
			CommitCount:   3,
			TotalChurn:    45,
			Contributors:  2,
			TopAuthor:     "ann",
			Concentration: 2.0 / 3.0,
			Hotspots: []schema.HotspotFile{
				{Path: "core/engine.go", Churn: 30},
				{Path: "schema/schema.go", Churn: 15},
			},
		},
		{
			RepoID:      "r1",
			Window:      schema.TimeWindow{Start: start.Add(24 * time.Hour), End: start.Add(48 * time.Hour)},
			CommitCount: 0,
			Hotspots:    []schema.HotspotFile{},
		},
	}
}

func TestSnapshotRowStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	rowSchema := parquet.SchemaOf(new(SnapshotRow))
	require.NotNil(t, rowSchema)

	expectedColumns := []string{
		"repo_id",
		"window_start",
		"window_end",
		"commit_count",
		"total_churn",
		"contributors",
		"top_author",
		"concentration",
	}
	for _, colName := range expectedColumns {
		col, ok := rowSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestHotspotRowStructTags(t *testing.T) {
	rowSchema := parquet.SchemaOf(new(HotspotRow))
	require.NotNil(t, rowSchema)

	expectedColumns := []string{"repo_id", "window_start", "rank", "path", "churn"}
	for _, colName := range expectedColumns {
		col, ok := rowSchema.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col, "Column %s should not be nil", colName)
	}
}

func TestSnapshotRows(t *testing.T) {
	rows := SnapshotRows(sampleSnapshots())
	require.Len(t, rows, 2)

	assert.Equal(t, "r1", rows[0].RepoID)
	assert.Equal(t, int32(3), rows[0].CommitCount)
	assert.Equal(t, int32(45), rows[0].TotalChurn)
	assert.InDelta(t, 2.0/3.0, rows[0].Concentration, 1e-12)
	assert.Equal(t, int32(0), rows[1].CommitCount)
}

func TestHotspotRows(t *testing.T) {
	rows := HotspotRows(sampleSnapshots())
	require.Len(t, rows, 2, "the empty snapshot contributes no hotspot rows")

	assert.Equal(t, int32(1), rows[0].Rank)
	assert.Equal(t, "core/engine.go", rows[0].Path)
	assert.Equal(t, int32(30), rows[0].Churn)
	assert.Equal(t, int32(2), rows[1].Rank)
	assert.Equal(t, "schema/schema.go", rows[1].Path)
}

func TestWriteSnapshotsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "snapshots.parquet")

	data := SnapshotRows(sampleSnapshots())
	err := WriteSnapshotsParquet(data, outputPath)
	require.NoError(t, err, "Writing Parquet file should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should not be empty")

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[SnapshotRow](file)
	defer reader.Close()

	readData := make([]SnapshotRow, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	assert.Equal(t, len(data), n, "Should read all records")

	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].RepoID, readData[i].RepoID)
		assert.Equal(t, data[i].CommitCount, readData[i].CommitCount)
		assert.InDelta(t, data[i].Concentration, readData[i].Concentration, 1e-12)
		assert.WithinDuration(t, data[i].WindowStart, readData[i].WindowStart, time.Nanosecond)
	}
}

func TestWriteHotspotsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "hotspots.parquet")

	data := HotspotRows(sampleSnapshots())
	err := WriteHotspotsParquet(data, outputPath)
	require.NoError(t, err)

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[HotspotRow](file)
	defer reader.Close()

	readData := make([]HotspotRow, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	assert.Equal(t, len(data), n)
	for i := 0; i < len(data); i++ {
		assert.Equal(t, data[i].Path, readData[i].Path)
		assert.Equal(t, data[i].Rank, readData[i].Rank)
	}
}

func TestWriteSnapshotsParquet_EmptyData(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "empty_snapshots.parquet")

	err := WriteSnapshotsParquet([]SnapshotRow{}, outputPath)
	require.NoError(t, err, "Writing empty data should not produce error")

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteSnapshotsParquet_InvalidPath(t *testing.T) {
	data := SnapshotRows(sampleSnapshots())
	err := WriteSnapshotsParquet(data, "/nonexistent/directory/output.parquet")
	require.Error(t, err, "Writing to invalid path should produce error")
}
