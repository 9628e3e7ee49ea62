package ingest

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/devanalytics/devanalytics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `--aaa111|Ann Lee|ann@example.com|2026-03-01T09:00:00+00:00

10	2	core/engine.go
3	0	schema/schema.go

--bbb222|Bob Wu|bob@example.com|2026-03-01T14:30:00+02:00

-	-	assets/logo.png
5	5	core/engine.go
`

// TestParseGitLog tests git log --numstat output parsing.
func TestParseGitLog(t *testing.T) {
	t.Run("full sample", func(t *testing.T) {
		records, skipped := parseGitLog("r1", sampleLog)
		require.Equal(t, 2, len(records))
		assert.Equal(t, 0, skipped)

		first := records[0]
		assert.Equal(t, "aaa111", first.Hash)
		assert.Equal(t, "Ann Lee", first.Author)
		assert.Equal(t, "ann@example.com", first.Email)
		assert.True(t, first.Timestamp.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
		require.Equal(t, 2, len(first.Changes))
		assert.Equal(t, schema.FileChange{Path: "core/engine.go", Added: 10, Removed: 2}, first.Changes[0])
		assert.Equal(t, 15, first.Churn())

		second := records[1]
		require.Equal(t, 2, len(second.Changes))
		assert.Equal(t, schema.FileChange{Path: "assets/logo.png", Added: 0, Removed: 0}, second.Changes[0], "binary files contribute zero churn")
		assert.Equal(t, 10, second.Churn())
	})

	t.Run("empty output", func(t *testing.T) {
		records, skipped := parseGitLog("r1", "")
		assert.Empty(t, records)
		assert.Equal(t, 0, skipped)
	})

	t.Run("malformed headers are skipped not fatal", func(t *testing.T) {
		out := "--aaa111|Ann|ann@example.com|2026-03-01T09:00:00Z\n" +
			"1\t1\tx.go\n" +
			"--|Bob|bob@example.com|2026-03-01T10:00:00Z\n" + // missing hash
			"9\t9\ty.go\n" +
			"--ccc333|Cat|cat@example.com|not-a-date\n" + // bad timestamp
			"--ddd444|Dan|dan@example.com|2026-03-01T11:00:00Z\n"
		records, skipped := parseGitLog("r1", out)
		require.Equal(t, 2, len(records))
		assert.Equal(t, 2, skipped)
		assert.Equal(t, "aaa111", records[0].Hash)
		assert.Equal(t, "ddd444", records[1].Hash)
		assert.Empty(t, records[1].Changes)
	})

	t.Run("numstat lines of a skipped commit are dropped", func(t *testing.T) {
		out := "--|Bob|bob@example.com|2026-03-01T10:00:00Z\n" +
			"9\t9\torphan.go\n" +
			"--aaa111|Ann|ann@example.com|2026-03-01T11:00:00Z\n"
		records, _ := parseGitLog("r1", out)
		require.Equal(t, 1, len(records))
		assert.Empty(t, records[0].Changes)
	})
}

// TestParseCommitHeader tests header field validation.
func TestParseCommitHeader(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		rec, err := parseCommitHeader("abc|Ann|ann@example.com|2026-03-01T09:00:00Z")
		require.Nil(t, err)
		assert.Equal(t, "abc", rec.Hash)
		assert.Equal(t, "Ann", rec.Author)
	})

	cases := []struct {
		name    string
		payload string
	}{
		{"too few fields", "abc|Ann|ann@example.com"},
		{"missing hash", "|Ann|ann@example.com|2026-03-01T09:00:00Z"},
		{"bad timestamp", "abc|Ann|ann@example.com|yesterday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseCommitHeader(tc.payload)
			require.NotNil(t, err)
			assert.Contains(t, err.Error(), "malformed commit record")
		})
	}
}

// TestParseNumstatLine tests single-line numstat parsing.
func TestParseNumstatLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want schema.FileChange
		ok   bool
	}{
		{"regular", "12\t3\tcore/engine.go", schema.FileChange{Path: "core/engine.go", Added: 12, Removed: 3}, true},
		{"binary", "-\t-\tlogo.png", schema.FileChange{Path: "logo.png", Added: 0, Removed: 0}, true},
		{"rename with tab in path kept whole", "1\t0\tdocs/a b.md", schema.FileChange{Path: "docs/a b.md", Added: 1, Removed: 0}, true},
		{"short line", "12\t3", schema.FileChange{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc, ok := parseNumstatLine(tc.line)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, fc)
			}
		})
	}
}

// TestGitLogSourceUnavailable tests that unreachable repositories surface
// the retryable unavailability sentinel instead of a bare exec error.
func TestGitLogSourceUnavailable(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	src := NewGitLogSource()
	ctx := context.Background()

	t.Run("nonexistent path", func(t *testing.T) {
		_, err := src.Commits(ctx, filepath.Join(t.TempDir(), "missing"), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("directory without a repository", func(t *testing.T) {
		_, err := src.Commits(ctx, t.TempDir(), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}

// TestSliceIterator tests cursor advancement and exhaustion.
func TestSliceIterator(t *testing.T) {
	records := []schema.CommitRecord{{Hash: "a"}, {Hash: "b"}}
	it := newSliceIterator(records, 1)

	assert.Equal(t, "", it.Cursor(), "cursor empty before first record")

	rec, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Hash)
	assert.Equal(t, "a", it.Cursor())

	_, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", it.Cursor())

	_, err = it.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "b", it.Cursor(), "cursor holds after exhaustion")
	assert.Equal(t, 1, it.Skipped())
	require.NoError(t, it.Close())
}

// TestDrain tests full-history consumption.
func TestDrain(t *testing.T) {
	records := []schema.CommitRecord{{Hash: "a"}, {Hash: "b"}, {Hash: "c"}}
	out, err := Drain(newSliceIterator(records, 0))
	require.NoError(t, err)
	assert.Equal(t, records, out)
}
