// Package ingest reads commit records from external sources and turns them
// into ordered, restartable sequences for the metrics engine.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/devanalytics/devanalytics/internal/logging"
	"github.com/devanalytics/devanalytics/schema"
)

// ErrSourceUnavailable indicates the underlying commit source could not be
// reached. Callers may retry with backoff.
var ErrSourceUnavailable = errors.New("commit source unavailable")

// MalformedRecordError describes a single unusable record. Malformed
// records are skipped and logged; they never abort an ingestion run.
type MalformedRecordError struct {
	Hash   string // Commit hash when known, empty otherwise
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Hash == "" {
		return fmt.Sprintf("malformed commit record: %s", e.Reason)
	}
	return fmt.Sprintf("malformed commit record %s: %s", e.Hash, e.Reason)
}

// Iterator yields commit records in commit order (oldest first).
// Next returns io.EOF once the sequence is exhausted. Cursor returns the
// hash of the last yielded record and can be handed back to the source to
// resume ingestion after an interruption.
type Iterator interface {
	Next() (schema.CommitRecord, error)
	Cursor() string
	Skipped() int
	Close() error
}

// Source produces a lazy, finite, restartable sequence of commit records
// for one repository. An empty cursor starts from the oldest commit; a
// non-empty cursor resumes strictly after the named commit.
type Source interface {
	Commits(ctx context.Context, repoID string, cursor string) (Iterator, error)
}

// sliceIterator walks a pre-parsed record slice. Both built-in sources
// parse their full payload up front and iterate from memory.
type sliceIterator struct {
	records []schema.CommitRecord
	idx     int
	skipped int
	cursor  string
}

func newSliceIterator(records []schema.CommitRecord, skipped int) *sliceIterator {
	return &sliceIterator{records: records, skipped: skipped}
}

func (it *sliceIterator) Next() (schema.CommitRecord, error) {
	if it.idx >= len(it.records) {
		return schema.CommitRecord{}, io.EOF
	}
	rec := it.records[it.idx]
	it.idx++
	it.cursor = rec.Hash
	return rec, nil
}

func (it *sliceIterator) Cursor() string {
	return it.cursor
}

func (it *sliceIterator) Skipped() int {
	return it.skipped
}

func (it *sliceIterator) Close() error {
	return nil
}

// Drain consumes an iterator to completion and returns all records.
// Useful for callers that want the whole history at once, such as the
// author mining report.
func Drain(it Iterator) ([]schema.CommitRecord, error) {
	defer func() { _ = it.Close() }()
	var records []schema.CommitRecord
	for {
		rec, err := it.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// logSkip records a malformed-record skip at warn level.
func logSkip(repoID string, err *MalformedRecordError) {
	logging.L().WithField("repo", repoID).Warnf("skipping %v", err)
}
