package ingest

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/devanalytics/devanalytics/schema"
)

// commitHeaderPrefix marks commit header lines in the git log output.
const commitHeaderPrefix = "--"

// GitLogSource reads commit history by executing the local 'git' binary.
// The repository identifier is the path to the working copy.
type GitLogSource struct{}

var _ Source = &GitLogSource{} // Compile-time check

// NewGitLogSource creates a new instance of the local git source.
func NewGitLogSource() *GitLogSource {
	return &GitLogSource{}
}

// Commits implements the Source interface. A non-empty cursor restricts
// the log to commits strictly after the named commit.
func (s *GitLogSource) Commits(ctx context.Context, repoID string, cursor string) (Iterator, error) {
	args := []string{
		"log",
		"--reverse",
		"--numstat",
		"--date=iso-strict",
		"--pretty=format:" + commitHeaderPrefix + "%H|%an|%ae|%ad",
	}
	if cursor != "" {
		args = append(args, cursor+"..HEAD")
	}
	out, err := runGit(ctx, repoID, args...)
	if err != nil {
		return nil, err
	}
	records, skipped := parseGitLog(repoID, string(out))
	return newSliceIterator(records, skipped), nil
}

// runGit executes a git command and returns its stdout.
func runGit(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("%w: git failed in %q: %s", ErrSourceUnavailable, repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v. Ensure git is installed and available on your PATH", ErrSourceUnavailable, err)
	}
	return out, nil
}

// parseGitLog turns 'git log --numstat' output into commit records.
// Records missing a hash or a parsable timestamp are skipped and logged;
// one bad record never aborts the batch.
func parseGitLog(repoID, out string) ([]schema.CommitRecord, int) {
	var records []schema.CommitRecord
	skipped := 0
	current := schema.CommitRecord{}
	valid := false

	flush := func() {
		if valid {
			records = append(records, current)
		}
		current = schema.CommitRecord{}
		valid = false
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, commitHeaderPrefix) {
			flush()
			rec, err := parseCommitHeader(line[len(commitHeaderPrefix):])
			if err != nil {
				skipped++
				logSkip(repoID, err)
				continue
			}
			current = rec
			valid = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !valid {
			continue // numstat lines of a skipped commit
		}
		if fc, ok := parseNumstatLine(line); ok {
			current.Changes = append(current.Changes, fc)
		}
	}
	flush()
	return records, skipped
}

// parseCommitHeader parses a "%H|%an|%ae|%ad" header payload.
func parseCommitHeader(payload string) (schema.CommitRecord, *MalformedRecordError) {
	parts := strings.SplitN(payload, "|", 4)
	if len(parts) < 4 {
		return schema.CommitRecord{}, &MalformedRecordError{Reason: fmt.Sprintf("header has %d fields, want 4", len(parts))}
	}
	hash := strings.TrimSpace(parts[0])
	if hash == "" {
		return schema.CommitRecord{}, &MalformedRecordError{Reason: "missing commit hash"}
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(parts[3]))
	if err != nil {
		return schema.CommitRecord{}, &MalformedRecordError{Hash: hash, Reason: "unparsable timestamp"}
	}
	return schema.CommitRecord{
		Hash:      hash,
		Author:    parts[1],
		Email:     parts[2],
		Timestamp: ts,
	}, nil
}

// parseNumstatLine parses one "added\tremoved\tpath" numstat line.
// Binary files report "-" for both counts and contribute zero churn.
func parseNumstatLine(line string) (schema.FileChange, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 {
		return schema.FileChange{}, false
	}
	added := 0
	removed := 0
	if parts[0] != "-" {
		added, _ = strconv.Atoi(parts[0])
	}
	if parts[1] != "-" {
		removed, _ = strconv.Atoi(parts[1])
	}
	return schema.FileChange{Path: parts[2], Added: added, Removed: removed}, true
}
