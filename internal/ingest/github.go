package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/devanalytics/devanalytics/internal/logging"
	"github.com/devanalytics/devanalytics/schema"
	"github.com/google/go-github/v57/github"
)

// githubPageSize is the page size used for commit listing.
const githubPageSize = 100

// GitHubSource reads commit history through the GitHub REST API.
// The repository identifier takes the "owner/name" form. Transient API
// failures (rate limits, 5xx) are retried with exponential backoff before
// surfacing ErrSourceUnavailable.
type GitHubSource struct {
	client *github.Client
}

var _ Source = &GitHubSource{} // Compile-time check

// NewGitHubSource creates a GitHub-backed source. The token is optional;
// unauthenticated requests work with tighter rate limits.
func NewGitHubSource(token string) *GitHubSource {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubSource{client: client}
}

// Commits implements the Source interface.
func (s *GitHubSource) Commits(ctx context.Context, repoID string, cursor string) (Iterator, error) {
	owner, name, err := splitRepoID(repoID)
	if err != nil {
		return nil, err
	}

	shas, err := s.listCommitSHAs(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	// Resume strictly after the cursor commit when one is given.
	if cursor != "" {
		for i, sha := range shas {
			if sha == cursor {
				shas = shas[i+1:]
				break
			}
		}
	}

	records := make([]schema.CommitRecord, 0, len(shas))
	skipped := 0
	for _, sha := range shas {
		rec, merr, err := s.fetchCommit(ctx, owner, name, sha)
		if err != nil {
			return nil, err
		}
		if merr != nil {
			skipped++
			logSkip(repoID, merr)
			continue
		}
		records = append(records, rec)
	}
	return newSliceIterator(records, skipped), nil
}

// listCommitSHAs pages through the commit list and returns SHAs oldest first.
func (s *GitHubSource) listCommitSHAs(ctx context.Context, owner, name string) ([]string, error) {
	var shas []string
	opts := &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: githubPageSize},
	}
	for {
		var commits []*github.RepositoryCommit
		var resp *github.Response
		err := s.withRetry(ctx, func() error {
			var err error
			commits, resp, err = s.client.Repositories.ListCommits(ctx, owner, name, opts)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing commits for %s/%s: %v", ErrSourceUnavailable, owner, name, err)
		}
		for _, c := range commits {
			shas = append(shas, c.GetSHA())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	// The API lists newest first; the engine wants oldest first.
	for i, j := 0, len(shas)-1; i < j; i, j = i+1, j-1 {
		shas[i], shas[j] = shas[j], shas[i]
	}
	return shas, nil
}

// fetchCommit retrieves one commit with its per-file stats.
func (s *GitHubSource) fetchCommit(ctx context.Context, owner, name, sha string) (schema.CommitRecord, *MalformedRecordError, error) {
	var rc *github.RepositoryCommit
	err := s.withRetry(ctx, func() error {
		var err error
		rc, _, err = s.client.Repositories.GetCommit(ctx, owner, name, sha, nil)
		return err
	})
	if err != nil {
		return schema.CommitRecord{}, nil, fmt.Errorf("%w: fetching commit %s: %v", ErrSourceUnavailable, sha, err)
	}

	if rc.GetSHA() == "" {
		return schema.CommitRecord{}, &MalformedRecordError{Reason: "missing commit hash"}, nil
	}
	author := rc.GetCommit().GetAuthor()
	if author == nil || author.GetDate().IsZero() {
		return schema.CommitRecord{}, &MalformedRecordError{Hash: rc.GetSHA(), Reason: "missing author timestamp"}, nil
	}

	rec := schema.CommitRecord{
		Hash:      rc.GetSHA(),
		Author:    author.GetName(),
		Email:     author.GetEmail(),
		Timestamp: author.GetDate().Time,
	}
	for _, f := range rc.Files {
		rec.Changes = append(rec.Changes, schema.FileChange{
			Path:    f.GetFilename(),
			Added:   f.GetAdditions(),
			Removed: f.GetDeletions(),
		})
	}
	return rec, nil, nil
}

// withRetry runs an API call with exponential backoff. Rate-limit and
// server-side errors are retried; anything else is permanent.
func (s *GitHubSource) withRetry(ctx context.Context, op func() error) error {
	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			logging.L().WithError(err).Debug("retrying GitHub API call")
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(wrapped, backoff.WithContext(backoff.NewExponentialBackOff(), ctx))
}

// isRetryable reports whether a GitHub API error is worth retrying.
func isRetryable(err error) bool {
	switch e := err.(type) {
	case *github.RateLimitError, *github.AbuseRateLimitError:
		return true
	case *github.ErrorResponse:
		return e.Response != nil && e.Response.StatusCode >= 500
	}
	return false
}

// splitRepoID parses an "owner/name" repository identifier.
func splitRepoID(repoID string) (string, string, error) {
	parts := strings.Split(strings.Trim(repoID, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", repoID)
	}
	return parts[0], parts[1], nil
}
