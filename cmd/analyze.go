package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/devanalytics/devanalytics/core"
	"github.com/devanalytics/devanalytics/internal/ingest"
	"github.com/devanalytics/devanalytics/internal/logging"
	"github.com/devanalytics/devanalytics/internal/outwriter"
	"github.com/devanalytics/devanalytics/schema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// analyzeCmd ingests repositories and prints per-window metric snapshots.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [repos...]",
	Short: "Ingest repositories and report per-window performance indicators",
	Long: `Ingest commit history and compute one metric snapshot per time window:
commit count, total churn, distinct contributors, contributor
concentration, and the top-N hotspot files by churn.

Repositories are processed concurrently and independently. For the
gitlog source each argument is a path to a working copy; for the github
source each argument takes the owner/name form.

Examples:
  # Daily snapshots for the current repository
  devanalytics analyze .

  # Weekly snapshots for two repositories, as JSON
  devanalytics analyze --window weekly --output json ./repo-a ./repo-b

  # Snapshots for a GitHub repository within a range
  devanalytics analyze --source github --start 2026-01-01T00:00:00Z golang/go`,
	Args:     cobra.MinimumNArgs(1),
	PreRunE:  sharedSetup,
	PostRunE: closeStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		snaps, err := runAnalysis(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.WriteSnapshots(os.Stdout, snaps, cfg.Output, cfg.OutputFile, cfg.NoColor)
	},
}

// newSource builds the configured ingestion source.
func newSource() (ingest.Source, error) {
	switch cfg.Source {
	case schema.GitHubSourceKind:
		return ingest.NewGitHubSource(cfg.GitHubToken), nil
	case schema.GitLogSourceKind:
		return ingest.NewGitLogSource(), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}
}

// runAnalysis ingests all configured repositories concurrently and
// queries their snapshots over the configured range. Results keep the
// repository argument order regardless of completion order.
func runAnalysis(ctx context.Context) ([]schema.MetricSnapshot, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}

	history := core.NewHistory()
	ingestor := core.NewIngestor(src, snapStore, history, cfg.Window, cfg.HotspotTopN)
	facade := core.NewFacade(snapStore, history, cfg.Window, cfg.HotspotTopN)

	results := make([][]schema.MetricSnapshot, len(cfg.Repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, repoID := range cfg.Repos {
		g.Go(func() error {
			stats, err := ingestor.Run(gctx, repoID)
			if err != nil {
				return err
			}
			if stats.Skipped > 0 {
				logging.L().WithField("repo", repoID).Warnf("skipped %d malformed records", stats.Skipped)
			}
			snaps, err := facade.Query(gctx, repoID, cfg.StartTime, cfg.EndTime)
			if err != nil {
				return err
			}
			results[i] = snaps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Non-nil even when empty so JSON output stays an array.
	snaps := []schema.MetricSnapshot{}
	for _, r := range results {
		snaps = append(snaps, r...)
	}
	return snaps, nil
}
