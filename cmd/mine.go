package cmd

import (
	"fmt"
	"os"

	"github.com/devanalytics/devanalytics/core"
	"github.com/devanalytics/devanalytics/internal/ingest"
	"github.com/devanalytics/devanalytics/internal/outwriter"
	"github.com/spf13/cobra"
)

// mineCmd produces the full author-activity report for one repository.
var mineCmd = &cobra.Command{
	Use:   "mine <repo>",
	Short: "Produce a per-author activity report for one repository",
	Long: `Mine a repository's full commit history and report per-author metrics:
commit counts, insertions and deletions, weekday and weekly commit
frequency, and average streak length in days.

The report is emitted as JSON.

Examples:
  # Mine the current repository to stdout
  devanalytics mine .

  # Mine a GitHub repository to a file
  devanalytics mine --source github --output-file analytics.json golang/go`,
	Args:     cobra.ExactArgs(1),
	PreRunE:  sharedSetup,
	PostRunE: closeStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}

		repoID := cfg.Repos[0]
		it, err := src.Commits(rootCtx, repoID, "")
		if err != nil {
			return fmt.Errorf("mining %s: %w", repoID, err)
		}
		commits, err := ingest.Drain(it)
		if err != nil {
			return fmt.Errorf("mining %s: %w", repoID, err)
		}

		report := core.BuildMiningReport(repoID, commits)
		return outwriter.WriteMiningReport(os.Stdout, report, cfg.OutputFile)
	},
}
