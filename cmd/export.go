package cmd

import (
	"fmt"

	"github.com/devanalytics/devanalytics/internal/parquet"
	"github.com/spf13/cobra"
)

// exportPrefix is the output path prefix for the export command.
var exportPrefix string

// exportCmd runs an analysis and writes the results as Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export [repos...]",
	Short: "Analyze repositories and export snapshots to Parquet files",
	Long: `Run the same analysis as 'analyze' and write two Parquet files:
<prefix>_snapshots.parquet with one row per (repository, window) and
<prefix>_hotspots.parquet with one row per ranked hotspot file.

Examples:
  # Export daily snapshots for the current repository
  devanalytics export .

  # Export weekly snapshots under a custom prefix
  devanalytics export --window weekly --prefix ./out/report ./repo-a`,
	Args:     cobra.MinimumNArgs(1),
	PreRunE:  sharedSetup,
	PostRunE: closeStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		snaps, err := runAnalysis(rootCtx)
		if err != nil {
			return err
		}

		snapshotPath := exportPrefix + "_snapshots.parquet"
		if err := parquet.WriteSnapshotsParquet(parquet.SnapshotRows(snaps), snapshotPath); err != nil {
			return err
		}
		hotspotPath := exportPrefix + "_hotspots.parquet"
		if err := parquet.WriteHotspotsParquet(parquet.HotspotRows(snaps), hotspotPath); err != nil {
			return err
		}

		fmt.Printf("Exported %d snapshots to %s and %s\n", len(snaps), snapshotPath, hotspotPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "devanalytics", "Output path prefix for Parquet files")
}
