package cmd

import (
	"fmt"
	"strconv"

	"github.com/devanalytics/devanalytics/internal/store"
	"github.com/spf13/cobra"
)

// cacheCmd groups snapshot store maintenance commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the snapshot store",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// cacheStatusCmd reports how many snapshots the store holds.
var cacheStatusCmd = &cobra.Command{
	Use:      "status",
	Short:    "Show the number of stored snapshots",
	PreRunE:  storeSetup,
	PostRunE: closeStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		counter, ok := snapStore.(*store.SQLStore)
		if !ok {
			fmt.Println("Snapshot store is in-memory; nothing persisted.")
			return nil
		}
		n, err := counter.Count(rootCtx)
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot store (%s) holds %d snapshots\n", cfg.StoreBackend, n)
		return nil
	},
}

// cacheClearCmd removes all stored snapshots.
var cacheClearCmd = &cobra.Command{
	Use:      "clear",
	Short:    "Remove all stored snapshots",
	PreRunE:  storeSetup,
	PostRunE: closeStore,
	RunE: func(_ *cobra.Command, _ []string) error {
		clearer, ok := snapStore.(*store.SQLStore)
		if !ok {
			fmt.Println("Snapshot store is in-memory; nothing to clear.")
			return nil
		}
		if err := clearer.Clear(rootCtx); err != nil {
			return err
		}
		fmt.Println("Snapshot store cleared")
		return nil
	},
}

// cacheMigrateCmd runs schema migrations for the snapshot store.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run snapshot store schema migrations",
	Long: `Migrate the snapshot store schema. Without arguments the store
migrates to the latest version; a version argument targets that version,
and version 0 rolls back all migrations.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, args []string) error {
		// The migration opens its own connection; release the shared one.
		if err := snapStore.Close(); err != nil {
			return err
		}

		target := -1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("invalid target version %q", args[0])
			}
			target = v
		}
		if err := store.Migrate(cfg.StoreBackend, cfg.StoreConnect, target); err != nil {
			return err
		}
		fmt.Println("Migration complete")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)
}
