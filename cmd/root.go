// Package cmd wires the devanalytics CLI commands together.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/devanalytics/devanalytics/internal/logging"
	"github.com/devanalytics/devanalytics/internal/store"
	"github.com/devanalytics/devanalytics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg holds the validated, final configuration.
var cfg = &schema.Config{}

// input holds the raw, unvalidated configuration from all sources
// (file, env, flags). Viper unmarshals into this struct.
var input = &schema.ConfigRawInput{}

// snapStore is the snapshot store shared by all commands.
var snapStore store.Store

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "devanalytics",
	Short:              "Evaluate repository and developer performance from commit history.",
	Long:               `DevAnalytics ingests repository history and computes per-window performance indicators: commit cadence, churn, contributor concentration, and file hotspots.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".devanalytics")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("DEVANALYTICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("source", schema.GitLogSourceKind)
	viper.SetDefault("window", schema.DefaultWindowSize)
	viper.SetDefault("top-n", schema.DefaultHotspotTopN)
	viper.SetDefault("workers", schema.DefaultWorkers)
	viper.SetDefault("store-backend", schema.SQLiteBackend)
	viper.SetDefault("store-connect", "")
	viper.SetDefault("output", schema.TextOut)
}

// sharedSetup merges configuration sources, validates them, and opens the
// snapshot store.
func sharedSetup(_ *cobra.Command, args []string) error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// Positional arguments, which viper does not manage.
	input.Repos = args

	if err := schema.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	logging.Setup(cfg.Verbose, cfg.NoColor)

	var err error
	snapStore, err = store.New(cfg.StoreBackend, cfg.StoreConnect)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	return nil
}

// storeSetup is like sharedSetup but for commands that take no repository
// arguments, such as the cache subcommands.
func storeSetup(cmd *cobra.Command, _ []string) error {
	return sharedSetup(cmd, []string{"."})
}

// closeStore releases the snapshot store after a command finishes.
func closeStore(_ *cobra.Command, _ []string) error {
	if snapStore != nil {
		return snapStore.Close()
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default: .devanalytics.yaml)")
	pf.String("source", string(schema.GitLogSourceKind), "Ingestion source: gitlog or github")
	pf.String("github-token", "", "Token for the GitHub source")
	pf.String("window", string(schema.DefaultWindowSize), "Window size: hourly, daily, weekly, or monthly")
	pf.Int("top-n", schema.DefaultHotspotTopN, "Number of hotspot files per window")
	pf.Int("workers", schema.DefaultWorkers, "Number of repositories processed concurrently")
	pf.String("store-backend", string(schema.SQLiteBackend), "Snapshot store backend: sqlite, mysql, postgresql, or none")
	pf.String("store-connect", "", "Connection string for SQL store backends")
	pf.String("output", string(schema.TextOut), "Output format: text, json, or csv")
	pf.String("output-file", "", "Optional path to write output directly")
	pf.String("start", "", "Start of query range in RFC3339 format")
	pf.String("end", "", "End of query range in RFC3339 format")
	pf.Bool("verbose", false, "Enable debug logging")
	pf.Bool("no-color", false, "Disable colorized output")

	_ = viper.BindPFlags(pf)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
