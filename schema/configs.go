package schema

import (
	"fmt"
	"runtime"
	"time"
)

// DateTimeFormat is the default date time representation for flags and logs.
var DateTimeFormat = time.RFC3339

// DefaultWorkers is the default number of repositories processed concurrently.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the validated runtime configuration for an analysis run.
type Config struct {
	Repos        []string        // Repository identifiers (paths for gitlog, owner/name for github)
	Source       SourceKind      // Ingestion source kind
	GitHubToken  string          // Token for the GitHub source
	Window       WindowSize      // Bucketing granularity
	HotspotTopN  int             // Truncation length for hotspot ranking
	Workers      int             // Number of repositories processed concurrently
	StoreBackend DatabaseBackend // Snapshot store backend
	StoreConnect string          // DSN for SQL store backends
	Output       OutputMode      // Output format
	OutputFile   string          // Optional path to write output directly
	StartTime    time.Time       // Start of the query range (zero = full history)
	EndTime      time.Time       // End of the query range (zero = now)
	Verbose      bool            // Enable debug logging
	NoColor      bool            // Disable colorized table output
}

// ConfigRawInput holds the raw, unvalidated configuration merged from
// config file, environment and flags. Viper unmarshals into this struct.
type ConfigRawInput struct {
	Source       string `mapstructure:"source"`
	GitHubToken  string `mapstructure:"github-token"`
	Window       string `mapstructure:"window"`
	HotspotTopN  int    `mapstructure:"top-n"`
	Workers      int    `mapstructure:"workers"`
	StoreBackend string `mapstructure:"store-backend"`
	StoreConnect string `mapstructure:"store-connect"`
	Output       string `mapstructure:"output"`
	OutputFile   string `mapstructure:"output-file"`
	StartStr     string `mapstructure:"start"`
	EndStr       string `mapstructure:"end"`
	Verbose      bool   `mapstructure:"verbose"`
	NoColor      bool   `mapstructure:"no-color"`

	// Repos holds positional arguments, which viper does not manage.
	Repos []string `mapstructure:"-"`
}

// ProcessAndValidate turns raw input into a validated Config.
// It fails fast on unknown enum values and unparsable dates so that every
// downstream component can trust cfg without re-checking.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if len(input.Repos) == 0 {
		return fmt.Errorf("at least one repository is required")
	}
	cfg.Repos = input.Repos

	cfg.Source = SourceKind(input.Source)
	if _, ok := ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source %q: must be gitlog or github", input.Source)
	}
	cfg.GitHubToken = input.GitHubToken

	cfg.Window = WindowSize(input.Window)
	if _, ok := ValidWindowSizes[cfg.Window]; !ok {
		return fmt.Errorf("invalid window %q: must be hourly, daily, weekly, or monthly", input.Window)
	}

	if input.HotspotTopN <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", input.HotspotTopN)
	}
	cfg.HotspotTopN = input.HotspotTopN

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.StoreBackend = DatabaseBackend(input.StoreBackend)
	if _, ok := ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend %q: must be sqlite, mysql, postgresql, or none", input.StoreBackend)
	}
	cfg.StoreConnect = input.StoreConnect

	cfg.Output = OutputMode(input.Output)
	if _, ok := ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output %q: must be text, json, or csv", input.Output)
	}
	cfg.OutputFile = input.OutputFile

	if input.StartStr != "" {
		t, err := time.Parse(DateTimeFormat, input.StartStr)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", input.StartStr, err)
		}
		cfg.StartTime = t
	}
	if input.EndStr != "" {
		t, err := time.Parse(DateTimeFormat, input.EndStr)
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", input.EndStr, err)
		}
		cfg.EndTime = t
	}
	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && !cfg.StartTime.Before(cfg.EndTime) {
		return fmt.Errorf("start date must be before end date")
	}

	cfg.Verbose = input.Verbose
	cfg.NoColor = input.NoColor
	return nil
}
