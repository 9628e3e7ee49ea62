package schema

// Custom string types for type safety.
type (
	// WindowSize represents the bucketing granularity for aggregation.
	WindowSize string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for snapshot storage.
	DatabaseBackend string

	// SourceKind represents the ingestion source for commit records.
	SourceKind string
)

// All window sizes supported.
const (
	HourlyWindow  WindowSize = "hourly"
	DailyWindow   WindowSize = "daily" // default
	WeeklyWindow  WindowSize = "weekly"
	MonthlyWindow WindowSize = "monthly"
)

// All output modes supported.
const (
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
	CSVOut  OutputMode = "csv"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All ingestion sources supported.
const (
	GitLogSourceKind SourceKind = "gitlog" // default
	GitHubSourceKind SourceKind = "github"
)

// Default values for configuration.
const (
	DefaultHotspotTopN = 10
	DefaultWindowSize  = DailyWindow
)

// ValidWindowSizes lists all valid window sizes.
var ValidWindowSizes = map[WindowSize]struct{}{
	HourlyWindow:  {},
	DailyWindow:   {},
	WeeklyWindow:  {},
	MonthlyWindow: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut: {},
	JSONOut: {},
	CSVOut:  {},
}

// ValidStoreBackends lists all valid store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSourceKinds lists all valid ingestion sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	GitLogSourceKind: {},
	GitHubSourceKind: {},
}
