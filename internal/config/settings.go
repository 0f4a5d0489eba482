// Package config holds the editor's configuration: process settings read from
// the environment, and user preferences persisted under ~/.config/csvedit.
package config

import "time"

// Settings holds process-level configuration.
// All settings can be configured via environment variables.
type Settings struct {
	Logging  LoggingSettings
	Grid     GridSettings
	Database DatabaseSettings
}

// LoggingSettings holds logging settings.
type LoggingSettings struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"CSVEDIT_LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"CSVEDIT_LOG_FORMAT" default:"text"`

	// File is where logs are written (default: ~/.config/csvedit/csvedit.log)
	File string `env:"CSVEDIT_LOG_FILE"`
}

// GridSettings holds grid and file limits.
type GridSettings struct {
	// DefaultRows is the number of data rows in a new grid (default: 100)
	DefaultRows int `env:"CSVEDIT_DEFAULT_ROWS" default:"100"`

	// DefaultCols is the number of columns in a new grid (default: 20)
	DefaultCols int `env:"CSVEDIT_DEFAULT_COLS" default:"20"`

	// MaxFileSize is the largest file that will be opened, in bytes (default: 50MiB)
	MaxFileSize int64 `env:"CSVEDIT_MAX_FILE_SIZE" default:"52428800"`
}

// DatabaseSettings holds the optional export target.
type DatabaseSettings struct {
	// URL is the PostgreSQL connection string; export is disabled when empty
	URL string `env:"CSVEDIT_DATABASE_URL" envAlt:"DATABASE_URL"`

	// ExportTimeout bounds a single export (default: 30s)
	ExportTimeout time.Duration `env:"CSVEDIT_EXPORT_TIMEOUT" default:"30s"`
}
