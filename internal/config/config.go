// Package config provides centralized configuration for the sync pipeline.
// Settings come from environment variables (optionally via a .env file) and
// are validated on startup so misconfiguration fails before any I/O.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Grist  GristConfig
	Sheets SheetsConfig
	Dirs   DirConfig
	Sync   SyncConfig
	Log    LogConfig
}

// GristConfig holds the destination table store connection settings.
type GristConfig struct {
	// APIKey is the Grist bearer token (required for any Grist call).
	APIKey string

	// DocID is the Grist document identifier (required).
	DocID string

	// TableName is the destination table within the document (required).
	TableName string

	// BaseHost is the Grist server base URL.
	BaseHost string
}

// SheetsConfig holds the spreadsheet source settings.
type SheetsConfig struct {
	// CredentialsPath is the service-account JSON key file (required for fetch).
	CredentialsPath string

	// SpreadsheetID is the Google Sheets document key (required for fetch).
	SpreadsheetID string

	// WorksheetName is the tab to read (default: Sheet1).
	WorksheetName string
}

// DirConfig holds the local staging filesystem layout.
type DirConfig struct {
	// Data receives the raw fetch snapshot files.
	Data string

	// Staging receives filtered batches awaiting upload.
	Staging string

	// Archive receives consumed files with timestamped names.
	Archive string
}

// SyncConfig holds tuning knobs for the reconciliation engine.
type SyncConfig struct {
	// QueryWindow caps how many recent destination records are fetched for
	// timestamp-cursor resolution and duplicate comparison.
	QueryWindow int

	// PerRecordDelay is a fixed pause between per-record remote calls, used
	// only to stay under remote rate limits.
	PerRecordDelay time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	// File, when set, duplicates log output to a rotating file.
	File string

	// Level is the minimum log level (default: info).
	Level string

	// MaxSizeMB is the log rotation threshold.
	MaxSizeMB int

	// Backups is how many rotated log files to keep.
	Backups int
}

const (
	defaultBaseHost    = "http://safcost.duckdns.org:8484"
	defaultWorksheet   = "Sheet1"
	defaultDataDir     = "data"
	defaultStagingDir  = "UploadGrist"
	defaultArchiveDir  = "archive"
	defaultQueryWindow = 200
)

// Load reads configuration from the environment, loading a .env file first
// when one is present. Missing optional values get defaults; required values
// are checked separately by the Validate* methods so each subcommand only
// demands what it uses.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Grist: GristConfig{
			APIKey:    os.Getenv("GRIST_API_KEY"),
			DocID:     os.Getenv("GRIST_DOC_ID"),
			TableName: os.Getenv("GRIST_TABLE_NAME"),
			BaseHost:  envOrDefault("GRIST_BASE_HOST", defaultBaseHost),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GSHEET_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GSHEET_ID"),
			WorksheetName:   envOrDefault("WORKSHEET_NAME", defaultWorksheet),
		},
		Dirs: DirConfig{
			Data:    envOrDefault("DATA_DIR", defaultDataDir),
			Staging: envOrDefault("UPLOAD_GRIST_DIR", defaultStagingDir),
			Archive: envOrDefault("ARCHIVE_DIR", defaultArchiveDir),
		},
		Log: LogConfig{
			File:  os.Getenv("LOG_FILE"),
			Level: envOrDefault("LOG_LEVEL", "info"),
		},
	}

	var err error
	cfg.Sync.QueryWindow, err = envIntOrDefault("GRIST_QUERY_WINDOW", defaultQueryWindow)
	if err != nil {
		return nil, err
	}
	if cfg.Sync.QueryWindow <= 0 {
		return nil, fmt.Errorf("GRIST_QUERY_WINDOW must be positive, got %d", cfg.Sync.QueryWindow)
	}

	delayMs, err := envIntOrDefault("PER_RECORD_DELAY_MS", 0)
	if err != nil {
		return nil, err
	}
	cfg.Sync.PerRecordDelay = time.Duration(delayMs) * time.Millisecond

	cfg.Log.MaxSizeMB, err = envIntOrDefault("LOG_MAX_SIZE_MB", 5)
	if err != nil {
		return nil, err
	}
	cfg.Log.Backups, err = envIntOrDefault("LOG_BACKUP_COUNT", 5)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateGrist checks the settings needed to talk to the destination store.
func (c *Config) ValidateGrist() error {
	var missing []string
	if c.Grist.APIKey == "" {
		missing = append(missing, "GRIST_API_KEY")
	}
	if c.Grist.DocID == "" {
		missing = append(missing, "GRIST_DOC_ID")
	}
	if c.Grist.TableName == "" {
		missing = append(missing, "GRIST_TABLE_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSheets checks the settings needed to read the spreadsheet source.
func (c *Config) ValidateSheets() error {
	var missing []string
	if c.Sheets.CredentialsPath == "" {
		missing = append(missing, "GSHEET_CREDENTIALS_PATH")
	}
	if c.Sheets.SpreadsheetID == "" {
		missing = append(missing, "GSHEET_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EnsureDirs creates the data, staging and archive directories if absent.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Dirs.Data, c.Dirs.Staging, c.Dirs.Archive} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	return n, nil
}
