package config

import (
	"strings"
	"testing"
	"time"
)

func setGristEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GRIST_API_KEY", "key")
	t.Setenv("GRIST_DOC_ID", "doc")
	t.Setenv("GRIST_TABLE_NAME", "Transactions")
}

func TestLoad_Defaults(t *testing.T) {
	setGristEnv(t)
	t.Setenv("GRIST_BASE_HOST", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("GRIST_QUERY_WINDOW", "")
	t.Setenv("PER_RECORD_DELAY_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Grist.BaseHost != defaultBaseHost {
		t.Errorf("BaseHost = %q, want default %q", cfg.Grist.BaseHost, defaultBaseHost)
	}
	if cfg.Dirs.Data != defaultDataDir {
		t.Errorf("Data dir = %q, want %q", cfg.Dirs.Data, defaultDataDir)
	}
	if cfg.Sync.QueryWindow != defaultQueryWindow {
		t.Errorf("QueryWindow = %d, want %d", cfg.Sync.QueryWindow, defaultQueryWindow)
	}
	if cfg.Sync.PerRecordDelay != 0 {
		t.Errorf("PerRecordDelay = %v, want 0", cfg.Sync.PerRecordDelay)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setGristEnv(t)
	t.Setenv("GRIST_BASE_HOST", "http://localhost:8484")
	t.Setenv("GRIST_QUERY_WINDOW", "50")
	t.Setenv("PER_RECORD_DELAY_MS", "250")
	t.Setenv("WORKSHEET_NAME", "Statements")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Grist.BaseHost != "http://localhost:8484" {
		t.Errorf("BaseHost = %q", cfg.Grist.BaseHost)
	}
	if cfg.Sync.QueryWindow != 50 {
		t.Errorf("QueryWindow = %d, want 50", cfg.Sync.QueryWindow)
	}
	if cfg.Sync.PerRecordDelay != 250*time.Millisecond {
		t.Errorf("PerRecordDelay = %v, want 250ms", cfg.Sync.PerRecordDelay)
	}
	if cfg.Sheets.WorksheetName != "Statements" {
		t.Errorf("WorksheetName = %q, want Statements", cfg.Sheets.WorksheetName)
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	setGristEnv(t)
	t.Setenv("GRIST_QUERY_WINDOW", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for non-integer GRIST_QUERY_WINDOW")
	}
}

func TestValidateGrist_Missing(t *testing.T) {
	t.Setenv("GRIST_API_KEY", "")
	t.Setenv("GRIST_DOC_ID", "doc")
	t.Setenv("GRIST_TABLE_NAME", "")
	t.Setenv("GRIST_QUERY_WINDOW", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	err = cfg.ValidateGrist()
	if err == nil {
		t.Fatal("ValidateGrist() expected error")
	}
	if !strings.Contains(err.Error(), "GRIST_API_KEY") || !strings.Contains(err.Error(), "GRIST_TABLE_NAME") {
		t.Errorf("error should name the missing variables, got: %v", err)
	}
	if strings.Contains(err.Error(), "GRIST_DOC_ID") {
		t.Errorf("error should not name GRIST_DOC_ID, got: %v", err)
	}
}

func TestValidateSheets_Missing(t *testing.T) {
	t.Setenv("GSHEET_CREDENTIALS_PATH", "")
	t.Setenv("GSHEET_ID", "")
	t.Setenv("GRIST_QUERY_WINDOW", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := cfg.ValidateSheets(); err == nil {
		t.Fatal("ValidateSheets() expected error")
	}
}
