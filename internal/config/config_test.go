package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, name)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

func noEnv(string) (string, bool) { return "", false }

// validConfigYAML overrides a subset of the defaults.
const validConfigYAML = `
source:
  spreadsheet_id: "sheet-123"
  sheet_name: "Main"
  api_key: "file-key"
pipeline:
  refresh_schedule: "@every 5m"
  strategies: ["values_api", "metadata_csv", "gviz"]
  retry:
    max_attempts: 2
    initial_delay_ms: 100
    max_delay_ms: 1000
    backoff_multiplier: 2.0
    timeout_sec: 5
logging:
  level: "debug"
  format: "json"
features:
  enable_diagnostics: true
`

func TestLoadConfig_Valid(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	configPath := createTempConfigFile(t, "kiosk.yaml", validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Source.SpreadsheetID != "sheet-123" {
		t.Errorf("Expected spreadsheet 'sheet-123', got '%s'", cfg.Source.SpreadsheetID)
	}

	if len(cfg.Pipeline.Strategies) != 3 || cfg.Pipeline.Strategies[2] != StrategyGviz {
		t.Errorf("Expected three strategies ending in gviz, got %v", cfg.Pipeline.Strategies)
	}

	// untouched sections keep their defaults
	if cfg.Display.SlideIntervalSec != 5 {
		t.Errorf("Expected default slide interval 5, got %d", cfg.Display.SlideIntervalSec)
	}

	if cfg.Source.SheetsBaseURL != Default().Source.SheetsBaseURL {
		t.Errorf("Expected default sheets base URL, got %s", cfg.Source.SheetsBaseURL)
	}

	if !cfg.Features.EnableDiagnostics {
		t.Error("Expected diagnostics enabled")
	}
}

func TestLoadConfig_JSON5WithLocalOverride(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	configPath := createTempConfigFile(t, "kiosk.json5", `{
		// comments and trailing commas are allowed
		source: {spreadsheet_id: "base", api_key: "base-key",},
		server: {addr: ":9000"},
	}`)

	local := LocalPath(configPath)
	if err := os.WriteFile(local, []byte(`{source: {api_key: "local-key"}}`), 0o644); err != nil {
		t.Fatalf("Failed to write local override: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Source.APIKey != "local-key" {
		t.Errorf("Expected local override api key, got %q", cfg.Source.APIKey)
	}

	if cfg.Source.SpreadsheetID != "base" {
		t.Errorf("Expected base spreadsheet id to survive merge, got %q", cfg.Source.SpreadsheetID)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Expected addr :9000, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")
	t.Setenv(EnvLogLevel, "WARN")

	configPath := createTempConfigFile(t, "kiosk.yaml", validConfigYAML)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Source.APIKey != "env-key" {
		t.Errorf("Expected env api key, got %q", cfg.Source.APIKey)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected level warn, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file, got nil")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := createTempConfigFile(t, "kiosk.yaml", "invalid: yaml: content: [}")

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	configPath := createTempConfigFile(t, "kiosk.toml", "x = 1")

	_, err := LoadConfig(configPath)
	if !errors.Is(err, ErrUnsupportedConfigFormat) {
		t.Fatalf("Expected ErrUnsupportedConfigFormat, got %v", err)
	}
}

func TestLocalPath(t *testing.T) {
	tests := map[string]string{
		"kiosk.yaml":           "kiosk.local.yaml",
		"/etc/kiosk/app.json5": "/etc/kiosk/app.local.json5",
		"noext":                "noext.local",
	}

	for in, want := range tests {
		if got := LocalPath(in); got != want {
			t.Errorf("LocalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(noEnv)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate, got %v", err)
	}

	if !cfg.NeedsAPIKey() {
		t.Error("Default strategies call the authenticated API")
	}
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing spreadsheet", func(c *Config) { c.Source.SpreadsheetID = "" }, ErrMissingSpreadsheetID},
		{"missing sheet", func(c *Config) { c.Source.SheetName = "" }, ErrMissingSheetName},
		{"bad base url", func(c *Config) { c.Source.ExportBaseURL = "docs.google.com" }, ErrInvalidBaseURL},
		{"no strategies", func(c *Config) { c.Pipeline.Strategies = nil }, ErrNoStrategies},
		{"unknown strategy", func(c *Config) { c.Pipeline.Strategies = []string{"carrier_pigeon"} }, ErrUnknownStrategy},
		{"duplicate strategy", func(c *Config) { c.Pipeline.Strategies = []string{"gviz", "gviz"} }, ErrDuplicateStrategy},
		{"snapshot without storage", func(c *Config) { c.Pipeline.Strategies = []string{"snapshot"} }, ErrSnapshotWithoutStorage},
		{"bad schedule", func(c *Config) { c.Pipeline.RefreshSchedule = "every ten minutes" }, ErrInvalidSchedule},
		{"max attempts", func(c *Config) { c.Pipeline.Retry.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"initial delay", func(c *Config) { c.Pipeline.Retry.InitialDelayMs = -1 }, ErrInvalidInitialDelay},
		{"backoff", func(c *Config) { c.Pipeline.Retry.BackoffMultiplier = 0.5 }, ErrInvalidBackoffMultiplier},
		{"timeout", func(c *Config) { c.Pipeline.Retry.TimeoutSec = 0 }, ErrInvalidTimeout},
		{"interval", func(c *Config) { c.Display.IdleTimeoutSec = 0 }, ErrInvalidInterval},
		{"cache size", func(c *Config) { c.Images.CacheSize = -1 }, ErrInvalidCacheSize},
		{"server addr", func(c *Config) { c.Server.Addr = "" }, ErrMissingServerAddr},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfig_Validate_SnapshotWithStorage(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Strategies = []string{StrategyFixture, StrategySnapshot}
	cfg.Storage.Path = "kiosk.db"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	if cfg.NeedsAPIKey() {
		t.Error("fixture and snapshot strategies do not need an API key")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Source.SheetName = "Announcements"

	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Source.SheetName != "Announcements" {
		t.Errorf("Expected sheet 'Announcements', got %q", loaded.Source.SheetName)
	}
}

// --- RetryPolicy Tests ---

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	rp := RetryPolicy{
		InitialDelayMs:    100,
		MaxDelayMs:        1000,
		BackoffMultiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 0},                        // First attempt, no delay
		{2, 200 * time.Millisecond},   // 100 * 2
		{3, 400 * time.Millisecond},   // 100 * 2 * 2
		{4, 800 * time.Millisecond},   // 100 * 2 * 2 * 2
		{5, 1000 * time.Millisecond},  // Capped at max
		{10, 1000 * time.Millisecond}, // Still capped
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := rp.GetRetryDelay(tt.attempt)
			if got != tt.expected {
				t.Errorf("GetRetryDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestRetryPolicy_GetTimeout(t *testing.T) {
	rp := RetryPolicy{TimeoutSec: 30}
	expected := 30 * time.Second

	if got := rp.GetTimeout(); got != expected {
		t.Errorf("GetTimeout() = %v, want %v", got, expected)
	}
}

func TestRetryPolicy_GetStrategyTimeout(t *testing.T) {
	tests := []struct {
		name string
		rp   RetryPolicy
		want time.Duration
	}{
		{
			name: "single attempt",
			rp:   RetryPolicy{MaxAttempts: 1, TimeoutSec: 15, InitialDelayMs: 500, MaxDelayMs: 5000, BackoffMultiplier: 2},
			want: 15 * time.Second,
		},
		{
			name: "defaults leave room for every retry",
			rp:   Default().Pipeline.Retry,
			want: 3*15*time.Second + 1000*time.Millisecond + 2000*time.Millisecond,
		},
		{
			name: "zero attempts treated as one",
			rp:   RetryPolicy{TimeoutSec: 5},
			want: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rp.GetStrategyTimeout(); got != tt.want {
				t.Errorf("GetStrategyTimeout() = %v, want %v", got, tt.want)
			}

			if got := tt.rp.GetStrategyTimeout(); got < tt.rp.GetTimeout() {
				t.Errorf("strategy budget %v is shorter than one request %v", got, tt.rp.GetTimeout())
			}
		})
	}
}

func TestDisplayConfig_Durations(t *testing.T) {
	d := Default().Display

	if d.SlideInterval() != 5*time.Second || d.IdleTimeout() != 300*time.Second || d.ClockInterval() != time.Minute {
		t.Errorf("unexpected display durations: %v %v %v", d.SlideInterval(), d.IdleTimeout(), d.ClockInterval())
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := Default()

	if got := cfg.Location().String(); got != "Asia/Manila" {
		t.Errorf("Location() = %s, want Asia/Manila", got)
	}

	cfg.Display.Timezone = ""
	if cfg.Location() != time.Local {
		t.Error("empty timezone should fall back to time.Local")
	}
}

func TestConfig_Validate_EmptyScheduleDisablesRefresh(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.RefreshSchedule = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
