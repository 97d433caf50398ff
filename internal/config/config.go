// Package config provides configuration management for the kiosk service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"dario.cat/mergo"
	"github.com/robfig/cron/v3"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

// Strategy names accepted in pipeline.strategies.
const (
	StrategyValuesAPI   = "values_api"
	StrategyMetadataCSV = "metadata_csv"
	StrategyGviz        = "gviz"
	StrategyFixture     = "fixture"
	StrategySnapshot    = "snapshot"
)

// Environment variables that override file settings.
const (
	EnvAPIKey        = "KIOSK_SHEETS_API_KEY"
	EnvSpreadsheetID = "KIOSK_SPREADSHEET_ID"
	EnvServerAddr    = "KIOSK_SERVER_ADDR"
	EnvLogLevel      = "KIOSK_LOG_LEVEL"
)

// Configuration validation errors.
var (
	ErrMissingSpreadsheetID     = errors.New("source.spreadsheet_id is required")
	ErrMissingSheetName         = errors.New("source.sheet_name is required")
	ErrInvalidBaseURL           = errors.New("source base URLs must be absolute http(s) URLs")
	ErrNoStrategies             = errors.New("pipeline.strategies must list at least one strategy")
	ErrUnknownStrategy          = errors.New("unknown pipeline strategy")
	ErrDuplicateStrategy        = errors.New("pipeline strategy listed more than once")
	ErrSnapshotWithoutStorage   = errors.New("snapshot strategy requires storage.path")
	ErrInvalidSchedule          = errors.New("pipeline.refresh_schedule is not a valid cron spec")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidInterval          = errors.New("display intervals must be at least 1 second")
	ErrInvalidCacheSize         = errors.New("images.cache_size must be non-negative")
	ErrMissingServerAddr        = errors.New("server.addr is required")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be one of: text, json, pretty")
	ErrUnsupportedConfigFormat  = errors.New("config file must be .yaml, .yml, .json or .json5")
)

// Config represents the complete kiosk configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" json:"source"`
	Pipeline  PipelineConfig  `yaml:"pipeline" json:"pipeline"`
	Display   DisplayConfig   `yaml:"display" json:"display"`
	Images    ImagesConfig    `yaml:"images" json:"images"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Features  FeaturesConfig  `yaml:"features" json:"features"`
}

// SourceConfig identifies the spreadsheet and the endpoints used to reach it.
type SourceConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	SheetName     string `yaml:"sheet_name" json:"sheet_name"`
	APIKey        string `yaml:"api_key" json:"api_key"`
	SheetsBaseURL string `yaml:"sheets_base_url" json:"sheets_base_url"`
	ExportBaseURL string `yaml:"export_base_url" json:"export_base_url"`
	BufferSizeKb  int    `yaml:"buffer_size_kb" json:"buffer_size_kb"`
}

// PipelineConfig controls strategy order and refresh cadence.
type PipelineConfig struct {
	RefreshSchedule string      `yaml:"refresh_schedule" json:"refresh_schedule"`
	Strategies      []string    `yaml:"strategies" json:"strategies"`
	Retry           RetryPolicy `yaml:"retry" json:"retry"`
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts" json:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms" json:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec" json:"timeout_sec"`
}

// DisplayConfig holds the timing contract of the display surface.
type DisplayConfig struct {
	Timezone         string `yaml:"timezone" json:"timezone"`
	SlideIntervalSec int    `yaml:"slide_interval_sec" json:"slide_interval_sec"`
	IdleTimeoutSec   int    `yaml:"idle_timeout_sec" json:"idle_timeout_sec"`
	ClockIntervalSec int    `yaml:"clock_interval_sec" json:"clock_interval_sec"`

	// PanelsPath replaces the built-in menu panels with a YAML file.
	PanelsPath string `yaml:"panels_path" json:"panels_path"`
}

// ImagesConfig configures placeholders and the normalization cache.
type ImagesConfig struct {
	PlaceholderBaseURL string `yaml:"placeholder_base_url" json:"placeholder_base_url"`
	PlaceholderLabel   string `yaml:"placeholder_label" json:"placeholder_label"`
	CacheSize          int    `yaml:"cache_size" json:"cache_size"`
	CacheTTLSec        int    `yaml:"cache_ttl_sec" json:"cache_ttl_sec"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr               string  `yaml:"addr" json:"addr"`
	RefreshPerMinute   float64 `yaml:"refresh_per_minute" json:"refresh_per_minute"`
	RefreshBurst       int     `yaml:"refresh_burst" json:"refresh_burst"`
	ShutdownTimeoutSec int     `yaml:"shutdown_timeout_sec" json:"shutdown_timeout_sec"`
}

// StorageConfig points at the SQLite history database. An empty path disables it.
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name" json:"service_name"`
	Insecure     bool   `yaml:"insecure" json:"insecure"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableDiagnostics bool `yaml:"enable_diagnostics" json:"enable_diagnostics"`
	EnableCaching     bool `yaml:"enable_caching" json:"enable_caching"`
	SchemaWarnings    bool `yaml:"schema_warnings" json:"schema_warnings"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			SpreadsheetID: "1f74bbovZFgzWKTJnha4XEESEu6qWfBVLmMVu0XZvdYw",
			SheetName:     "Main",
			SheetsBaseURL: "https://sheets.googleapis.com/v4/spreadsheets",
			ExportBaseURL: "https://docs.google.com/spreadsheets/d",
			BufferSizeKb:  2048,
		},
		Pipeline: PipelineConfig{
			RefreshSchedule: "@every 10m",
			Strategies:      []string{StrategyValuesAPI, StrategyMetadataCSV},
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        5000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        15,
			},
		},
		Display: DisplayConfig{
			Timezone:         "Asia/Manila",
			SlideIntervalSec: 5,
			IdleTimeoutSec:   300,
			ClockIntervalSec: 60,
		},
		Images: ImagesConfig{
			PlaceholderBaseURL: "https://via.placeholder.com/800x400/28a745/ffffff",
			PlaceholderLabel:   "SKSU",
			CacheSize:          512,
			CacheTTLSec:        3600,
		},
		Server: ServerConfig{
			Addr:               ":8080",
			RefreshPerMinute:   6,
			RefreshBurst:       2,
			ShutdownTimeoutSec: 10,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "kiosk",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Features: FeaturesConfig{
			EnableCaching:  true,
			SchemaWarnings: true,
		},
	}
}

// LoadConfig loads configuration from a YAML or JSON5 file on top of Default.
// A sibling <name>.local.<ext> file, when present, overrides non-zero values.
// Environment overrides are applied last, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := unmarshal(path, data, cfg); err != nil {
		return nil, err
	}

	localPath := LocalPath(path)

	localData, err := os.ReadFile(localPath)

	switch {
	case err == nil:
		var override Config
		if err := unmarshal(localPath, localData, &override); err != nil {
			return nil, err
		}

		if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge local overrides: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read local config file: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LocalPath returns the override file path for path: "kiosk.yaml" becomes "kiosk.local.yaml".
func LocalPath(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML %s: %w", path, err)
		}
	case ".json", ".json5":
		if err := json5.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON5 %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
	}

	return nil
}

// ApplyEnv overrides secrets and deployment settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Source.APIKey = v
	}

	if v, ok := lookup(EnvSpreadsheetID); ok && v != "" {
		c.Source.SpreadsheetID = v
	}

	if v, ok := lookup(EnvServerAddr); ok && v != "" {
		c.Server.Addr = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.SpreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}

	if c.Source.SheetName == "" {
		return ErrMissingSheetName
	}

	for name, raw := range map[string]string{
		"sheets_base_url": c.Source.SheetsBaseURL,
		"export_base_url": c.Source.ExportBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: source.%s", ErrInvalidBaseURL, name)
		}
	}

	if err := c.validateStrategies(); err != nil {
		return err
	}

	// An empty schedule disables periodic refresh.
	if c.Pipeline.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.Pipeline.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
	}

	// Validate retry policy
	retry := c.Pipeline.Retry
	if retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Display.SlideIntervalSec < 1 || c.Display.IdleTimeoutSec < 1 || c.Display.ClockIntervalSec < 1 {
		return ErrInvalidInterval
	}

	if c.Display.Timezone != "" {
		if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
			return fmt.Errorf("display.timezone is invalid: %w", err)
		}
	}

	if c.Images.CacheSize < 0 {
		return ErrInvalidCacheSize
	}

	if c.Server.Addr == "" {
		return ErrMissingServerAddr
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"text": true, "json": true, "pretty": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

func (c *Config) validateStrategies() error {
	if len(c.Pipeline.Strategies) == 0 {
		return ErrNoStrategies
	}

	known := map[string]bool{
		StrategyValuesAPI:   true,
		StrategyMetadataCSV: true,
		StrategyGviz:        true,
		StrategyFixture:     true,
		StrategySnapshot:    true,
	}
	seen := make(map[string]bool, len(c.Pipeline.Strategies))

	for _, name := range c.Pipeline.Strategies {
		if !known[name] {
			return fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}

		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateStrategy, name)
		}

		seen[name] = true
	}

	if seen[StrategySnapshot] && c.Storage.Path == "" {
		return ErrSnapshotWithoutStorage
	}

	return nil
}

// NeedsAPIKey reports whether an enabled strategy calls the authenticated API.
func (c *Config) NeedsAPIKey() bool {
	for _, name := range c.Pipeline.Strategies {
		if name == StrategyValuesAPI || name == StrategyMetadataCSV {
			return true
		}
	}

	return false
}

// Location returns the display timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Display.Timezone == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.Local
	}

	return loc
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// GetStrategyTimeout returns the budget for one pipeline strategy: every
// attempt may use the full request timeout, plus the backoff between attempts.
func (rp *RetryPolicy) GetStrategyTimeout() time.Duration {
	attempts := max(rp.MaxAttempts, 1)
	budget := time.Duration(attempts) * rp.GetTimeout()

	for attempt := 2; attempt <= attempts; attempt++ {
		budget += rp.GetRetryDelay(attempt)
	}

	return budget
}

// SlideInterval returns the slide advance interval.
func (d DisplayConfig) SlideInterval() time.Duration {
	return time.Duration(d.SlideIntervalSec) * time.Second
}

// IdleTimeout returns the inactivity period before the display resets.
func (d DisplayConfig) IdleTimeout() time.Duration {
	return time.Duration(d.IdleTimeoutSec) * time.Second
}

// ClockInterval returns the clock update interval.
func (d DisplayConfig) ClockInterval() time.Duration {
	return time.Duration(d.ClockIntervalSec) * time.Second
}

// CacheTTL returns the lifetime of a cached normalization result.
func (i ImagesConfig) CacheTTL() time.Duration {
	return time.Duration(i.CacheTTLSec) * time.Second
}

// ShutdownTimeout returns how long the server waits for in-flight requests on shutdown.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Spreadsheet: %s, Sheet: %s, Strategies: %s, MaxAttempts: %d, Addr: %s}",
		c.Source.SpreadsheetID,
		c.Source.SheetName,
		strings.Join(c.Pipeline.Strategies, ","),
		c.Pipeline.Retry.MaxAttempts,
		c.Server.Addr,
	)
}
