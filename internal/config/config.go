// Package config manages wifitrackerd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete wifitrackerd configuration.
type Config struct {
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Track   TrackConfig   `koanf:"track"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// TrackConfig holds the tracker engine's tunables — this is the
// configuration surface named in the "Configuration options" list: scan
// cache age, scan interval, the three PNO schedules, scan retry bound,
// disconnect watchdog timeout, and the external auto-join gate.
type TrackConfig struct {
	// MaxScanAgeMS is the scan cache's hard upper bound on observation age.
	MaxScanAgeMS int64 `koanf:"max_scan_age_ms"`

	// ScanIntervalMS is added to the scan cache's max age to compute the
	// anti-flicker widened window after a failed scan cycle.
	ScanIntervalMS int64 `koanf:"scan_interval_ms"`

	// ConnectedScheduleSec is the PNO back-off schedule used while Wi-Fi
	// is enabled and not in the single-saved-network/roaming case.
	ConnectedScheduleSec []int64 `koanf:"connected_schedule_sec"`

	// DisconnectedScheduleSec is the PNO back-off schedule used while
	// Wi-Fi is disabled.
	DisconnectedScheduleSec []int64 `koanf:"disconnected_schedule_sec"`

	// SingleSavedConnectedScheduleSec is the PNO back-off schedule used
	// when exactly one network is saved and firmware roaming is active.
	SingleSavedConnectedScheduleSec []int64 `koanf:"single_saved_connected_schedule_sec"`

	// ScanRetryMax bounds how many consecutive rejected scan submissions
	// the scanner tolerates before resetting its retry counter.
	ScanRetryMax int `koanf:"scan_retry_max"`

	// DisconnectWatchdogMS is validated and copied into wifitrack.Config.
	// The engine's disconnect watchdog does not read it: a disconnect
	// request always waits a fixed 10 s for a platform callback before
	// synthesizing a failure.
	DisconnectWatchdogMS int64 `koanf:"disconnect_watchdog_ms"`

	// AutoJoinEnabledExternal is copied into wifitrack.Config. The engine
	// never initiates connections on its own and does not read this
	// field; Connect/Disconnect/Forget behave the same for either value.
	AutoJoinEnabledExternal bool `koanf:"auto_join_enabled_external"`

	// RateLimitMaxConnections and RateLimitIntervalSec bound how many
	// connection attempts the engine accepts per interval (§5).
	RateLimitMaxConnections int   `koanf:"rate_limit_max_connections"`
	RateLimitIntervalSec    int64 `koanf:"rate_limit_interval_sec"`
}

// Durations converts the three second-granularity schedules into
// time.Duration slices for wifitrack.Config.
func (tc TrackConfig) Durations() (connected, disconnected, singleSaved []time.Duration) {
	return secondsToDurations(tc.ConnectedScheduleSec),
		secondsToDurations(tc.DisconnectedScheduleSec),
		secondsToDurations(tc.SingleSavedConnectedScheduleSec)
}

func secondsToDurations(secs []int64) []time.Duration {
	out := make([]time.Duration, len(secs))
	for i, s := range secs {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults. The
// schedule defaults mirror wifitrack.DefaultScanSchedule (20s, 40s, 80s,
// 160s); the disconnected schedule backs off further since PNO scanning
// has a much larger power budget to spend.
func DefaultConfig() *Config {
	return &Config{
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Track: TrackConfig{
			MaxScanAgeMS:                     30_000,
			ScanIntervalMS:                   20_000,
			ConnectedScheduleSec:             []int64{20, 40, 80, 160},
			DisconnectedScheduleSec:          []int64{20, 40, 80, 160, 320},
			SingleSavedConnectedScheduleSec:  []int64{20, 40, 80},
			ScanRetryMax:                     3,
			DisconnectWatchdogMS:             10_000,
			AutoJoinEnabledExternal:          true,
			RateLimitMaxConnections:          5,
			RateLimitIntervalSec:             60,
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for wifitrackerd
// configuration. Variables are named WIFITRACKER_<section>_<key>, e.g.,
// WIFITRACKER_TRACK_MAX_SCAN_AGE_MS.
const envPrefix = "WIFITRACKER_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (WIFITRACKER_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	WIFITRACKER_METRICS_ADDR          -> metrics.addr
//	WIFITRACKER_METRICS_PATH          -> metrics.path
//	WIFITRACKER_LOG_LEVEL             -> log.level
//	WIFITRACKER_LOG_FORMAT            -> log.format
//	WIFITRACKER_TRACK_MAX_SCAN_AGE_MS -> track.max_scan_age_ms
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms WIFITRACKER_TRACK_MAX_SCAN_AGE_MS ->
// track.max_scan_age_ms. Strips the prefix, lowercases, and replaces the
// first _ with . — koanf's "." delimiter then resolves the section, and
// the rest of the name keeps its underscores to match the field's tag.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"metrics.addr":                           defaults.Metrics.Addr,
		"metrics.path":                           defaults.Metrics.Path,
		"log.level":                              defaults.Log.Level,
		"log.format":                             defaults.Log.Format,
		"track.max_scan_age_ms":                  defaults.Track.MaxScanAgeMS,
		"track.scan_interval_ms":                 defaults.Track.ScanIntervalMS,
		"track.connected_schedule_sec":           defaults.Track.ConnectedScheduleSec,
		"track.disconnected_schedule_sec":        defaults.Track.DisconnectedScheduleSec,
		"track.single_saved_connected_schedule_sec": defaults.Track.SingleSavedConnectedScheduleSec,
		"track.scan_retry_max":                   defaults.Track.ScanRetryMax,
		"track.disconnect_watchdog_ms":           defaults.Track.DisconnectWatchdogMS,
		"track.auto_join_enabled_external":       defaults.Track.AutoJoinEnabledExternal,
		"track.rate_limit_max_connections":       defaults.Track.RateLimitMaxConnections,
		"track.rate_limit_interval_sec":          defaults.Track.RateLimitIntervalSec,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyMetricsAddr indicates the metrics listen address is empty.
	ErrEmptyMetricsAddr = errors.New("metrics.addr must not be empty")

	// ErrInvalidMaxScanAge indicates max_scan_age_ms is not positive.
	ErrInvalidMaxScanAge = errors.New("track.max_scan_age_ms must be > 0")

	// ErrInvalidScanInterval indicates scan_interval_ms is not positive.
	ErrInvalidScanInterval = errors.New("track.scan_interval_ms must be > 0")

	// ErrInvalidScanRetryMax indicates scan_retry_max is zero.
	ErrInvalidScanRetryMax = errors.New("track.scan_retry_max must be >= 1")

	// ErrInvalidDisconnectWatchdog indicates disconnect_watchdog_ms is not positive.
	ErrInvalidDisconnectWatchdog = errors.New("track.disconnect_watchdog_ms must be > 0")

	// ErrInvalidRateLimit indicates the connect rate limiter's bounds are nonsensical.
	ErrInvalidRateLimit = errors.New("track.rate_limit_max_connections and rate_limit_interval_sec must be > 0")
)

// Validate checks the configuration for logical errors. Returns the
// first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}

	if cfg.Track.MaxScanAgeMS <= 0 {
		return ErrInvalidMaxScanAge
	}

	if cfg.Track.ScanIntervalMS <= 0 {
		return ErrInvalidScanInterval
	}

	if cfg.Track.ScanRetryMax < 1 {
		return ErrInvalidScanRetryMax
	}

	if cfg.Track.DisconnectWatchdogMS <= 0 {
		return ErrInvalidDisconnectWatchdog
	}

	if cfg.Track.RateLimitMaxConnections <= 0 || cfg.Track.RateLimitIntervalSec <= 0 {
		return ErrInvalidRateLimit
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
