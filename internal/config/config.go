// Package config loads and saves perftop's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appDir     = "perftop"
	configFile = "config.yaml"
)

var pathOverride string

// SetPath overrides the default config path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// DefaultPath returns the config file location under the user config directory.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Config is the full perftop configuration.
type Config struct {
	// Refresh holds the sampling intervals.
	Refresh RefreshConfig `yaml:"refresh"`
	// Sparkline holds the chart defaults applied to every buffer.
	Sparkline SparklineConfig `yaml:"sparkline"`
	// History holds metric recording settings.
	History HistoryConfig `yaml:"history"`
	// Cleaner holds temporary file cleanup settings.
	Cleaner CleanerConfig `yaml:"cleaner"`
	// Log holds logging settings.
	Log LogConfig `yaml:"log"`
}

// RefreshConfig holds duration strings (e.g. "1s", "500ms").
type RefreshConfig struct {
	// Interval is the UI sampling tick.
	Interval string `yaml:"interval"`
	// ProcessInterval is the tick for the process list, which is costlier to collect.
	ProcessInterval string `yaml:"process_interval"`
}

type SparklineConfig struct {
	Capacity   int     `yaml:"capacity"`
	AutoScale  bool    `yaml:"auto_scale"`
	MaxValue   float64 `yaml:"max_value"`
	ShowGrid   bool    `yaml:"show_grid"`
	ShowLabels bool    `yaml:"show_labels"`

	LineColor string `yaml:"line_color"`
	// SecondaryColor draws the second series of a pair: swap, send and
	// disk writes.
	SecondaryColor  string `yaml:"secondary_color"`
	FillColor       string `yaml:"fill_color"`
	BackgroundColor string `yaml:"background_color"`
	GridColor       string `yaml:"grid_color"`

	// Headroom multiplies the auto-scaled max; HeadroomFloor is the smallest
	// auto-scaled max. 1 and 0 disable them.
	Headroom      float64 `yaml:"headroom"`
	HeadroomFloor float64 `yaml:"headroom_floor"`
}

type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite file. Empty uses the default data location.
	Path              string `yaml:"path"`
	RetentionDays     int    `yaml:"retention_days"`
	RecordingInterval string `yaml:"recording_interval"`
	FlushInterval     string `yaml:"flush_interval"`
	MaxPoints         int    `yaml:"max_points"`
}

type CleanerConfig struct {
	// Targets replaces the built-in target list when non-empty.
	Targets []CleanerTarget `yaml:"targets"`
	// MinAge is the default minimum file age for targets that set none.
	MinAge string `yaml:"min_age"`
}

type CleanerTarget struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	MinAge string `yaml:"min_age,omitempty"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File receives log output. Empty discards logs in the TUI.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Refresh: RefreshConfig{
			Interval:        "1s",
			ProcessInterval: "2s",
		},
		Sparkline: SparklineConfig{
			Capacity:        60,
			AutoScale:       false,
			MaxValue:        100,
			ShowGrid:        true,
			ShowLabels:      true,
			LineColor:       "39",
			SecondaryColor:  "205",
			BackgroundColor: "235",
			GridColor:       "238",
			Headroom:        1,
		},
		History: HistoryConfig{
			Enabled:           true,
			RetentionDays:     30,
			RecordingInterval: "5s",
			FlushInterval:     "30s",
			MaxPoints:         500,
		},
		Cleaner: CleanerConfig{
			MinAge: "24h",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config at DefaultPath and applies environment overrides.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads a YAML file over the defaults. A missing file yields the
// defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to DefaultPath.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Environment variables that take precedence over the file.
const (
	EnvLogLevel    = "PERFTOP_LOG_LEVEL"
	EnvHistoryPath = "PERFTOP_HISTORY_PATH"
	EnvRefresh     = "PERFTOP_REFRESH"
)

// ApplyEnv overlays PERFTOP_* variables onto c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvHistoryPath); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv(EnvRefresh); v != "" {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", EnvRefresh, err)
		}
		c.Refresh.Interval = v
	}
	return nil
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks value ranges and duration syntax.
func (c *Config) Validate() error {
	var errs []error
	check := func(name, value string, minimum time.Duration) {
		d, err := time.ParseDuration(value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		case d < minimum:
			errs = append(errs, fmt.Errorf("%s must be at least %s, got %s", name, minimum, d))
		}
	}

	check("refresh.interval", c.Refresh.Interval, 100*time.Millisecond)
	check("refresh.process_interval", c.Refresh.ProcessInterval, 100*time.Millisecond)

	if c.Sparkline.Capacity < 2 {
		errs = append(errs, fmt.Errorf("sparkline.capacity must be at least 2, got %d", c.Sparkline.Capacity))
	}
	if c.Sparkline.MaxValue <= 0 {
		errs = append(errs, fmt.Errorf("sparkline.max_value must be positive, got %v", c.Sparkline.MaxValue))
	}
	if c.Sparkline.Headroom < 1 {
		errs = append(errs, fmt.Errorf("sparkline.headroom must be at least 1, got %v", c.Sparkline.Headroom))
	}
	if c.Sparkline.HeadroomFloor < 0 {
		errs = append(errs, fmt.Errorf("sparkline.headroom_floor must be non-negative, got %v", c.Sparkline.HeadroomFloor))
	}

	if c.History.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("history.retention_days must be non-negative, got %d", c.History.RetentionDays))
	}
	if c.History.MaxPoints < 2 {
		errs = append(errs, fmt.Errorf("history.max_points must be at least 2, got %d", c.History.MaxPoints))
	}
	check("history.recording_interval", c.History.RecordingInterval, 0)
	check("history.flush_interval", c.History.FlushInterval, 0)

	check("cleaner.min_age", c.Cleaner.MinAge, 0)
	for i, t := range c.Cleaner.Targets {
		if t.Name == "" || t.Path == "" {
			errs = append(errs, fmt.Errorf("cleaner.targets[%d] needs a name and a path", i))
		} else if !filepath.IsAbs(t.Path) {
			errs = append(errs, fmt.Errorf("cleaner.targets[%d].path must be absolute, got %q", i, t.Path))
		}
		if t.MinAge != "" {
			check(fmt.Sprintf("cleaner.targets[%d].min_age", i), t.MinAge, 0)
		}
	}

	if !slices.Contains(validLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s, got %q", strings.Join(validLevels, ", "), c.Log.Level))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// RefreshInterval parses Refresh.Interval, defaulting to one second.
func (c *Config) RefreshInterval() time.Duration {
	return parseDuration(c.Refresh.Interval, time.Second)
}

func (c *Config) ProcessInterval() time.Duration {
	return parseDuration(c.Refresh.ProcessInterval, 2*time.Second)
}

func (c *Config) RecordingInterval() time.Duration {
	return parseDuration(c.History.RecordingInterval, 5*time.Second)
}

func (c *Config) FlushInterval() time.Duration {
	return parseDuration(c.History.FlushInterval, 30*time.Second)
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// TargetMinAge returns the target's own minimum age or the cleaner default.
func (c *Config) TargetMinAge(t CleanerTarget) time.Duration {
	if t.MinAge != "" {
		return parseDuration(t.MinAge, 0)
	}
	return parseDuration(c.Cleaner.MinAge, 24*time.Hour)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
