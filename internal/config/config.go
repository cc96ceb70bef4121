package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abelbrown/reels/internal/logging"
	"github.com/abelbrown/reels/internal/reel"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "REELS_"

// Config is the persistent application configuration. Every field can be
// overridden from the environment, e.g. REELS_FEED_WINDOW=2.
type Config struct {
	Feed  FeedConfig  `json:"feed" envPrefix:"FEED_"`
	Media MediaConfig `json:"media" envPrefix:"MEDIA_"`

	// Sources are Media RSS / Atom feed URLs polled by the coordinator.
	Sources        []string `json:"sources" env:"SOURCES" envSeparator:","`
	RefreshMinutes int      `json:"refresh_minutes" env:"REFRESH_MINUTES"`

	// Manifest is an optional JSON manifest imported at startup.
	Manifest string `json:"manifest,omitempty" env:"MANIFEST"`
	DBPath   string `json:"db_path,omitempty" env:"DB"`
}

// FeedConfig tunes the feed controller.
type FeedConfig struct {
	Window        int     `json:"window" env:"WINDOW"`
	PrefetchPages int     `json:"prefetch_pages" env:"PREFETCH_PAGES"`
	PageSize      int     `json:"page_size" env:"PAGE_SIZE"`
	Threshold     float64 `json:"threshold" env:"THRESHOLD"`
	SnapEpsilon   float64 `json:"snap_epsilon" env:"SNAP_EPSILON"`
	StartMuted    bool    `json:"start_muted" env:"START_MUTED"`
}

// MediaConfig controls the probing media engine.
type MediaConfig struct {
	ProbeTimeoutMs  int     `json:"probe_timeout_ms" env:"PROBE_TIMEOUT_MS"`
	ProbesPerSecond float64 `json:"probes_per_second" env:"PROBES_PER_SECOND"`
	Burst           int     `json:"burst" env:"BURST"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			Window:        1,
			PrefetchPages: 2,
			PageSize:      20,
			Threshold:     reel.ActivationThreshold,
			SnapEpsilon:   reel.SnapEpsilon,
			StartMuted:    true,
		},
		Media: MediaConfig{
			ProbeTimeoutMs:  5000,
			ProbesPerSecond: 4,
			Burst:           2,
		},
		Sources:        []string{},
		RefreshMinutes: 15,
	}
}

// Dir is the data directory, ~/.reels unless REELS_HOME is set.
func Dir() string {
	if d := os.Getenv(EnvPrefix + "HOME"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".reels")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads the config file, falls back to defaults, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg, err := LoadFile(ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads config JSON from path. A missing file yields defaults; a
// corrupt one is logged and also yields defaults. Fields missing from
// the file keep their default values.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		logging.Warn("config unreadable, using defaults", "path", path, "err", err)
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// ApplyEnv overlays REELS_* variables. A nil environ reads the process
// environment. Unset variables leave fields untouched.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes config JSON to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every out-of-range field.
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.Window < 0 {
		errs = append(errs, fmt.Errorf("feed.window must be >= 0, got %d", c.Feed.Window))
	}
	if c.Feed.PrefetchPages < 0 {
		errs = append(errs, fmt.Errorf("feed.prefetch_pages must be >= 0, got %d", c.Feed.PrefetchPages))
	}
	if c.Feed.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("feed.page_size must be > 0, got %d", c.Feed.PageSize))
	}
	if c.Feed.Threshold <= 0 || c.Feed.Threshold > 1 {
		errs = append(errs, fmt.Errorf("feed.threshold must be in (0,1], got %v", c.Feed.Threshold))
	}
	if c.Feed.SnapEpsilon <= 0 {
		errs = append(errs, fmt.Errorf("feed.snap_epsilon must be > 0, got %v", c.Feed.SnapEpsilon))
	}
	if c.Media.ProbeTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("media.probe_timeout_ms must be > 0, got %d", c.Media.ProbeTimeoutMs))
	}
	if c.Media.ProbesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("media.probes_per_second must be > 0, got %v", c.Media.ProbesPerSecond))
	}
	if c.RefreshMinutes < 0 {
		errs = append(errs, fmt.Errorf("refresh_minutes must be >= 0, got %d", c.RefreshMinutes))
	}
	return errors.Join(errs...)
}

// ResolvedDBPath returns DBPath, or reels.db in the data directory.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(Dir(), "reels.db")
}

// ProbeTimeout is the per-load deadline for the media engine.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Media.ProbeTimeoutMs) * time.Millisecond
}

// RefreshInterval is how often sources are polled. Zero disables polling.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMinutes) * time.Minute
}

// ReelOptions builds controller options for a page extent in rows.
func (c *Config) ReelOptions(extent float64) reel.Options {
	opts := reel.DefaultOptions(extent)
	opts.Window = c.Feed.Window
	opts.PrefetchPages = c.Feed.PrefetchPages
	opts.Threshold = c.Feed.Threshold
	opts.Epsilon = c.Feed.SnapEpsilon
	opts.StartMuted = c.Feed.StartMuted
	return opts
}
