// Package daemon wires configuration, storage and services together.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/holdfast-app/holdfast/internal/app/tracker"
)

// Config is the top-level HoldFast configuration (config.toml).
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Tracker   TrackerConfig   `toml:"tracker"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the local dashboard server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls where the record lives.
type StorageConfig struct {
	DBFile string `toml:"db_file"` // relative paths resolve against the home dir
}

// TrackerConfig controls day boundaries and cosmetic timing.
type TrackerConfig struct {
	Timezone            string `toml:"timezone"`             // IANA name or "Local"
	CelebrationDuration string `toml:"celebration_duration"` // Go duration, e.g. "3s"
}

// TelemetryConfig controls metrics and tracing.
type TelemetryConfig struct {
	Metrics  bool `toml:"metrics"`
	Tracing  bool `toml:"tracing"`
	MaxSpans int  `toml:"max_spans"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7420,
		},
		Storage: StorageConfig{
			DBFile: "holdfast.db",
		},
		Tracker: TrackerConfig{
			Timezone:            "Local",
			CelebrationDuration: "3s",
		},
		Telemetry: TelemetryConfig{
			Metrics:  true,
			Tracing:  true,
			MaxSpans: 1000,
		},
	}
}

// HomeDir returns the HoldFast data directory: $HOLDFAST_HOME or ~/.holdfast.
func HomeDir() string {
	if env := os.Getenv("HOLDFAST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".holdfast")
}

// LoadConfig reads .env (if present), then home/config.toml (if present),
// then applies environment overrides. A missing config file is not an error.
func LoadConfig(home string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path := filepath.Join(home, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOLDFAST_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = p
		}
	}
	if v := os.Getenv("HOLDFAST_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HOLDFAST_TZ"); v != "" {
		cfg.Tracker.Timezone = v
	}
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseDuration(c.Tracker.CelebrationDuration); err != nil {
		return fmt.Errorf("tracker.celebration_duration: %w", err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.Tracker.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Tracker.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tracker.timezone: %w", err)
	}
	return loc, nil
}

// DBPath resolves the database file against home.
func (c Config) DBPath(home string) string {
	if filepath.IsAbs(c.Storage.DBFile) {
		return c.Storage.DBFile
	}
	name := c.Storage.DBFile
	if name == "" {
		name = DefaultConfig().Storage.DBFile
	}
	return filepath.Join(home, name)
}

// Addr is the host:port the API listens on.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// TrackerRuntime converts to the tracker's runtime config.
func (c Config) TrackerRuntime() tracker.Config {
	cfg := tracker.DefaultConfig()
	if loc, err := c.Location(); err == nil {
		cfg.Location = loc
	}
	if d, err := parseDuration(c.Tracker.CelebrationDuration); err == nil {
		cfg.CelebrationDuration = d
	}
	return cfg
}

// parseDuration parses a Go duration; empty means the 3s default.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 3 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Encode renders the config as TOML.
func (c Config) Encode() (string, error) {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return "", err
	}
	return sb.String(), nil
}
