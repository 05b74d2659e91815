// Package config handles loading the sheetctl configuration.
//
// Settings merge in layers: built-in defaults, then the global config file
// (~/.config/sheetctl/config.toml), then SHEETCTL_* environment variables.
// Command-line flags override on top at the cobra layer.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"sheetctl/internal/paths"
)

// Defaults applied before the config file and environment are read.
const (
	DefaultServerURL = "http://localhost:8000/api"
	DefaultTimeout   = 15 * time.Second
	DefaultLogLevel  = "info"
)

// Config represents the merged sheetctl configuration.
type Config struct {
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`

	// StateDir overrides where session state lives. Environment only
	// (SHEETCTL_STATE_DIR); empty means the default state dir.
	StateDir string `toml:"-"`
}

// Server contains connection configuration.
type Server struct {
	// URL is the base URL of the sheet service API.
	URL string `toml:"url"`

	// Timeout bounds each HTTP request.
	Timeout Duration `toml:"timeout"`
}

// Log contains logging configuration.
type Log struct {
	// File receives the log stream. Empty disables logging.
	File string `toml:"file"`

	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `toml:"level"`
}

// Duration decodes TOML strings like "15s" or "1m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Load merges defaults, the global config file, and the environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	cfg := &Config{
		Server: Server{URL: DefaultServerURL, Timeout: Duration{DefaultTimeout}},
		Log:    Log{Level: DefaultLogLevel},
	}

	path, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	if err := decodeConfigFile(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SHEETCTL_SERVER"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("SHEETCTL_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SHEETCTL_TIMEOUT: %w", err)
		}
		cfg.Server.Timeout = Duration{parsed}
	}
	if v := os.Getenv("SHEETCTL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("SHEETCTL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SHEETCTL_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	return nil
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	raw := strings.TrimSpace(c.Server.URL)
	if raw == "" {
		return fmt.Errorf("server url is empty")
	}
	if _, err := url.Parse(raw); err != nil {
		return fmt.Errorf("parse server url %q: %w", raw, err)
	}
	if c.Server.Timeout.Duration <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("parse log level %q: %w", c.Log.Level, err)
	}
	return nil
}
