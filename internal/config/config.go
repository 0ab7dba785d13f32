// Package config handles Riceify configuration: the TOML config file, the
// optional dotenv file and RICEIFY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables read by Riceify.
const (
	EnvHome       = "RICEIFY_HOME"
	EnvConfig     = "RICEIFY_CONFIG"
	EnvCopyEngine = "RICEIFY_COPY_ENGINE"
	EnvStrictAdd  = "RICEIFY_STRICT_ADD"
	EnvLock       = "RICEIFY_LOCK"
	EnvLogLevel   = "RICEIFY_LOG_LEVEL"
)

// Config represents the Riceify configuration.
type Config struct {
	// CopyEngine selects how rices are copied: "native" or "exec" (cp -rT).
	CopyEngine string `toml:"copy_engine"`

	// StrictAdd makes add fail when copying home dotfiles fails.
	StrictAdd bool `toml:"strict_add"`

	// Lock guards switch/add/remove with ~/Riceify/.lock.
	Lock bool `toml:"lock"`

	// StatusIcon prefixes the status line. Empty disables the prefix.
	StatusIcon string `toml:"status_icon"`

	// CurrentMarker prefixes the current rice in the menu.
	CurrentMarker string `toml:"current_marker"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		CopyEngine:    "native",
		StatusIcon:    "🍚",
		CurrentMarker: "✓",
		LogLevel:      "warn",
	}
}

// Load reads the config file for homeDir, then applies environment overrides.
// A missing config file yields the defaults.
func Load(homeDir string) (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		path = DefaultPath(homeDir)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads the configuration from a specific path. Keys missing from
// the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns ~/.config/riceify/config.toml for homeDir.
func DefaultPath(homeDir string) string {
	return filepath.Join(homeDir, ".config", "riceify", "config.toml")
}

// ApplyEnv overrides fields from RICEIFY_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvCopyEngine); v != "" {
		c.CopyEngine = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvStrictAdd); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvStrictAdd, v, err)
		}
		c.StrictAdd = b
	}
	if v := getenv(EnvLock); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvLock, v, err)
		}
		c.Lock = b
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch strings.ToLower(c.CopyEngine) {
	case "native", "exec":
	default:
		return fmt.Errorf("unknown copy_engine %q (want \"native\" or \"exec\")", c.CopyEngine)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns LogLevel as a slog.Level, defaulting to warn.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ResolveHome returns RICEIFY_HOME when set, otherwise the user's home directory.
func ResolveHome() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(EnvHome)); custom != "" {
		return custom, nil
	}
	return os.UserHomeDir()
}
