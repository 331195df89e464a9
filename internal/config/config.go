// Package config provides configuration management for focusd.
//
// Settings persist as JSON under ~/.focusd/settings.json next to the
// database. A process-wide copy is kept behind Get/Set; the timer engine
// snapshots it at session start, so edits never disturb a session in
// progress.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/avelkov/focusd/pkg/models"
)

const (
	// DefaultPort is the HTTP port the daemon listens on.
	DefaultPort = 7312
	// DefaultMaxConns is the SQLite connection pool size.
	DefaultMaxConns = 4

	dataDirName  = ".focusd"
	settingsFile = "settings.json"
	dbFile       = "focusd.db"
)

// Config is the full daemon configuration: service fields plus the
// user-facing pomodoro settings.
type Config struct {
	Port     int    `json:"port"`
	MaxConns int    `json:"max_conns"`
	LogLevel string `json:"log_level"`

	Settings models.Settings `json:"settings"`
}

var (
	mu      sync.RWMutex
	current *Config
)

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Port:     DefaultPort,
		MaxConns: DefaultMaxConns,
		LogLevel: "info",
		Settings: models.DefaultSettings(),
	}
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	mu.RLock()
	if current != nil {
		defer mu.RUnlock()
		return current
	}
	mu.RUnlock()

	cfg, err := Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = Default()
	}
	Set(cfg)
	return cfg
}

// Set swaps the process-wide configuration.
func Set(cfg *Config) {
	cfg.sanitize()
	mu.Lock()
	current = cfg
	mu.Unlock()
}

// Settings returns the current pomodoro settings by value.
func Settings() models.Settings {
	return Get().Settings
}

// Load reads the settings file, falling back to defaults field-by-field for
// anything malformed.
func Load() (*Config, error) {
	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	cfg.sanitize()
	return cfg, nil
}

// Save writes cfg to the settings file.
func Save(cfg *Config) error {
	cfg.sanitize()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(SettingsPath(), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Reload re-reads the settings file and swaps the process-wide config.
// Used by the file watcher for live edits.
func Reload() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	Set(cfg)
	return cfg, nil
}

// sanitize substitutes defaults for malformed values in place.
func (c *Config) sanitize() {
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = DefaultPort
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Settings.Sanitize()
}

// DataDir returns the focusd data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFile)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFile)
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	if _, err := os.Stat(SettingsPath()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return Save(Default())
}

// EnsureAll prepares the data directory and settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}
	if err := EnsureSettings(); err != nil {
		return fmt.Errorf("ensure settings: %w", err)
	}
	return nil
}
