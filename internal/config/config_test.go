// Package config provides configuration management for focusd.
package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/avelkov/focusd/pkg/models"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir     string
	origHomeDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()

	// Save and override HOME so paths land in the sandbox.
	s.origHomeDir = os.Getenv("HOME")
	os.Setenv("HOME", s.tempDir)

	// Drop any config cached by a previous test.
	mu.Lock()
	current = nil
	mu.Unlock()
}

func (s *ConfigSuite) TearDownTest() {
	os.Setenv("HOME", s.origHomeDir)
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultPort, cfg.Port)
	s.Equal(DefaultMaxConns, cfg.MaxConns)
	s.Equal("info", cfg.LogLevel)
	s.Equal(models.DefaultSettings(), cfg.Settings)
}

// TestPaths tests data directory derived paths.
func (s *ConfigSuite) TestPaths() {
	s.Contains(DataDir(), ".focusd")
	s.Contains(DBPath(), "focusd.db")
	s.Contains(SettingsPath(), "settings.json")
}

// TestEnsureAll tests directory and settings file creation.
func (s *ConfigSuite) TestEnsureAll() {
	s.Require().NoError(EnsureAll())

	info, err := os.Stat(DataDir())
	s.Require().NoError(err)
	s.True(info.IsDir())

	info, err = os.Stat(SettingsPath())
	s.Require().NoError(err)
	s.False(info.IsDir())

	// Second call is a no-op.
	s.NoError(EnsureAll())
}

// TestLoadMissingFile tests defaults when no settings file exists.
func (s *ConfigSuite) TestLoadMissingFile() {
	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(Default(), cfg)
}

// TestSaveLoadRoundTrip tests persistence of edited settings.
func (s *ConfigSuite) TestSaveLoadRoundTrip() {
	s.Require().NoError(EnsureDataDir())

	cfg := Default()
	cfg.Settings.WorkDuration = 50
	cfg.Settings.AutoStartBreaks = true
	s.Require().NoError(Save(cfg))

	loaded, err := Load()
	s.Require().NoError(err)
	s.Equal(50, loaded.Settings.WorkDuration)
	s.True(loaded.Settings.AutoStartBreaks)
}

// TestLoadSanitizes tests that malformed numeric fields fall back to
// defaults instead of rejecting the file.
func (s *ConfigSuite) TestLoadSanitizes() {
	s.Require().NoError(EnsureDataDir())
	raw := `{"port": -1, "settings": {"work_duration": 0, "short_break_duration": 7, "long_break_interval": 1}}`
	s.Require().NoError(os.WriteFile(SettingsPath(), []byte(raw), 0o644))

	cfg, err := Load()
	s.Require().NoError(err)
	s.Equal(DefaultPort, cfg.Port)
	s.Equal(25, cfg.Settings.WorkDuration)
	s.Equal(7, cfg.Settings.ShortBreakDuration)
	s.Equal(4, cfg.Settings.LongBreakInterval)
}

// TestLoadRejectsBrokenJSON tests the parse error path.
func (s *ConfigSuite) TestLoadRejectsBrokenJSON() {
	s.Require().NoError(EnsureDataDir())
	s.Require().NoError(os.WriteFile(SettingsPath(), []byte("{not json"), 0o644))

	_, err := Load()
	s.Error(err)
}

// TestGetSetReload tests the process-wide accessor.
func (s *ConfigSuite) TestGetSetReload() {
	s.Require().NoError(EnsureAll())

	cfg := Get()
	s.Require().NotNil(cfg)

	edited := Default()
	edited.Settings.LongBreakDuration = 20
	Set(edited)
	s.Equal(20, Settings().LongBreakDuration)

	// Reload picks the file back up.
	reloaded, err := Reload()
	s.Require().NoError(err)
	s.Equal(15, reloaded.Settings.LongBreakDuration)
}
