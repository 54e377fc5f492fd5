package config

import (
	"time"

	"github.com/rileyhilliard/mactop/internal/collector"
	"github.com/rileyhilliard/mactop/internal/metrics"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .mactop.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// RefreshInterval drives the powermetrics sample rate, the dashboard
	// redraw and, unless overridden, both pollers.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// HistorySize caps every sparkline history.
	HistorySize int `yaml:"history_size" mapstructure:"history_size"`

	// BatteryHistorySize caps the capacity samples kept for charge-rate estimates.
	BatteryHistorySize int `yaml:"battery_history_size" mapstructure:"battery_history_size"`

	Powermetrics PowermetricsConfig `yaml:"powermetrics" mapstructure:"powermetrics"`
	IOReg        IORegConfig        `yaml:"ioreg" mapstructure:"ioreg"`
	System       SystemConfig       `yaml:"system" mapstructure:"system"`
	Debug        DebugConfig        `yaml:"debug" mapstructure:"debug"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// PowermetricsConfig controls the streaming power/thermal collector.
type PowermetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Command runs powermetrics; --sample-rate is appended.
	Command []string `yaml:"command" mapstructure:"command"`

	// FakeFile replays a captured stream instead of running Command.
	FakeFile string `yaml:"fake_file" mapstructure:"fake_file"`

	// FakeDelay is the pause between replayed records.
	FakeDelay time.Duration `yaml:"fake_delay" mapstructure:"fake_delay"`

	// DumpDir receives records that fail to decode.
	DumpDir string `yaml:"dump_dir" mapstructure:"dump_dir"`
}

// IORegConfig controls the battery poller.
type IORegConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Command  []string      `yaml:"command" mapstructure:"command"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SystemConfig controls the OS counter poller.
type SystemConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DebugConfig controls per-record debug dumps.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig controls log output. An empty File discards logs while the
// dashboard owns the terminal.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:            CurrentConfigVersion,
		RefreshInterval:    time.Second,
		HistorySize:        metrics.DefaultHistorySize,
		BatteryHistorySize: collector.DefaultBatteryHistorySize,
		Powermetrics: PowermetricsConfig{
			Enabled:   true,
			Command:   append([]string(nil), collector.DefaultPowermetricsCommand...),
			FakeDelay: time.Second,
			DumpDir:   ".",
		},
		IOReg: IORegConfig{
			Enabled: true,
			Command: append([]string(nil), collector.DefaultIORegCommand...),
		},
		System: SystemConfig{
			Enabled: true,
		},
		Debug: DebugConfig{
			Dir: "./debug_dump",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// IORegInterval is the battery poll interval, falling back to RefreshInterval.
func (c *Config) IORegInterval() time.Duration {
	if c.IOReg.Interval > 0 {
		return c.IOReg.Interval
	}
	return c.RefreshInterval
}

// SystemInterval is the OS counter interval, falling back to RefreshInterval.
func (c *Config) SystemInterval() time.Duration {
	if c.System.Interval > 0 {
		return c.System.Interval
	}
	return c.RefreshInterval
}
