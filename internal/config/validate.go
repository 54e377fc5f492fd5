package config

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/logger"
)

// MinRefreshInterval is the fastest sample rate powermetrics handles well.
const MinRefreshInterval = 100 * time.Millisecond

// Validate checks the config for errors and returns a structured error
// pointing at the offending key.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but mactop only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade mactop or regenerate the file with 'mactop init --force'.")
	}

	if cfg.RefreshInterval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %s is too short", cfg.RefreshInterval),
			fmt.Sprintf("Use at least %s.", MinRefreshInterval))
	}

	if cfg.HistorySize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history_size must be at least 1, got %d", cfg.HistorySize),
			"Remove the key to use the default of 100.")
	}
	if cfg.BatteryHistorySize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("battery_history_size must be at least 1, got %d", cfg.BatteryHistorySize),
			"Remove the key to use the default of 3600.")
	}

	if err := validatePowermetrics(cfg.Powermetrics); err != nil {
		return err
	}

	if cfg.IOReg.Enabled && len(cfg.IOReg.Command) == 0 {
		return errors.New(errors.ErrConfig,
			"ioreg.command is empty",
			"Set a command or disable the collector with 'ioreg.enabled: false'.")
	}
	if cfg.IOReg.Interval < 0 || cfg.System.Interval < 0 {
		return errors.New(errors.ErrConfig,
			"Collector intervals can't be negative",
			"Use 0 to follow refresh_interval.")
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Unknown log level '%s'", cfg.Log.Level),
			"Use one of: debug, info, warn, error.")
	}

	return nil
}

func validatePowermetrics(p PowermetricsConfig) error {
	if !p.Enabled {
		return nil
	}
	if p.FakeFile == "" && len(p.Command) == 0 {
		return errors.New(errors.ErrConfig,
			"powermetrics.command is empty",
			"Set a command, a fake_file to replay, or disable the collector with 'powermetrics.enabled: false'.")
	}
	if p.FakeDelay < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("powermetrics.fake_delay %s is negative", p.FakeDelay),
			"Use 0 to replay as fast as possible.")
	}
	return nil
}
