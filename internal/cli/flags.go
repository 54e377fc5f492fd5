package cli

import (
	"io"
	"time"

	"github.com/rileyhilliard/mactop/internal/config"
	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/spf13/pflag"
)

// Global flag names.
const (
	flagConfig           = "config"
	flagRefresh          = "refresh-interval"
	flagPowermetricsFake = "powermetrics-fake"
	flagDebug            = "debug"
	flagVerbose          = "verbose"
	flagLogTo            = "log-to"
	flagNoColor          = "no-color"
)

// registerGlobalFlags adds the flags every command shares.
func registerGlobalFlags(fs *pflag.FlagSet) {
	fs.String(flagConfig, "", "config file (default ./.mactop.yaml, then ~/.config/mactop/config.yaml)")
	fs.DurationP(flagRefresh, "r", time.Second, "sample and redraw interval (e.g. 500ms, 2s)")
	fs.String(flagPowermetricsFake, "", "replay a captured powermetrics plist stream instead of running powermetrics")
	fs.Bool(flagDebug, false, "write every powermetrics record to the debug dump directory")
	fs.CountP(flagVerbose, "v", "log verbosity: -v warn, -vv info, -vvv debug")
	fs.String(flagLogTo, "", "write logs to this file (rotated)")
	fs.Bool(flagNoColor, false, "disable colors")
}

// loadConfig finds and loads the config, applies command-line overrides, and
// validates the result.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	explicit, _ := fs.GetString(flagConfig)

	cfg, _, err := config.LoadOrDefault(explicit)
	if err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, fs); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies flags the user actually set onto cfg.
func applyOverrides(cfg *config.Config, fs *pflag.FlagSet) error {
	var errs []error
	get := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if fs.Changed(flagRefresh) {
		d, err := fs.GetDuration(flagRefresh)
		get(err)
		cfg.RefreshInterval = d
	}
	if fs.Changed(flagPowermetricsFake) {
		path, err := fs.GetString(flagPowermetricsFake)
		get(err)
		cfg.Powermetrics.FakeFile = config.Expand(path)
	}
	if fs.Changed(flagDebug) {
		debug, err := fs.GetBool(flagDebug)
		get(err)
		cfg.Debug.Enabled = debug
	}
	if fs.Changed(flagVerbose) {
		v, err := fs.GetCount(flagVerbose)
		get(err)
		cfg.Log.Level = logger.LevelFromVerbosity(v).String()
	}
	if fs.Changed(flagLogTo) {
		path, err := fs.GetString(flagLogTo)
		get(err)
		cfg.Log.File = config.Expand(path)
	}

	if err := errors.Join(errs...); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read command-line flags",
			"Run 'mactop --help' to check the flag syntax.")
	}
	return nil
}

// setupLogging builds the process logger. Console output goes to console,
// which is nil while the dashboard owns the terminal.
func setupLogging(cfg *config.Config, console io.Writer) (logger.Logger, io.Closer, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown log level '"+cfg.Log.Level+"'",
			"Use one of: debug, info, warn, error.")
	}

	log, closer := logger.Setup(logger.Options{
		Level:      level,
		Console:    console,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	logger.SetDefault(log)
	return log, closer, nil
}
