package config

import (
	"os"
	"path/filepath"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".mactop.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/mactop"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'mactop init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .mactop.yaml in current directory
// 3. ~/.config/mactop/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}
	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if globalConfig := GlobalConfigPath(); globalConfig != "" {
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/mactop/config.yaml, or "" when the home
// directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads the config found for explicit, or returns defaults when
// there is none. The returned path is empty for defaults.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.Powermetrics.FakeFile = Expand(cfg.Powermetrics.FakeFile)
	cfg.Powermetrics.DumpDir = Expand(cfg.Powermetrics.DumpDir)
	cfg.Debug.Dir = Expand(cfg.Debug.Dir)
	cfg.Log.File = Expand(cfg.Log.File)

	return cfg, nil
}

// setDefaults registers every default so keys missing from the file keep
// their default value after Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("refresh_interval", d.RefreshInterval)
	v.SetDefault("history_size", d.HistorySize)
	v.SetDefault("battery_history_size", d.BatteryHistorySize)

	v.SetDefault("powermetrics.enabled", d.Powermetrics.Enabled)
	v.SetDefault("powermetrics.command", d.Powermetrics.Command)
	v.SetDefault("powermetrics.fake_file", d.Powermetrics.FakeFile)
	v.SetDefault("powermetrics.fake_delay", d.Powermetrics.FakeDelay)
	v.SetDefault("powermetrics.dump_dir", d.Powermetrics.DumpDir)

	v.SetDefault("ioreg.enabled", d.IOReg.Enabled)
	v.SetDefault("ioreg.command", d.IOReg.Command)
	v.SetDefault("ioreg.interval", d.IOReg.Interval)

	v.SetDefault("system.enabled", d.System.Enabled)
	v.SetDefault("system.interval", d.System.Interval)

	v.SetDefault("debug.enabled", d.Debug.Enabled)
	v.SetDefault("debug.dir", d.Debug.Dir)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}
