package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/mactop/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `mactop configuration.
Durations use Go syntax (500ms, 1s, 2m). Intervals of 0s follow refresh_interval.`

// Render encodes cfg as commented YAML with 2-space indentation.
func Render(cfg *Config) ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	doc.HeadComment = fileHeader

	comments := map[string]string{
		"refresh_interval":     "powermetrics sample rate and dashboard redraw",
		"battery_history_size": "capacity samples kept for charge-rate estimates",
		"powermetrics":         "streaming power, thermal and frequency sampler",
		"ioreg":                "AppleSmartBattery poller",
		"system":               "in-process CPU, memory and load counters",
		"debug":                "write every decoded powermetrics record as YAML",
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		if c, ok := comments[key.Value]; ok {
			key.HeadComment = c
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Write saves cfg to path. An existing file is only replaced when force is set.
func Write(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it.")
	}

	data, err := Render(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't render config", "")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Couldn't create %s", dir), "Check directory permissions")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write %s", path), "Check directory permissions")
	}
	return nil
}
