package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/mactop/internal/config"
	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_NonInteractiveWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	var out bytes.Buffer
	require.NoError(t, Init(&out, InitOptions{Path: path, NonInteractive: true}))

	assert.Contains(t, out.String(), "Created "+path)
	assert.Contains(t, out.String(), "Next steps:")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().RefreshInterval, cfg.RefreshInterval)
	assert.NoError(t, config.Validate(cfg))
}

func TestInit_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	err := Init(&bytes.Buffer{}, InitOptions{Path: path, NonInteractive: true})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data), "file untouched")
}

func TestInit_OverwriteReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	require.NoError(t, Init(&bytes.Buffer{}, InitOptions{Path: path, Overwrite: true, NonInteractive: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh_interval")
}

func TestInitAnswers_Apply(t *testing.T) {
	tests := []struct {
		name    string
		answers initAnswers
		wantErr bool
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "all fields",
			answers: initAnswers{Refresh: " 500ms ", FakeFile: " cap.plist ", Debug: true},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 500*time.Millisecond, cfg.RefreshInterval)
				assert.Equal(t, "cap.plist", cfg.Powermetrics.FakeFile)
				assert.True(t, cfg.Debug.Enabled)
			},
		},
		{
			name:    "too fast",
			answers: initAnswers{Refresh: "10ms"},
			wantErr: true,
		},
		{
			name:    "not a duration",
			answers: initAnswers{Refresh: "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := tt.answers.apply(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidateRefresh(t *testing.T) {
	assert.NoError(t, validateRefresh("100ms"))
	assert.NoError(t, validateRefresh("2s"))
	assert.Error(t, validateRefresh("99ms"))
	assert.Error(t, validateRefresh(""))
}
