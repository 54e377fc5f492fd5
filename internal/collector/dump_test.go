package collector

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestDumper_WriteRaw(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDumper(fs, "dumps", "")
	d.now = fixedClock(time.Unix(0, 1700000000123456789))

	path, err := d.WriteRaw([]byte("<plist>broken"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("dumps", "powermetrics_dump_1700000000123456789.plist"), path)
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "<plist>broken", string(data))
}

func TestDumper_WriteRawDefaultsToWorkingDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDumper(fs, "", "")

	path, err := d.WriteRaw([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, ".", filepath.Dir(path))
}

func TestDumper_WriteYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDumper(fs, ".", "debug_dump")
	d.now = fixedClock(time.Date(2026, 3, 4, 5, 6, 7, 8, time.Local))

	path, err := d.WriteYAML(map[string]int{"backlight": 72})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("debug_dump", "mactop_debug_20260304_050607_000000008.yaml"), path)
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "backlight: 72", strings.TrimSpace(string(data)))
}

func TestDumper_WriteYAMLDisabled(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDumper(fs, ".", "")

	assert.False(t, d.DebugEnabled())
	path, err := d.WriteYAML(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := afero.ReadDir(fs, ".")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDumper_ReadOnlyFilesystem(t *testing.T) {
	d := NewDumper(afero.NewReadOnlyFs(afero.NewMemMapFs()), "dumps", "")

	_, err := d.WriteRaw([]byte("x"))
	assert.Error(t, err)
}
