package collector

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Dumper writes diagnostic artifacts: raw records that failed to decode and,
// in debug mode, every parsed snapshot.
type Dumper struct {
	fs       afero.Fs
	rawDir   string
	debugDir string
	now      func() time.Time
}

// NewDumper writes malformed records under rawDir and debug snapshots under
// debugDir. An empty debugDir disables debug dumps.
func NewDumper(fs afero.Fs, rawDir, debugDir string) *Dumper {
	if rawDir == "" {
		rawDir = "."
	}
	return &Dumper{fs: fs, rawDir: rawDir, debugDir: debugDir, now: time.Now}
}

// DebugEnabled reports whether WriteYAML writes anything.
func (d *Dumper) DebugEnabled() bool {
	return d != nil && d.debugDir != ""
}

// WriteRaw saves a record exactly as it was read and returns the file path.
func (d *Dumper) WriteRaw(record []byte) (string, error) {
	if err := d.fs.MkdirAll(d.rawDir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCollect,
			fmt.Sprintf("Couldn't create dump directory %s", d.rawDir), "")
	}
	path := filepath.Join(d.rawDir, fmt.Sprintf("powermetrics_dump_%d.plist", d.now().UnixNano()))
	if err := afero.WriteFile(d.fs, path, record, 0o644); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCollect,
			fmt.Sprintf("Couldn't write dump file %s", path), "")
	}
	return path, nil
}

// WriteYAML saves v as YAML in the debug directory. It is a no-op when debug
// dumps are disabled.
func (d *Dumper) WriteYAML(v interface{}) (string, error) {
	if !d.DebugEnabled() {
		return "", nil
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCollect, "Couldn't encode debug snapshot", "")
	}
	if err := d.fs.MkdirAll(d.debugDir, 0o755); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCollect,
			fmt.Sprintf("Couldn't create debug directory %s", d.debugDir), "")
	}
	// Several records can land in the same second; the nanosecond suffix keeps them apart.
	now := d.now()
	path := filepath.Join(d.debugDir,
		fmt.Sprintf("mactop_debug_%s_%09d.yaml", now.Format("20060102_150405"), now.Nanosecond()))
	if err := afero.WriteFile(d.fs, path, data, 0o644); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCollect,
			fmt.Sprintf("Couldn't write debug file %s", path), "")
	}
	return path, nil
}
