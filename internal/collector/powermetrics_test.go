package collector

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/exec"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const malformedRecord = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
	"<plist version=\"1.0\"><dict><key>backlight</key><integer>bright</integer></dict></plist>\n\x00"

func replayStream(t *testing.T) []byte {
	t.Helper()
	var stream []byte
	stream = append(stream, encodeRecord(t, appleRecord(1))...)
	stream = append(stream, malformedRecord...)
	stream = append(stream, encodeRecord(t, appleRecord(2))...)
	return stream
}

// tickingClock returns a clock that advances one millisecond per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		ts = ts.Add(time.Millisecond)
		return ts
	}
}

func TestPowerCollector_ReplaySkipsMalformedRecord(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capture.plist", replayStream(t), 0o644))

	dumper := NewDumper(fs, "dumps", "debug_dump")
	dumper.now = tickingClock()
	log := logger.NewBufferLogger()
	store := metrics.NewStore()

	c := NewPowerCollector(store, PowerOptions{
		FakeFile: "capture.plist",
		Fs:       fs,
		Dumper:   dumper,
		Logger:   log,
	})
	require.NoError(t, c.Start(context.Background()))
	waitDone(t, c)

	assert.Equal(t, uint64(2), store.Version(metrics.SourcePower))
	assert.Equal(t, uint64(2), c.Published())
	assert.Equal(t, uint64(1), c.Malformed())

	apple, ok := store.Power().Processor.(*metrics.AppleProcessor)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, apple.CPUEnergy.History, "history skips the bad record")

	dumps, err := afero.ReadDir(fs, "dumps")
	require.NoError(t, err)
	require.Len(t, dumps, 1)
	raw, err := afero.ReadFile(fs, filepath.Join("dumps", dumps[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<integer>bright</integer>")

	debug, err := afero.ReadDir(fs, "debug_dump")
	require.NoError(t, err)
	assert.Len(t, debug, 2)

	assert.True(t, log.Contains("error", "dropped malformed record"))
	assert.True(t, log.Contains("info", "replay finished after 2 records"))

	require.NoError(t, c.Stop())
}

func TestPowerCollector_ReplayStopDuringDelay(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capture.plist", replayStream(t), 0o644))
	store := metrics.NewStore()

	c := NewPowerCollector(store, PowerOptions{
		FakeFile:  "capture.plist",
		FakeDelay: time.Hour,
		Fs:        fs,
	})
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return store.Version(metrics.SourcePower) == 1 },
		5*time.Second, 5*time.Millisecond)

	start := time.Now()
	require.NoError(t, c.Stop())
	assert.Less(t, time.Since(start), time.Second)
	waitDone(t, c)
	assert.Equal(t, uint64(1), store.Version(metrics.SourcePower))
}

func TestPowerCollector_MissingReplayFile(t *testing.T) {
	c := NewPowerCollector(metrics.NewStore(), PowerOptions{
		FakeFile: "nope.plist",
		Fs:       afero.NewMemMapFs(),
	})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	require.NoError(t, c.Stop())
}

func TestPowerCollector_DumpFailureIsLogged(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "capture.plist", []byte(malformedRecord), 0o644))
	log := logger.NewBufferLogger()

	c := NewPowerCollector(metrics.NewStore(), PowerOptions{
		FakeFile: "capture.plist",
		Fs:       mem,
		Dumper:   NewDumper(afero.NewReadOnlyFs(afero.NewMemMapFs()), "dumps", ""),
		Logger:   log,
	})
	require.NoError(t, c.Start(context.Background()))
	waitDone(t, c)

	assert.Equal(t, uint64(1), c.Malformed())
	assert.True(t, log.Contains("error", "dump failed"))
}

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.plist")
	require.NoError(t, os.WriteFile(path, replayStream(t), 0o644))
	return path
}

func TestPowerCollector_LiveCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	capture := writeCapture(t)
	log := logger.NewBufferLogger()
	store := metrics.NewStore()

	var gotName string
	var gotArgs []string
	c := NewPowerCollector(store, PowerOptions{
		Interval: 250 * time.Millisecond,
		Fs:       afero.NewMemMapFs(),
		Logger:   log,
		Start: func(ctx context.Context, name string, args ...string) (*exec.Process, error) {
			gotName, gotArgs = name, args
			return exec.Start(ctx, "cat", capture)
		},
	})
	require.NoError(t, c.Start(context.Background()))
	waitDone(t, c)

	assert.Equal(t, "sudo", gotName)
	assert.Equal(t,
		[]string{"powermetrics", "--format", "plist", "--samplers", "all", "--sample-rate", "250"},
		gotArgs)
	assert.Equal(t, uint64(2), store.Version(metrics.SourcePower))
	assert.True(t, log.Contains("warn", "powermetrics exited"))
	require.NoError(t, c.Stop())
}

func TestPowerCollector_StopReapsProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	capture := writeCapture(t)
	store := metrics.NewStore()

	c := NewPowerCollector(store, PowerOptions{
		Fs: afero.NewMemMapFs(),
		Start: func(ctx context.Context, _ string, _ ...string) (*exec.Process, error) {
			return exec.Start(ctx, "sh", "-c", "cat "+capture+"; exec sleep 30")
		},
	})
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool { return store.Version(metrics.SourcePower) == 2 },
		5*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop())
	waitDone(t, c)
	assert.True(t, c.proc.Exited())
	require.NoError(t, c.Stop(), "second stop is a no-op")
}

func TestPowerCollector_SecondStartSpawnsNothing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	var (
		mu    sync.Mutex
		procs []*exec.Process
	)
	c := NewPowerCollector(metrics.NewStore(), PowerOptions{
		Fs: afero.NewMemMapFs(),
		Start: func(ctx context.Context, _ string, _ ...string) (*exec.Process, error) {
			p, err := exec.Start(ctx, "sh", "-c", "exec sleep 30")
			if err == nil {
				mu.Lock()
				procs = append(procs, p)
				mu.Unlock()
			}
			return p, err
		},
	})
	require.NoError(t, c.Start(context.Background()))

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCollect))

	mu.Lock()
	require.Len(t, procs, 1, "a rejected start runs no command")
	first := procs[0]
	mu.Unlock()

	stopped := make(chan error, 1)
	go func() { stopped <- c.Stop() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop hung")
	}
	assert.True(t, first.Exited())
}

func TestPowerCollector_RecoversFromOversizedRecord(t *testing.T) {
	var stream []byte
	stream = append(stream, strings.Repeat("x", 40*1024)...)
	for i := 1; i <= 3; i++ {
		stream = append(stream, encodeRecord(t, appleRecord(float64(i)))...)
	}
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "capture.plist", stream, 0o644))
	dumper := NewDumper(fs, "dumps", "")
	dumper.now = tickingClock()
	log := logger.NewBufferLogger()
	store := metrics.NewStore()

	c := NewPowerCollector(store, PowerOptions{
		FakeFile: "capture.plist",
		Fs:       fs,
		Dumper:   dumper,
		Logger:   log,
	})
	c.maxRecord = 16 * 1024
	require.NoError(t, c.Start(context.Background()))
	waitDone(t, c)

	assert.GreaterOrEqual(t, c.Malformed(), uint64(1))
	assert.GreaterOrEqual(t, c.Published(), uint64(2))
	assert.True(t, log.Contains("error", "dropped malformed record"))
	assert.True(t, log.Contains("info", "replay finished"))

	apple, ok := store.Power().Processor.(*metrics.AppleProcessor)
	require.True(t, ok)
	assert.Equal(t, 3.0, apple.CPUEnergy.Value, "the stream keeps going after the runaway record")

	dumps, err := afero.ReadDir(fs, "dumps")
	require.NoError(t, err)
	assert.Len(t, dumps, int(c.Malformed()))
	require.NoError(t, c.Stop())
}

func TestPowerCollector_StartFailure(t *testing.T) {
	c := NewPowerCollector(metrics.NewStore(), PowerOptions{
		Fs: afero.NewMemMapFs(),
		Start: func(context.Context, string, ...string) (*exec.Process, error) {
			return nil, errors.New(errors.ErrExec, "Couldn't start sudo", "")
		},
	})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}
