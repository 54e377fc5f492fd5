package collector

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/exec"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/spf13/afero"
)

// DefaultPowermetricsCommand is the live command; --sample-rate is appended.
var DefaultPowermetricsCommand = []string{"sudo", "powermetrics", "--format", "plist", "--samplers", "all"}

// PowerOptions configures a PowerCollector. Zero values fall back to defaults.
type PowerOptions struct {
	Command  []string
	Interval time.Duration

	// FakeFile replays a captured powermetrics stream instead of running the
	// command, sleeping FakeDelay after each published record.
	FakeFile  string
	FakeDelay time.Duration

	HistorySize int
	Fs          afero.Fs
	Dumper      *Dumper
	Start       exec.StartFunc
	Logger      logger.Logger
}

// PowerCollector streams powermetrics output into the store.
type PowerCollector struct {
	*runner

	opts  PowerOptions
	store *metrics.Store
	now   func() time.Time

	procMu sync.Mutex
	proc   *exec.Process

	// maxRecord overrides MaxRecordSize in tests.
	maxRecord int

	published atomic.Uint64
	malformed atomic.Uint64
}

// NewPowerCollector returns a stopped collector.
func NewPowerCollector(store *metrics.Store, opts PowerOptions) *PowerCollector {
	if len(opts.Command) == 0 {
		opts.Command = DefaultPowermetricsCommand
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.HistorySize < 1 {
		opts.HistorySize = metrics.DefaultHistorySize
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Dumper == nil {
		opts.Dumper = NewDumper(opts.Fs, ".", "")
	}
	if opts.Start == nil {
		opts.Start = exec.Start
	}
	return &PowerCollector{
		runner: newRunner("powermetrics", opts.Logger),
		opts:   opts,
		store:  store,
		now:    time.Now,
	}
}

// Start opens the byte source, either the live command or the replay file,
// and begins publishing records. The live command runs under the
// collector's context, so Stop reaches it even if Terminate is never called.
func (c *PowerCollector) Start(ctx context.Context) error {
	if c.opts.FakeFile != "" {
		return c.launchWith(ctx, c.openReplay)
	}
	return c.launchWith(ctx, c.openLive)
}

func (c *PowerCollector) openReplay(context.Context) (func(context.Context), error) {
	f, err := c.opts.Fs.Open(c.opts.FakeFile)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't open replay file %s", c.opts.FakeFile),
			"Check powermetrics.fake_file or the --powermetrics-fake flag.")
	}
	c.log.Info("replaying %s", c.opts.FakeFile)

	return func(ctx context.Context) {
		defer f.Close()
		if err := c.consume(ctx, f, c.opts.FakeDelay); err != nil {
			c.log.Error("reading %s: %v", c.opts.FakeFile, err)
			return
		}
		if ctx.Err() == nil {
			c.log.Info("replay finished after %d records", c.published.Load())
		}
	}, nil
}

func (c *PowerCollector) openLive(ctx context.Context) (func(context.Context), error) {
	args := append(append([]string{}, c.opts.Command[1:]...),
		"--sample-rate", strconv.FormatInt(c.opts.Interval.Milliseconds(), 10))
	proc, err := c.opts.Start(ctx, c.opts.Command[0], args...)
	if err != nil {
		return nil, err
	}
	c.procMu.Lock()
	c.proc = proc
	c.procMu.Unlock()
	c.log.Debug("started %s (pid %d)", c.opts.Command[0], proc.Pid())

	return func(ctx context.Context) {
		if err := c.consume(ctx, proc.Stdout, 0); err != nil {
			// The stream can't be framed any more.
			c.log.Error("reading powermetrics stream: %v", err)
			if termErr := proc.Terminate(); termErr != nil {
				c.log.Warn("%s", errors.Brief(termErr))
			}
			return
		}
		if err := proc.Wait(); err != nil && ctx.Err() == nil {
			c.log.Error("%s", errors.Brief(err))
			return
		}
		if ctx.Err() == nil {
			c.log.Warn("powermetrics exited")
		}
	}, nil
}

// Stop terminates the live command, reaps it, and waits for the reader.
func (c *PowerCollector) Stop() error {
	var err error
	c.stop(func() {
		c.procMu.Lock()
		proc := c.proc
		c.procMu.Unlock()
		if proc != nil {
			err = proc.Terminate()
		}
	})
	return err
}

// Published returns how many records have reached the store.
func (c *PowerCollector) Published() uint64 { return c.published.Load() }

// Malformed returns how many records failed to decode.
func (c *PowerCollector) Malformed() uint64 { return c.malformed.Load() }

// consume reads records until EOF or cancellation. The context is checked
// between records, so a record being handled is always finished. A read
// error is returned unless the collector is stopping.
func (c *PowerCollector) consume(ctx context.Context, r io.Reader, delay time.Duration) error {
	records := NewRecordReader(r)
	if c.maxRecord > 0 {
		records = newRecordReaderSize(r, c.maxRecord)
	}
	for ctx.Err() == nil {
		rec, err := records.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var ok bool
		c.cycle(func() { ok = c.handle(rec) })
		if ok && !sleep(ctx, delay) {
			return nil
		}
	}
	return nil
}

// handle decodes and publishes one record. A record that fails to decode is
// dumped and dropped.
func (c *PowerCollector) handle(rec []byte) bool {
	doc, err := DecodeDict(rec)
	if err != nil {
		c.malformed.Add(1)
		path, dumpErr := c.opts.Dumper.WriteRaw(rec)
		if dumpErr != nil {
			c.log.Error("dropped malformed record (%d bytes), dump failed: %s", len(rec), errors.Brief(dumpErr))
			return false
		}
		c.log.Error("dropped malformed record, saved to %s: %s", path, errors.Brief(err))
		return false
	}

	if c.opts.Dumper.DebugEnabled() {
		if path, err := c.opts.Dumper.WriteYAML(doc); err != nil {
			c.log.Warn("%s", errors.Brief(err))
		} else {
			c.log.Debug("record dumped to %s", path)
		}
	}

	c.store.SetPower(ParsePower(doc, c.store.Power(), c.opts.HistorySize, c.now()))
	c.published.Add(1)
	return true
}
