package collector

import (
	"context"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/exec"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
)

// DefaultIORegCommand prints the battery registry entry as a plist array.
var DefaultIORegCommand = []string{"ioreg", "-w", "0", "-r", "-a", "-c", "AppleSmartBattery"}

// DefaultBatteryHistorySize keeps an hour of samples at one poll per second.
const DefaultBatteryHistorySize = 3600

// DefaultIORegTimeout bounds one ioreg run.
const DefaultIORegTimeout = 10 * time.Second

// BatteryOptions configures a BatteryCollector.
type BatteryOptions struct {
	Command     []string
	Interval    time.Duration
	HistorySize int
	Capture     exec.CaptureFunc
	Logger      logger.Logger

	// Timeout bounds one poll. Stop doesn't cancel a poll, so a hung ioreg
	// holds Stop up for at most this long.
	Timeout time.Duration
}

// BatteryCollector polls ioreg on a fixed interval.
type BatteryCollector struct {
	*runner

	opts  BatteryOptions
	store *metrics.Store
	now   func() time.Time
}

// NewBatteryCollector returns a stopped collector.
func NewBatteryCollector(store *metrics.Store, opts BatteryOptions) *BatteryCollector {
	if len(opts.Command) == 0 {
		opts.Command = DefaultIORegCommand
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.HistorySize < 1 {
		opts.HistorySize = DefaultBatteryHistorySize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultIORegTimeout
	}
	if opts.Capture == nil {
		opts.Capture = exec.Capture
	}
	return &BatteryCollector{
		runner: newRunner("ioreg", opts.Logger),
		opts:   opts,
		store:  store,
		now:    time.Now,
	}
}

// Start begins polling. The first poll runs immediately.
func (c *BatteryCollector) Start(ctx context.Context) error {
	return c.launch(ctx, func(ctx context.Context) {
		for ctx.Err() == nil {
			c.cycle(func() { c.poll(ctx) })
			if !sleep(ctx, c.opts.Interval) {
				return
			}
		}
	})
}

// Stop waits for an in-flight poll, including its ioreg run, to finish.
func (c *BatteryCollector) Stop() error {
	c.stop(nil)
	return nil
}

// poll runs one ioreg cycle. Failures are logged and the cycle is skipped.
// The command runs detached from ctx so Stop lets it finish.
func (c *BatteryCollector) poll(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	defer cancel()

	out, err := c.opts.Capture(runCtx, c.opts.Command[0], c.opts.Command[1:]...)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			c.log.Warn("%s took longer than %s, skipping this poll", c.opts.Command[0], c.opts.Timeout)
			return
		}
		c.log.Warn("%s", errors.Brief(err))
		return
	}

	doc, err := DecodeFirstDict(out)
	if err != nil {
		c.log.Warn("%s", errors.Brief(err))
		return
	}

	snap, err := ParseBattery(doc, c.store.Battery(), c.opts.HistorySize, c.now())
	if err != nil {
		c.log.Warn("%s", errors.Brief(err))
		return
	}
	c.store.SetBattery(snap)

	b := snap.SmartBattery
	c.log.Debug("battery %d/%d mAh, external power %t", b.RawCurrentCapacity, b.RawMaxCapacity, b.ExternalConnected)
}
