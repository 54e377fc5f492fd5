package collector

import (
	"context"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Counters reads OS counters.
type Counters interface {
	Times(ctx context.Context) ([]cpu.TimesStat, error)
	Swap(ctx context.Context) (*mem.SwapMemoryStat, error)
	Memory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	Load(ctx context.Context) (*load.AvgStat, error)
	BootTime(ctx context.Context) (uint64, error)
	Counts(ctx context.Context, logical bool) (int, error)
}

// HostCounters reads the local machine through gopsutil.
type HostCounters struct{}

func (HostCounters) Times(ctx context.Context) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, true)
}

func (HostCounters) Swap(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (HostCounters) Memory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (HostCounters) Load(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (HostCounters) BootTime(ctx context.Context) (uint64, error) {
	return host.BootTimeWithContext(ctx)
}

func (HostCounters) Counts(ctx context.Context, logical bool) (int, error) {
	return cpu.CountsWithContext(ctx, logical)
}

// SystemOptions configures a SystemCollector.
type SystemOptions struct {
	Interval time.Duration
	Counters Counters
	Logger   logger.Logger
}

// SystemCollector samples OS counters in-process and paces itself so each
// cycle starts one interval after the previous one began.
type SystemCollector struct {
	*runner

	opts  SystemOptions
	store *metrics.Store
	now   func() time.Time

	// prevTimes is owned by the loop goroutine.
	prevTimes []cpu.TimesStat
}

// NewSystemCollector returns a stopped collector.
func NewSystemCollector(store *metrics.Store, opts SystemOptions) *SystemCollector {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Counters == nil {
		opts.Counters = HostCounters{}
	}
	return &SystemCollector{
		runner: newRunner("system", opts.Logger),
		opts:   opts,
		store:  store,
		now:    time.Now,
	}
}

// Start begins sampling. The first sample has no CPU breakdown yet.
func (c *SystemCollector) Start(ctx context.Context) error {
	return c.launch(ctx, func(ctx context.Context) {
		for ctx.Err() == nil {
			began := c.now()
			c.cycle(func() { c.sample(ctx) })
			if !sleep(ctx, Remaining(c.opts.Interval, c.now().Sub(began))) {
				return
			}
		}
	})
}

// Stop waits for an in-flight sample to finish.
func (c *SystemCollector) Stop() error {
	c.stop(nil)
	return nil
}

// sample reads every counter. The reads are detached from ctx so Stop lets
// a started sample publish.
func (c *SystemCollector) sample(ctx context.Context) {
	r, err := c.read(context.WithoutCancel(ctx))
	if err != nil {
		c.log.Warn("%s", errors.Brief(err))
		return
	}
	c.store.SetSystem(ParseSystem(c.prevTimes, r, c.now()))
	c.prevTimes = r.Times
}

func (c *SystemCollector) read(ctx context.Context) (SystemReading, error) {
	var (
		r   SystemReading
		err error
	)
	wrap := func(err error, what string) error {
		return errors.WrapWithCode(err, errors.ErrCollect, "Couldn't read "+what, "")
	}

	if r.Times, err = c.opts.Counters.Times(ctx); err != nil {
		return r, wrap(err, "CPU times")
	}
	if r.Swap, err = c.opts.Counters.Swap(ctx); err != nil {
		return r, wrap(err, "swap usage")
	}
	if r.Memory, err = c.opts.Counters.Memory(ctx); err != nil {
		return r, wrap(err, "memory usage")
	}
	if r.Load, err = c.opts.Counters.Load(ctx); err != nil {
		return r, wrap(err, "load average")
	}
	if r.BootTime, err = c.opts.Counters.BootTime(ctx); err != nil {
		return r, wrap(err, "boot time")
	}
	if r.LogicalCPUs, err = c.opts.Counters.Counts(ctx, true); err != nil {
		return r, wrap(err, "logical CPU count")
	}
	if r.PhysicalCPUs, err = c.opts.Counters.Counts(ctx, false); err != nil {
		return r, wrap(err, "physical CPU count")
	}
	return r, nil
}
