package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/logger"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Collector acquires snapshots for one source in the background and
// publishes them to a metrics.Store.
type Collector interface {
	Name() string
	// Start launches the background loop. It fails only when the source
	// can't be opened at all.
	Start(ctx context.Context) error
	// Stop signals the loop and waits for it to exit. An in-flight cycle
	// finishes first. Safe to call more than once.
	Stop() error
	// Done is closed once the background loop has exited.
	Done() <-chan struct{}
}

// runner owns a collector's goroutine and stop signal.
type runner struct {
	name string
	log  logger.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      conc.WaitGroup
	done    chan struct{}
}

func newRunner(name string, log logger.Logger) *runner {
	if log == nil {
		log = logger.Noop()
	}
	return &runner{name: name, log: log.With(name), done: make(chan struct{})}
}

func (r *runner) Name() string { return r.name }

func (r *runner) Done() <-chan struct{} { return r.done }

// launch runs loop on its own goroutine with a context that stop cancels.
// A panic that escapes loop is logged and ends the collector.
func (r *runner) launch(parent context.Context, loop func(ctx context.Context)) error {
	return r.launchWith(parent, func(context.Context) (func(context.Context), error) {
		return loop, nil
	})
}

// launchWith is launch for collectors that must acquire a source first.
// open runs under the start lock with the loop's context, so a second Start
// is rejected before anything is opened. When open fails the runner stays
// unstarted.
func (r *runner) launchWith(parent context.Context, open func(ctx context.Context) (func(context.Context), error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New(errors.ErrCollect,
			fmt.Sprintf("%s collector was already started", r.name),
			"Create a new collector instead of restarting a stopped one.")
	}

	ctx, cancel := context.WithCancel(parent)
	loop, err := open(ctx)
	if err != nil {
		cancel()
		return err
	}

	r.started = true
	r.cancel = cancel
	r.wg.Go(func() { loop(ctx) })

	go func() {
		defer close(r.done)
		defer cancel()
		if rec := r.wg.WaitAndRecover(); rec != nil {
			r.log.Error("collector crashed: %v", rec.Value)
		}
	}()
	return nil
}

// stop cancels the loop, calls interrupt (if any) to unblock a read the
// context can't reach, and waits for the loop to exit. Stopping a collector
// that never started marks it finished.
func (r *runner) stop(interrupt func()) {
	r.mu.Lock()
	if !r.started {
		r.started = true
		close(r.done)
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	if interrupt != nil {
		interrupt()
	}
	<-r.done
}

// cycle runs one collection cycle, logging a panic instead of letting it
// end the loop.
func (r *runner) cycle(fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if rec := pc.Recovered(); rec != nil {
		r.log.Error("cycle panicked: %v", rec.Value)
	}
}

// sleep waits for d or until ctx is done. It reports whether the loop should
// keep going.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Remaining is how long to sleep so a cycle that took elapsed still starts
// the next one interval after it began. It is never negative.
func Remaining(interval, elapsed time.Duration) time.Duration {
	if elapsed >= interval {
		return 0
	}
	return interval - elapsed
}
