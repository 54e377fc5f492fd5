package collector

import (
	"context"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/sourcegraph/conc/pool"
)

// Group starts and stops a set of collectors together.
type Group struct {
	collectors []Collector
	started    []Collector
}

// NewGroup returns a group over collectors, started in the given order.
func NewGroup(collectors ...Collector) *Group {
	return &Group{collectors: collectors}
}

// Collectors returns the grouped collectors.
func (g *Group) Collectors() []Collector {
	return g.collectors
}

// Start starts every collector. If one fails, those already started are
// stopped again and the failure is returned.
func (g *Group) Start(ctx context.Context) error {
	for _, c := range g.collectors {
		if err := c.Start(ctx); err != nil {
			stopErr := g.Stop()
			return errors.Join(err, stopErr)
		}
		g.started = append(g.started, c)
	}
	return nil
}

// Stop stops the started collectors concurrently and joins their errors.
func (g *Group) Stop() error {
	started := g.started
	g.started = nil

	p := pool.New().WithErrors()
	for _, c := range started {
		c := c
		p.Go(func() error {
			if err := c.Stop(); err != nil {
				return errors.Wrap(err, "Couldn't stop "+c.Name()+" collector")
			}
			return nil
		})
	}
	return p.Wait()
}
