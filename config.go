package kbuild

import (
	"github.com/go-logr/logr"

	"github.com/birdayz/kbuild/internal/execution"
)

// Option is a function that configures a Scheduler
type Option func(*config)

type config struct {
	parallelism int
	log         logr.Logger
	observers   []Observer
}

func newConfig(opts ...Option) config {
	c := config{
		parallelism: 1,
		log:         logr.Discard(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) executionConfig() execution.Config {
	obs := make(execution.MultiObserver, 0, len(c.observers)+1)
	obs = append(obs, execution.NewLogObserver(c.log))
	obs = append(obs, c.observers...)
	return execution.Config{
		Parallelism: c.parallelism,
		Log:         c.log,
		Observer:    obs,
	}
}

// WithParallelism sets the maximum number of steps running at once.
// Independent steps of the same dependency level run concurrently when n > 1.
// Results are identical to a serial run.
var WithParallelism = func(n int) Option {
	return func(c *config) {
		c.parallelism = n
	}
}

// WithLogr sets the logger for the scheduler
var WithLogr = func(log logr.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithObserver adds an observer for step lifecycle events. Can be given
// multiple times.
var WithObserver = func(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}
