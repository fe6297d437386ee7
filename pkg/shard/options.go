package shard

import (
	"log/slog"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/registry"
)

type config struct {
	logger    *slog.Logger
	observers func(shardID int) registry.Observer
	pin       bool
}

func defaultConfig() config {
	return config{logger: logging.NewNop()}
}

// Option configures a Shard or every shard of a Group.
type Option func(*config)

// WithLogger configures the logger handed to shards and their registries.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserverFactory attaches a registry.Observer to each shard's registry.
func WithObserverFactory(fn func(shardID int) registry.Observer) Option {
	return func(c *config) {
		c.observers = fn
	}
}

// WithPinning locks each shard goroutine to an OS thread pinned to one CPU.
func WithPinning(pin bool) Option {
	return func(c *config) {
		c.pin = pin
	}
}
