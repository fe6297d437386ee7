package finjector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/finjector/internal/logging"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/ports"
	"github.com/aretw0/finjector/pkg/probe"
	"github.com/aretw0/finjector/pkg/registry"
	"github.com/aretw0/finjector/pkg/shard"
)

// Injector is the high-level entry point for the fault injector.
// It owns a group of shards, each with its own registry, and fans administrative
// commands out to all of them.
type Injector struct {
	shards    *shard.Group
	numShards int
	pin       bool
	observers func(shardID int) registry.Observer
	logger    *slog.Logger
}

var _ ports.Controller = (*Injector)(nil)

// Option defines a functional option for configuring the Injector.
type Option func(*Injector)

// WithShards sets the number of shards. Zero or less means one per CPU.
func WithShards(n int) Option {
	return func(i *Injector) {
		i.numShards = n
	}
}

// WithLogger sets a custom structured logger for shards and registries.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Injector) {
		i.logger = logger
	}
}

// WithObserverFactory attaches a registry.Observer to every shard's registry.
func WithObserverFactory(fn func(shardID int) registry.Observer) Option {
	return func(i *Injector) {
		i.observers = fn
	}
}

// WithPinning pins each shard goroutine to its own CPU where supported.
func WithPinning(pin bool) Option {
	return func(i *Injector) {
		i.pin = pin
	}
}

// ProbeFactory builds the probe a subsystem registers on one shard.
type ProbeFactory func(shardID int) probe.Probe

// New starts an Injector.
func New(opts ...Option) (*Injector, error) {
	inj := &Injector{}
	for _, opt := range opts {
		opt(inj)
	}

	if inj.logger == nil {
		inj.logger = logging.NewNop()
	}

	inj.shards = shard.NewGroup(inj.numShards,
		shard.WithLogger(inj.logger),
		shard.WithObserverFactory(inj.observers),
		shard.WithPinning(inj.pin),
	)
	inj.logger.Debug("Injector started", "shards", inj.shards.Len())
	return inj, nil
}

// Shards exposes the underlying shard group, for running business tasks next to the probes.
func (i *Injector) Shards() *shard.Group {
	return i.shards
}

// RegisterOn builds a probe on shard shardID and registers it there under name.
func (i *Injector) RegisterOn(ctx context.Context, shardID int, name string, factory ProbeFactory) error {
	return i.shards.InvokeOn(ctx, shardID, func(ctx context.Context) error {
		reg, err := shard.Registry(ctx)
		if err != nil {
			return err
		}
		reg.RegisterProbe(name, factory(shardID))
		return nil
	})
}

// RegisterEverywhere builds one probe per shard and registers each on its own shard.
func (i *Injector) RegisterEverywhere(ctx context.Context, name string, factory ProbeFactory) error {
	return i.shards.InvokeOnAll(ctx, func(ctx context.Context) error {
		l, ok := shard.LocalFrom(ctx)
		if !ok {
			return shard.ErrNotOnShard
		}
		l.Registry().RegisterProbe(name, factory(l.ShardID()))
		return nil
	})
}

// DeregisterEverywhere removes name from every shard's registry.
func (i *Injector) DeregisterEverywhere(ctx context.Context, name string) error {
	return i.shards.InvokeOnAll(ctx, func(ctx context.Context) error {
		reg, err := shard.Registry(ctx)
		if err != nil {
			return err
		}
		reg.DeregisterProbe(name)
		return nil
	})
}

// SetException arms point of module with an exception fault on every shard.
func (i *Injector) SetException(ctx context.Context, module, point string) error {
	return i.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultException})
}

// SetDelay arms point of module with a delay fault on every shard.
func (i *Injector) SetDelay(ctx context.Context, module, point string) error {
	return i.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultDelay})
}

// SetTermination arms point of module with a termination fault on every shard.
func (i *Injector) SetTermination(ctx context.Context, module, point string) error {
	return i.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultTermination})
}

// Unset disarms point of module on every shard.
func (i *Injector) Unset(ctx context.Context, module, point string) error {
	return i.Apply(ctx, domain.Command{Module: module, Point: point, Fault: domain.FaultNone})
}

// Apply delivers cmd to every shard's registry, one call per shard.
func (i *Injector) Apply(ctx context.Context, cmd domain.Command) error {
	err := i.shards.InvokeOnAll(ctx, func(ctx context.Context) error {
		reg, err := shard.Registry(ctx)
		if err != nil {
			return err
		}
		reg.Apply(cmd)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply %s: %w", cmd, err)
	}
	return nil
}

// Points merges every shard's snapshot.
// A module registered on several shards lists the union of its points, in the
// order first seen walking shards from 0.
func (i *Injector) Points(ctx context.Context) (domain.Snapshot, error) {
	perShard := make([]domain.Snapshot, i.shards.Len())
	err := i.shards.InvokeOnAll(ctx, func(ctx context.Context) error {
		l, ok := shard.LocalFrom(ctx)
		if !ok {
			return shard.ErrNotOnShard
		}
		perShard[l.ShardID()] = l.Registry().Points()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect points: %w", err)
	}
	return mergeSnapshots(perShard), nil
}

// Close stops every shard after draining queued tasks.
func (i *Injector) Close() error {
	return i.shards.Close()
}

func mergeSnapshots(snaps []domain.Snapshot) domain.Snapshot {
	out := make(domain.Snapshot)
	seen := make(map[string]map[string]struct{})
	for _, snap := range snaps {
		for module, points := range snap {
			known, ok := seen[module]
			if !ok {
				known = make(map[string]struct{})
				seen[module] = known
				out[module] = []string{}
			}
			for _, p := range points {
				if _, dup := known[p]; dup {
					continue
				}
				known[p] = struct{}{}
				out[module] = append(out[module], p)
			}
		}
	}
	return out
}
