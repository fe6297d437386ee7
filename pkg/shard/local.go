package shard

import (
	"context"

	"github.com/aretw0/finjector/pkg/registry"
)

// Local is the per-shard context object handed to every task.
// It must only be used from inside a task running on its shard.
type Local struct {
	shardID     int
	registry    *registry.Registry
	newRegistry func() *registry.Registry
}

// ShardID returns the id of the owning shard.
func (l *Local) ShardID() int {
	return l.shardID
}

// Registry returns the shard's registry, creating it on first use.
func (l *Local) Registry() *registry.Registry {
	if l.registry == nil {
		l.registry = l.newRegistry()
	}
	return l.registry
}

type localKey struct{}

func withLocal(ctx context.Context, l *Local) context.Context {
	return context.WithValue(ctx, localKey{}, l)
}

// LocalFrom returns the Local carried by a shard task context.
func LocalFrom(ctx context.Context) (*Local, bool) {
	l, ok := ctx.Value(localKey{}).(*Local)
	return l, ok
}

// Registry returns the registry of the shard running ctx's task.
func Registry(ctx context.Context) (*registry.Registry, error) {
	l, ok := LocalFrom(ctx)
	if !ok {
		return nil, ErrNotOnShard
	}
	return l.Registry(), nil
}
