package shard

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Group is a fixed set of shards indexed from 0.
type Group struct {
	shards []*Shard
}

// NewGroup starts n shards. n <= 0 starts one shard per CPU.
func NewGroup(n int, opts ...Option) *Group {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	g := &Group{shards: make([]*Shard, n)}
	for i := range g.shards {
		g.shards[i] = New(i, opts...)
	}
	return g
}

// Len returns the number of shards.
func (g *Group) Len() int {
	return len(g.shards)
}

// Shard returns the shard with the given id.
func (g *Group) Shard(id int) (*Shard, error) {
	if id < 0 || id >= len(g.shards) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchShard, id)
	}
	return g.shards[id], nil
}

// InvokeOn runs task on one shard and waits for it.
func (g *Group) InvokeOn(ctx context.Context, id int, task Task) error {
	s, err := g.Shard(id)
	if err != nil {
		return err
	}
	return s.Invoke(ctx, task)
}

// InvokeOnAll runs task once on every shard, concurrently, and waits for all of them.
// Every shard is attempted even if another fails; the first error is returned.
func (g *Group) InvokeOnAll(ctx context.Context, task Task) error {
	var eg errgroup.Group
	for _, s := range g.shards {
		eg.Go(func() error {
			return s.Invoke(ctx, task)
		})
	}
	return eg.Wait()
}

// Close closes every shard.
func (g *Group) Close() error {
	var errs []error
	for _, s := range g.shards {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
