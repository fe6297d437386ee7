package testutils

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/finjector"
	"github.com/aretw0/finjector/pkg/domain"
	"github.com/aretw0/finjector/pkg/probe"
	"github.com/aretw0/finjector/pkg/shard"
	"github.com/stretchr/testify/require"
)

// NewInjector starts an Injector that is closed when the test ends.
// It fails the test immediately on error.
func NewInjector(t *testing.T, opts ...finjector.Option) *finjector.Injector {
	t.Helper()
	inj, err := finjector.New(opts...)
	require.NoError(t, err, "Failed to start injector")
	t.Cleanup(func() { _ = inj.Close() })
	return inj
}

// Tables keeps the probe.Table each shard built, so tests can read armed state back.
type Tables struct {
	mu     sync.Mutex
	tables map[int]*probe.Table
}

// NewTables creates an empty set.
func NewTables() *Tables {
	return &Tables{tables: make(map[int]*probe.Table)}
}

// Factory returns a ProbeFactory building an enabled table over points.
func (s *Tables) Factory(points ...string) finjector.ProbeFactory {
	return func(shardID int) probe.Probe {
		t := probe.New(true, points)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.tables[shardID] = t
		return t
	}
}

// Fault reads point on every shard, each read on its own shard, and requires they agree.
func (s *Tables) Fault(t *testing.T, inj *finjector.Injector, point string) domain.FaultType {
	t.Helper()
	got := make([]domain.FaultType, inj.Shards().Len())
	err := inj.Shards().InvokeOnAll(context.Background(), func(ctx context.Context) error {
		l, ok := shard.LocalFrom(ctx)
		if !ok {
			return shard.ErrNotOnShard
		}
		s.mu.Lock()
		tbl := s.tables[l.ShardID()]
		s.mu.Unlock()
		if tbl != nil {
			got[l.ShardID()] = tbl.Fault(point)
		}
		return nil
	})
	require.NoError(t, err)
	for _, f := range got[1:] {
		require.Equal(t, got[0], f, "shards disagree on %s", point)
	}
	return got[0]
}
