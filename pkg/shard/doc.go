/*
Package shard runs single-threaded units of work that each own a fault registry.

A Shard is one goroutine draining a FIFO mailbox of tasks. Everything reachable from a
task's Local (most importantly the shard's Registry) is touched only by that goroutine,
which is why the registry needs no lock. The registry is created lazily the first time
a task asks for it and then lives as long as the shard.

A Group starts N shards and fans a task out to all of them, one task per shard. This is
how administrative commands reach every registry in the process.

# Usage

	g := shard.NewGroup(4)
	defer g.Close()

	err := g.InvokeOn(ctx, 0, func(ctx context.Context) error {
		reg, err := shard.Registry(ctx)
		if err != nil {
			return err
		}
		reg.RegisterProbe("storage", storageProbe)
		return nil
	})
*/
package shard
