/*
Package finjector is a runtime fault-injection registry for resilience testing.

Independent subsystems expose named injection points through a probe. An operator can
then arm any point with a fault (an injected error, a delay or process termination)
while the program runs, without recompiling it.

# Concept

Work runs on shards: single goroutines that each own their state. Every shard has its
own registry mapping module names to probes, created lazily the first time a task on
that shard asks for it. Because a registry is only touched by its shard, it carries no
lock. Administrative commands are fanned out by the Injector, one registry call per
shard. Commands that target a module nobody registered are silently ignored, and so
are attempts to register a nil or disabled probe.

# Key Features

  - Shard-local registries: no contention between shards.
  - Capability interface: probes decide what a fault does when a point is reached.
  - Safe control path: misuse never destabilizes the host process.
  - Transports: HTTP (chi), Redis pub/sub and MCP adapters drive the same Controller.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/finjector"
		"github.com/aretw0/finjector/pkg/probe"
	)

	func main() {
		inj, err := finjector.New(finjector.WithShards(4))
		if err != nil {
			log.Fatal(err)
		}
		defer inj.Close()

		ctx := context.Background()

		// Each shard builds and registers its own probe.
		err = inj.RegisterEverywhere(ctx, "storage", func(shardID int) probe.Probe {
			return probe.New(true, []string{"write", "flush"})
		})
		if err != nil {
			log.Fatal(err)
		}

		// Arm the "write" point of "storage" on every shard.
		if err := inj.SetDelay(ctx, "storage", "write"); err != nil {
			log.Fatal(err)
		}
	}

Probe owners must deregister a probe before discarding it: registries hold plain
references and cannot detect a probe that is gone.
*/
package finjector
