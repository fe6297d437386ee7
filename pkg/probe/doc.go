/*
Package probe defines the fault-injection capability a subsystem exposes to the registry.

A Probe owns a fixed set of named injection points and, per point, the fault it is
currently armed with. The registry only forwards commands; what a fault does when
business logic reaches the point is decided here.

# Usage

	p := probe.New(true, []string{"write", "flush"}, probe.WithDelay(200*time.Millisecond))
	reg.RegisterProbe("storage", p)
	defer reg.DeregisterProbe("storage")

	// At the injection point:
	if err := p.Inject(ctx, "write"); err != nil {
		return err
	}

Probes are owned by a single shard and are not safe for concurrent use.
*/
package probe
