/*
Package registry implements the shard-local table of fault-injection probes.

A Registry maps module names to probes and forwards administrative commands to them.
It belongs to exactly one shard and is only ever touched from that shard's goroutine,
so it carries no lock. Anomalies (nil or disabled probes, unknown modules) are silent
no-ops, visible only through debug records and the optional Observer.

Probes are referenced, not owned: a probe's owner must call DeregisterProbe before
tearing the probe down.
*/
package registry
