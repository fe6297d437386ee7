/*
Package observability exports registry activity as Prometheus metrics.

Metrics.ForShard returns a registry.Observer bound to one shard. Each registry
reports its admissions, deregistrations and command outcomes through it, which
makes silently dropped commands visible without changing their no-op semantics.
*/
package observability
