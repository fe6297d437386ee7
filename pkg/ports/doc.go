/*
Package ports defines the driven ports (interfaces) between the fault injector core and
its administrative transports.

These interfaces decouple the shard runtime from the adapters that expose it, so the same
control surface can be driven over HTTP, a Redis channel or MCP.

# Key Interfaces

  - Controller: the administrative control surface (arm, disarm, list).
*/
package ports
