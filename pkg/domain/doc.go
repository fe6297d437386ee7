/*
Package domain contains the shared vocabulary of the fault injector.

It defines the fault kinds a probe point can be armed with, the administrative
Command shape that every transport decodes into, and the sentinel errors returned
around the registry. This package is kept pure and free of I/O.

# Key Entities

  - FaultType: none, exception, delay or terminate.
  - Command: a (module, point, fault) triple. FaultNone means "unset".
  - Snapshot: module name to injection point names.
*/
package domain
