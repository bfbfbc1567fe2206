/*
Package ports defines the driven ports (interfaces) of the sweep driver.

These interfaces decouple the driver loop from concrete implementations, so the
same loop can dispatch to real processes or test doubles, report to a terminal
or to NDJSON, and persist progress in memory, on disk or in Redis.

# Key Interfaces

  - Dispatcher: Runs one configuration as an external process.
  - Reporter: Publishes every run result and the final summary.
  - ProgressStore: Persists how far a sweep has advanced, for resume.
  - Locker: Ensures a single driver works on a given sweep at a time.
*/
package ports
