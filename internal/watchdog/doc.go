// Package watchdog runs a periodic external liveness probe.
//
// The gateway sits between an MQTT broker and field hardware; when the
// broker link silently dies the process itself looks healthy. The
// watchdog runs a configured external command (typically a ping or
// broker-connect probe) on a fixed interval and records the outcome.
//
// # Architecture
//
//	┌──────────┐   interval    ┌───────────────────┐
//	│ Watchdog │──────────────▶│ exec.CommandContext│
//	│  (Run)   │               │  probe command     │
//	└────┬─────┘               └─────────┬─────────┘
//	     │ LastRun()                     │ kill after deadline
//	     ▼                               ▼
//	  observers                   failed run recorded
//
// A probe that exceeds the configured kill timeout is terminated by the
// command context and recorded as a failed run. The watchdog never
// restarts anything itself; an external supervisor owns that policy.
//
// # Thread Safety
//
// Run is meant to be called once from its own goroutine. LastRun may be
// called concurrently from any goroutine.
package watchdog
