/*
Package log provides structured logging for Proctor using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Usage

Initialize once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
	})

Then create component loggers wherever long-lived actors need tagged output:

	logger := log.WithComponent("audit.disk")
	logger.Warn().Str("node", node).Int("remain_mb", remain).Msg("low on log disk space")

Audit code routes its diagnostics by severity: invariant violations at error,
soft thresholds at warn, per-decision traces at debug.

# Log Levels

  - debug: Detailed decision traces (placement counts, diff lines, probes)
  - info: Audit lifecycle events
  - warn: Soft-threshold and recoverable conditions
  - error: Invariant violations and command failures
  - fatal: Unrecoverable startup errors (exits process)

Console output is the default; JSONOutput switches to machine-readable
structured logs for collection.
*/
package log
