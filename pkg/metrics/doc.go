/*
Package metrics provides Prometheus metrics collection and exposition for Proctor.

The metrics package defines and registers all Proctor metrics using the
Prometheus client library, providing observability into audit outcomes, audit
latency, and the state of the cluster under audit. Metrics are exposed via an
HTTP endpoint for scraping when Proctor runs in a long-lived loop.

# Architecture

	┌────────────────── METRICS SYSTEM ───────────────────┐
	│                                                      │
	│  ┌─────────────────────────────────────────┐        │
	│  │         Prometheus Registry              │        │
	│  │  - Global DefaultRegistry                │        │
	│  │  - MustRegister at package init          │        │
	│  └──────────────────┬──────────────────────┘        │
	│                     │                                │
	│  ┌──────────────────▼──────────────────────┐        │
	│  │           Metric Sources                 │        │
	│  │                                          │        │
	│  │  Audit session: runs, failures,          │        │
	│  │    unrecoverable aborts, durations       │        │
	│  │  Disk audit: per-node space gauges       │        │
	│  │  Collector: periodic node state probe    │        │
	│  └──────────────────┬──────────────────────┘        │
	│                     │                                │
	│  ┌──────────────────▼──────────────────────┐        │
	│  │        HTTP Metrics Endpoint             │        │
	│  │  - Path: /metrics                        │        │
	│  │  - Handler: promhttp.Handler()           │        │
	│  └─────────────────────────────────────────┘        │
	└──────────────────────────────────────────────────────┘

# Metrics Catalog

Audit Metrics:

proctor_audit_runs_total{audit}:
  - Type: Counter
  - Description: Audit executions by audit name
  - Example: proctor_audit_runs_total{audit="disk"} 42

proctor_audit_failures_total{audit}:
  - Type: Counter
  - Description: Audit executions that found a violation
  - Example: proctor_audit_failures_total{audit="primitive"} 2

proctor_audit_unrecoverable_total:
  - Type: Counter
  - Description: Audit executions aborted by an unrecoverable error

proctor_audit_duration_seconds{audit}:
  - Type: Histogram
  - Description: Wall-clock duration of audit executions

Cluster Metrics:

proctor_nodes_total{state}:
  - Type: Gauge
  - Description: Configured nodes by probed controller state
    (stable, unstable, down)
  - Example: proctor_nodes_total{state="stable"} 3

Disk Metrics:

proctor_disk_used_percent{node}:
  - Type: Gauge
  - Description: Used space on the log filesystem, percent

proctor_disk_remain_mb{node}:
  - Type: Gauge
  - Description: Remaining space on the log filesystem, megabytes

# Usage

Timing an operation with the Timer helper:

	timer := metrics.NewTimer()
	passed, err := a.Run(ctx)
	timer.ObserveDurationVec(metrics.AuditDuration, a.Name())

Serving the endpoint:

	http.Handle("/metrics", metrics.Handler())

Running the background node state collector:

	collector := metrics.NewCollector(mgr)
	collector.Start()
	defer collector.Stop()

The collector probes every configured node on a 15 second ticker and sets
proctor_nodes_total. It is only worth starting for long-running audit loops;
one-shot runs update the audit counters and exit before a scrape happens.
*/
package metrics
