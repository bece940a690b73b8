package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Audit metrics
	AuditRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_audit_runs_total",
			Help: "Total number of audit runs by audit name",
		},
		[]string{"audit"},
	)

	AuditFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proctor_audit_failures_total",
			Help: "Total number of audit runs that found a violation, by audit name",
		},
		[]string{"audit"},
	)

	AuditUnrecoverable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proctor_audit_unrecoverable_total",
			Help: "Total number of audit runs aborted by an unrecoverable error",
		},
	)

	AuditDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proctor_audit_duration_seconds",
			Help:    "Audit run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"audit"},
	)

	// Cluster metrics
	NodesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proctor_nodes_total",
			Help: "Number of cluster nodes by probed controller state",
		},
		[]string{"state"},
	)

	// Disk metrics, fed by the disk audit
	DiskUsedPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proctor_disk_used_percent",
			Help: "Used space on the log filesystem in percent, per node",
		},
		[]string{"node"},
	)

	DiskRemainMB = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proctor_disk_remain_mb",
			Help: "Remaining space on the log filesystem in megabytes, per node",
		},
		[]string{"node"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(AuditRuns)
	prometheus.MustRegister(AuditFailures)
	prometheus.MustRegister(AuditUnrecoverable)
	prometheus.MustRegister(AuditDuration)
	prometheus.MustRegister(NodesTotal)
	prometheus.MustRegister(DiskUsedPercent)
	prometheus.MustRegister(DiskRemainMB)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
