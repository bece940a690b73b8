package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/metrics"
)

// Space thresholds for the filesystem holding the cluster logs: warn below
// 100MB free or above 90% used, critical below 10MB free or above 95% used.
const (
	diskRemainCritMB = 10
	diskRemainWarnMB = 100
	diskUsedCritPct  = 95
	diskUsedWarnPct  = 90
)

// DiskAudit verifies that every node has enough space left on whichever
// filesystem holds its logs
type DiskAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// NewDiskAudit creates the disk space audit
func NewDiskAudit(deps Deps) *DiskAudit {
	return &DiskAudit{deps: deps, logger: log.WithAudit("disk")}
}

// Name returns the audit name
func (a *DiskAudit) Name() string { return "disk" }

// Applicable reports whether this audit should run
func (a *DiskAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name())
}

// Run probes the log filesystem on every configured node
func (a *DiskAudit) Run(ctx context.Context) (bool, error) {
	result := true

	command := fmt.Sprintf(`df -BM %s | tail -1 | awk '{print $(NF-1)" "$(NF-2)}' | tr -d 'M%%'`,
		a.deps.Config.LogWatch.Dir)

	if !a.deps.Cluster.WaitAllReachable(ctx) {
		a.logger.Warn().Msg("not all nodes reachable, auditing anyway")
	}

	for _, node := range a.deps.Cluster.Nodes() {
		rc, out, err := a.deps.Runner.Exec(ctx, node, command)
		if err != nil || rc != 0 || len(out) == 0 {
			a.logger.Error().Str("node", node).Str("command", command).Err(err).
				Msg("cannot run remote df command")
			continue
		}

		usedPercent, remainMB, perr := parseDiskProbe(out[0])
		if perr != nil {
			a.logger.Warn().Str("node", node).Str("output", strings.TrimSpace(out[0])).
				Msg("invalid df output")
			continue
		}

		metrics.DiskUsedPercent.WithLabelValues(node).Set(float64(usedPercent))
		metrics.DiskRemainMB.WithLabelValues(node).Set(float64(remainMB))

		switch {
		case remainMB < diskRemainCritMB || usedPercent > diskUsedCritPct:
			a.logger.Error().Str("node", node).
				Int("used_percent", usedPercent).Int("remain_mb", remainMB).
				Msg("out of log disk space")
			result = false

			if a.deps.Config.Audits.StopOnDiskCritical {
				return false, fmt.Errorf("disk full on %s: %w", node, ErrUnrecoverable)
			}

		case remainMB < diskRemainWarnMB || usedPercent > diskUsedWarnPct:
			a.logger.Warn().Str("node", node).Int("remain_mb", remainMB).
				Msg("low on log disk space")
		}
	}

	return result, nil
}

// parseDiskProbe extracts "used% remainMB" from the df probe output
func parseDiskProbe(line string) (int, int, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("want two fields, have %d", len(fields))
	}

	used, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad used percentage %q: %w", fields[0], err)
	}
	remain, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad remaining megabytes %q: %w", fields[1], err)
	}

	return used, remain, nil
}
