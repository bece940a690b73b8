package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/types"
)

// FileAudit scans node filesystems for trouble left behind by the cluster:
// daemon core dumps anywhere, and stale IPC files on nodes that are
// expected to be out of the cluster
type FileAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// NewFileAudit creates the filesystem audit
func NewFileAudit(deps Deps) *FileAudit {
	return &FileAudit{deps: deps, logger: log.WithAudit("file")}
}

// Name returns the audit name
func (a *FileAudit) Name() string { return "file" }

// Applicable reports whether this audit should run
func (a *FileAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name())
}

// Run checks every configured node for new core files, and expected-down
// nodes for leftover IPC state
func (a *FileAudit) Run(ctx context.Context) (bool, error) {
	result := true

	if !a.deps.Cluster.WaitAllReachable(ctx) {
		a.logger.Warn().Msg("not all nodes reachable, auditing anyway")
	}

	for _, node := range a.deps.Cluster.Nodes() {
		if a.findCores(ctx, node, "/var/lib/pacemaker/cores/*", "pacemaker") {
			result = false
		}
		if a.findCores(ctx, node, "/var/lib/corosync", "corosync") {
			result = false
		}

		if a.deps.Cluster.Expected(node) == types.NodeDown {
			if a.staleIPC(ctx, node) {
				result = false
			}
		} else {
			a.logger.Debug().Str("node", node).Msg("skipping IPC check on expected-up node")
		}
	}

	return result, nil
}

// findCores reports whether a core file not seen before this session exists
// under path. Known core files are reported once and then ignored.
func (a *FileAudit) findCores(ctx context.Context, node, path, tool string) bool {
	_, out, err := a.deps.Runner.Exec(ctx, node, fmt.Sprintf("ls -al %s | grep core.[0-9]", path))
	if err != nil {
		a.logger.Debug().Str("node", node).Err(err).Msg("core file listing failed")
		return false
	}

	found := false
	for _, line := range out {
		line = strings.TrimSpace(line)
		if line == "" || a.deps.Store.KnownCore(line) {
			continue
		}

		found = true
		if err := a.deps.Store.AddCore(line); err != nil {
			a.logger.Warn().Err(err).Msg("failed to record core file")
		}
		a.logger.Warn().Str("node", node).Str("tool", tool).Str("core", line).
			Msg("new core file")
	}

	return found
}

// staleIPC reports and removes qb IPC files on a node expected to be down
func (a *FileAudit) staleIPC(ctx context.Context, node string) bool {
	_, out, err := a.deps.Runner.Exec(ctx, node, "ls -al /dev/shm | grep qb-")
	if err != nil {
		a.logger.Debug().Str("node", node).Err(err).Msg("IPC listing failed")
		return false
	}

	stale := false
	for _, line := range out {
		stale = true
		a.logger.Warn().Str("node", node).Str("file", strings.TrimSpace(line)).
			Msg("stale IPC file")
	}
	if !stale {
		return false
	}

	_, psout, _ := a.deps.Runner.Exec(ctx, node, "ps axf | grep -e pacemaker -e corosync")
	for _, line := range psout {
		a.logger.Debug().Str("node", node).Str("ps", line).Msg("leftover process")
	}

	if _, _, err := a.deps.Runner.Exec(ctx, node, "rm -rf /dev/shm/qb-*"); err != nil {
		a.logger.Warn().Str("node", node).Err(err).Msg("failed to remove stale IPC files")
	}

	return true
}
