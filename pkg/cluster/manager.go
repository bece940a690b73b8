package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/config"
	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/remote"
	"github.com/clustermill/proctor/pkg/types"
)

// Manager holds Proctor's view of the cluster under audit: the configured
// nodes, their expected status, and the command templates used to
// interrogate them. All cluster access goes through the remote Runner.
type Manager struct {
	mu       sync.RWMutex
	nodes    []string
	expected map[string]types.NodeStatus

	commands config.Commands
	settle   time.Duration
	reach    time.Duration

	runner remote.Runner
	logger zerolog.Logger
}

// NewManager creates a cluster view from the configuration
func NewManager(runner remote.Runner, cfg *config.Config) *Manager {
	return &Manager{
		nodes:    append([]string(nil), cfg.Nodes...),
		expected: cfg.ExpectedStatus(),
		commands: cfg.Commands,
		settle:   time.Duration(cfg.Limits.SettleTime) * time.Second,
		reach:    time.Duration(cfg.Limits.ReachTimeout) * time.Second,
		runner:   runner,
		logger:   log.WithComponent("cluster"),
	}
}

// Nodes returns the configured node names in configuration order
func (m *Manager) Nodes() []string {
	return append([]string(nil), m.nodes...)
}

// Expected returns the expected status of a node
func (m *Manager) Expected(node string) types.NodeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expected[node]
}

// SetExpected updates the expected status of a node
func (m *Manager) SetExpected(node string, status types.NodeStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expected[node] = status
}

// ExpectedUp returns the nodes expected to be cluster members, in
// configuration order
func (m *Manager) ExpectedUp() []string {
	return m.withStatus(types.NodeUp)
}

// ExpectedDown returns the nodes expected to be out of the cluster, in
// configuration order
func (m *Manager) ExpectedDown() []string {
	return m.withStatus(types.NodeDown)
}

// UpCount returns the number of nodes expected up
func (m *Manager) UpCount() int {
	return len(m.withStatus(types.NodeUp))
}

func (m *Manager) withStatus(status types.NodeStatus) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var nodes []string
	for _, node := range m.nodes {
		if m.expected[node] == status {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// NodeState returns the raw controller status line reported by a node,
// trimmed. An unreachable or silent node yields an empty string.
func (m *Manager) NodeState(ctx context.Context, node string) string {
	command := fmt.Sprintf(m.commands.Status, node)
	rc, out, err := m.runner.Exec(ctx, node, command)
	if err != nil {
		m.logger.Debug().Str("node", node).Err(err).Msg("status probe failed")
		return ""
	}
	if rc != 0 || len(out) == 0 {
		return ""
	}
	return strings.TrimSpace(out[0])
}

// ProbeNode reports whether a node's controller is down, up but unstable,
// or up and stable
func (m *Manager) ProbeNode(ctx context.Context, node string) types.ControllerState {
	status := m.NodeState(ctx, node)

	if !strings.Contains(status, "ok") {
		return types.ControllerDown
	}
	if strings.Contains(status, "S_IDLE") || strings.Contains(status, "S_NOT_DC") {
		return types.ControllerUpStable
	}
	return types.ControllerUpUnstable
}

// IsDC reports whether a controller status line identifies the node as the
// designated controller
func IsDC(status string) bool {
	return strings.Contains(status, "S_IDLE") || strings.Contains(status, "S_TRANSITION_ENGINE")
}

// ResourceLocation returns the expected-up nodes on which the given
// resource is active
func (m *Manager) ResourceLocation(ctx context.Context, id string) []string {
	var hosts []string

	for _, node := range m.ExpectedUp() {
		command := fmt.Sprintf(m.commands.ResourceActive, id)
		rc, _, err := m.runner.Exec(ctx, node, command)
		if err != nil {
			m.logger.Debug().Str("node", node).Str("resource", id).Err(err).Msg("activity probe failed")
			continue
		}
		if rc == 0 {
			hosts = append(hosts, node)
		}
	}

	return hosts
}

// HasQuorum asks the first expected-up node whether its partition has
// quorum. A non-nil partition restricts the probe to its members.
func (m *Manager) HasQuorum(ctx context.Context, partition types.Partition) bool {
	candidates := m.ExpectedUp()
	if partition != nil {
		var members []string
		for _, node := range candidates {
			if partition.Contains(node) {
				members = append(members, node)
			}
		}
		candidates = members
	}

	for _, node := range candidates {
		rc, out, err := m.runner.Exec(ctx, node, m.commands.Quorum)
		if err != nil {
			m.logger.Debug().Str("node", node).Err(err).Msg("quorum probe failed")
			return false
		}
		if rc != 0 || len(out) == 0 {
			return false
		}
		return strings.TrimSpace(out[0]) == "1"
	}

	return false
}

// FindPartitions asks every expected-up node for its membership view and
// returns the distinct partitions found. Nodes reporting nothing are
// skipped; membership lists are sorted so that views compare canonically.
func (m *Manager) FindPartitions(ctx context.Context) []types.Partition {
	var partitions []types.Partition
	seen := make(map[string]bool)

	for _, node := range m.nodes {
		if m.Expected(node) != types.NodeUp {
			m.logger.Debug().Str("node", node).Msg("node is down, skipping")
			continue
		}

		rc, out, err := m.runner.Exec(ctx, node, m.commands.Partition)
		if err != nil || rc != 0 || len(out) == 0 {
			continue
		}

		line := strings.TrimSpace(out[0])
		if len(line) <= 2 {
			m.logger.Warn().Str("node", node).Str("details", line).Msg("bad partition details")
			continue
		}

		members := strings.Fields(line)
		sort.Strings(members)
		partition := types.Partition(members)

		if !seen[partition.Key()] {
			seen[partition.Key()] = true
			partitions = append(partitions, partition)
		}
	}

	return partitions
}

// Stable reports whether every expected-up node probes as stable. With
// double set, the check is repeated after a settle delay and both rounds
// must pass.
func (m *Manager) Stable(ctx context.Context, double bool) bool {
	stable := m.stableOnce(ctx)

	if double && stable {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(m.settle):
		}
		stable = m.stableOnce(ctx)
	}

	return stable
}

func (m *Manager) stableOnce(ctx context.Context) bool {
	for _, node := range m.ExpectedUp() {
		if state := m.ProbeNode(ctx, node); state != types.ControllerUpStable {
			m.logger.Debug().Str("node", node).Stringer("state", state).Msg("node not stable")
			return false
		}
	}
	return true
}

// WaitReachable polls a node until it answers trivial commands or the
// reachability timeout lapses
func (m *Manager) WaitReachable(ctx context.Context, node string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.reach)
	defer cancel()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Check immediately
	if m.reachable(ctx, node) {
		return true
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Warn().Str("node", node).Msg("node not reachable")
			return false
		case <-ticker.C:
			if m.reachable(ctx, node) {
				return true
			}
		}
	}
}

// WaitAllReachable waits for every configured node to answer
func (m *Manager) WaitAllReachable(ctx context.Context) bool {
	ok := true
	for _, node := range m.nodes {
		if !m.WaitReachable(ctx, node) {
			ok = false
		}
	}
	return ok
}

func (m *Manager) reachable(ctx context.Context, node string) bool {
	rc, _, err := m.runner.Exec(ctx, node, m.commands.Reachable)
	return err == nil && rc == 0
}
