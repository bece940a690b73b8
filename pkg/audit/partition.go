package audit

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/cluster"
	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/types"
)

// PartitionAudit verifies the membership views of the cluster: the number
// of partitions matches expectations and each partition elected the right
// leader. The expected-status map is updated for nodes that joined or
// vanished; membership changes alone are not this audit's failure.
type PartitionAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// memberState is what one partition member reports about itself
type memberState struct {
	state  string
	epoch  *int // nil when the node could not report one
	quorum string
}

// NewPartitionAudit creates the partition audit
func NewPartitionAudit(deps Deps) *PartitionAudit {
	return &PartitionAudit{deps: deps, logger: log.WithAudit("partition")}
}

// Name returns the audit name
func (a *PartitionAudit) Name() string { return "partition" }

// Applicable reports whether this audit should run
func (a *PartitionAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run audits every partition reported by the cluster
func (a *PartitionAudit) Run(ctx context.Context) (bool, error) {
	partitions := a.deps.Cluster.FindPartitions(ctx)
	if len(partitions) == 0 {
		return true, nil
	}

	if !a.deps.Cluster.Stable(ctx, true) {
		a.logger.Warn().Msg("cluster not stable before partition audit")
	}

	result := true
	if len(partitions) != a.deps.Config.Audits.ExpectedPartitions {
		result = false
		a.logger.Error().Int("found", len(partitions)).
			Int("expected", a.deps.Config.Audits.ExpectedPartitions).
			Msg("unexpected number of cluster partitions")
		for _, partition := range partitions {
			a.logger.Error().Str("partition", partition.Key()).Msg("detected partition")
		}
	}

	for _, partition := range partitions {
		if !a.auditPartition(ctx, partition) {
			result = false
		}
	}

	return result, nil
}

// auditPartition gathers every member's view and checks that the partition
// elected exactly one leader, on the oldest member
func (a *PartitionAudit) auditPartition(ctx context.Context, partition types.Partition) bool {
	passed := true

	a.logger.Debug().Str("partition", partition.Key()).Msg("auditing partition")

	members := make(map[string]memberState, len(partition))
	var lowestEpoch *int

	for _, node := range partition {
		if a.deps.Cluster.Expected(node) != types.NodeUp {
			a.logger.Warn().Str("node", node).Msg("node appeared out of nowhere")
			// membership changes are not what this audit checks for
			a.deps.Cluster.SetExpected(node, types.NodeUp)
		}

		member := memberState{
			state:  a.deps.Cluster.NodeState(ctx, node),
			quorum: a.gather(ctx, node, a.deps.Config.Commands.Quorum),
		}

		rawEpoch := a.gather(ctx, node, a.deps.Config.Commands.Epoch)
		a.logger.Debug().Str("node", node).Str("state", member.state).
			Str("epoch", rawEpoch).Str("quorum", member.quorum).Msg("member state")

		if epoch, err := strconv.Atoi(rawEpoch); err == nil {
			member.epoch = &epoch
		} else {
			a.logger.Warn().Str("node", node).Str("epoch", rawEpoch).
				Msg("node disappeared: can't determine epoch")
			a.deps.Cluster.SetExpected(node, types.NodeDown)
		}

		if member.epoch != nil && (lowestEpoch == nil || *member.epoch < *lowestEpoch) {
			lowestEpoch = member.epoch
		}

		members[node] = member
	}

	if lowestEpoch == nil {
		a.logger.Error().Str("partition", partition.Key()).Msg("lowest epoch not determined")
		passed = false
	}

	var dcFound []string
	for _, node := range partition {
		if a.deps.Cluster.Expected(node) != types.NodeUp {
			continue
		}

		member := members[node]
		if !cluster.IsDC(member.state) {
			continue
		}

		dcFound = append(dcFound, node)
		switch {
		case member.epoch == nil:
			a.logger.Debug().Str("node", node).Msg("leader age check ignored: no node epoch")
		case lowestEpoch == nil:
			a.logger.Debug().Str("node", node).Msg("leader age check ignored: no lowest epoch")
		case *member.epoch == *lowestEpoch:
			a.logger.Debug().Str("node", node).Msg("leader is the oldest member")
		default:
			passed = false
			a.logger.Error().Str("node", node).Int("epoch", *member.epoch).
				Int("lowest", *lowestEpoch).Msg("DC is not the oldest node")
		}
	}

	switch {
	case len(dcFound) == 0:
		a.logger.Warn().Str("partition", partition.Key()).Msg("no DC found in partition")
	case len(dcFound) > 1:
		passed = false
		a.logger.Error().Strs("nodes", dcFound).Str("partition", partition.Key()).
			Msg("multiple DCs found in partition")
	}

	if !passed {
		for _, node := range partition {
			if a.deps.Cluster.Expected(node) != types.NodeUp {
				continue
			}
			member := members[node]
			epoch := "unknown"
			if member.epoch != nil {
				epoch = strconv.Itoa(*member.epoch)
			}
			a.logger.Info().Str("node", node).Str("epoch", epoch).
				Str("state", member.state).Msg("partition member")
		}
	}

	return passed
}

// gather runs a single-line query on a node and returns the trimmed first
// output line, or empty when the node did not answer
func (a *PartitionAudit) gather(ctx context.Context, node, command string) string {
	rc, out, err := a.deps.Runner.Exec(ctx, node, command)
	if err != nil || rc != 0 || len(out) == 0 {
		return ""
	}
	return strings.TrimSpace(out[0])
}
