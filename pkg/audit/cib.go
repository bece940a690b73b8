package audit

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/types"
)

// CIBAudit verifies that every node in a partition holds an identical
// configuration replica. Each member's configuration is pulled to the
// harness host, staged onto the partition's reference node and diffed
// there against the reference copy.
type CIBAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// NewCIBAudit creates the configuration replica audit
func NewCIBAudit(deps Deps) *CIBAudit {
	return &CIBAudit{deps: deps, logger: log.WithAudit("cib")}
}

// Name returns the audit name
func (a *CIBAudit) Name() string { return "cib" }

// Applicable reports whether this audit should run
func (a *CIBAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run checks configuration consistency within every partition
func (a *CIBAudit) Run(ctx context.Context) (bool, error) {
	partitions := a.deps.Cluster.FindPartitions(ctx)
	if len(partitions) == 0 {
		a.logger.Debug().Msg("no partitions to audit")
		return true, nil
	}

	result := true
	for _, partition := range partitions {
		a.logger.Debug().Str("partition", partition.Key()).Msg("auditing configuration consistency")
		if !a.auditPartition(ctx, partition) {
			result = false
		}
	}

	return result, nil
}

// auditPartition diffs every member's configuration against the first
// member with a retrievable one
func (a *CIBAudit) auditPartition(ctx context.Context, partition types.Partition) bool {
	passed := true

	var reference, referenceFile string
	for _, node := range partition {
		nodeFile, ok := a.storeRemoteCIB(ctx, node, reference)

		switch {
		case !ok:
			a.logger.Error().Str("node", node).Msg("could not audit: no configuration from node")
			passed = false

		case reference == "":
			reference = node
			referenceFile = nodeFile

		default:
			if !a.diffAgainstReference(ctx, reference, node, referenceFile, nodeFile) {
				passed = false
			}
		}
	}

	return passed
}

// diffAgainstReference runs the configuration diff tool on the reference
// node. Any output line other than an empty diff marker means the replicas
// diverged.
func (a *CIBAudit) diffAgainstReference(ctx context.Context, reference, node, referenceFile, nodeFile string) bool {
	passed := true

	command := fmt.Sprintf("crm_diff -VV -cf --new %s --original %s", nodeFile, referenceFile)
	rc, out, err := a.deps.Runner.Exec(ctx, reference, command)
	if err != nil || rc != 0 {
		a.logger.Error().Str("original", referenceFile).Str("new", nodeFile).
			Int("rc", rc).Err(err).Msg("configuration diff failed")
		passed = false
	}

	pair := reference + "-" + node
	for _, line := range out {
		if strings.Contains(line, "<diff/>") {
			a.logger.Debug().Str("nodes", pair).Str("line", line).Msg("configuration diff ignoring")
		} else {
			passed = false
			a.logger.Debug().Str("nodes", pair).Str("line", line).Msg("configuration diff")
		}
	}

	return passed
}

// storeRemoteCIB pulls the node's configuration to the harness host and
// stages it on the target node. With no target yet, the node keeps its own
// copy and becomes the reference.
func (a *CIBAudit) storeRemoteCIB(ctx context.Context, node, target string) (string, bool) {
	filename := fmt.Sprintf("/tmp/proctor.cib.%s.xml", node)

	if target == "" {
		target = node
	}

	rc, out, err := a.deps.Runner.Exec(ctx, node, a.deps.Config.Commands.CibQuery)
	if err != nil || rc != 0 {
		a.logger.Warn().Str("node", node).Int("rc", rc).Err(err).
			Msg("could not retrieve configuration")
		return "", false
	}

	if werr := os.WriteFile(filename, []byte(strings.Join(out, "\n")+"\n"), 0644); werr != nil {
		a.logger.Warn().Str("file", filename).Err(werr).Msg("could not stage configuration")
		return "", false
	}

	if cerr := a.deps.Runner.Copy(ctx, filename, target+":"+filename); cerr != nil {
		a.logger.Warn().Str("node", target).Err(cerr).Msg("could not store configuration")
		return "", false
	}

	return filename, true
}
