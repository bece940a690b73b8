package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/types"
)

// resourceAudit is the shared base of the placement audits. It classifies
// nodes by expected status, picks a query target, and parses the resource
// listing from it.
type resourceAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// inventory is one audit's parsed view of the cluster configuration
type inventory struct {
	target      string   // first expected-up node, runs the queries
	active      []string // nodes expected up
	inactive    []string // nodes expected down
	resources   []types.Resource
	constraints []types.Constraint
}

// setup builds the inventory. A cluster with no expected-up nodes or an
// unanswerable listing command degrades to a skipped audit, not a failure.
func (a *resourceAudit) setup(ctx context.Context) (*inventory, bool) {
	inv := &inventory{}

	for _, node := range a.deps.Cluster.Nodes() {
		if a.deps.Cluster.Expected(node) == types.NodeUp {
			inv.active = append(inv.active, node)
			if inv.target == "" {
				inv.target = node
			}
		} else {
			inv.inactive = append(inv.inactive, node)
		}
	}

	if inv.target == "" {
		a.logger.Debug().Msg("no nodes active, skipping audit")
		return nil, false
	}

	rc, out, err := a.deps.Runner.Exec(ctx, inv.target, a.deps.Config.Commands.ResourceList)
	if err != nil || rc != 0 {
		a.logger.Warn().Str("node", inv.target).Int("rc", rc).Err(err).
			Msg("resource listing failed, skipping audit")
		return nil, false
	}

	for _, line := range out {
		switch {
		case strings.HasPrefix(line, "Resource"):
			resource, perr := types.ParseResource(line)
			if perr != nil {
				a.logger.Warn().Str("line", line).Err(perr).Msg("bad resource entry")
				continue
			}
			inv.resources = append(inv.resources, resource)

		case strings.HasPrefix(line, "Constraint"):
			constraint, perr := types.ParseConstraint(line)
			if perr != nil {
				a.logger.Warn().Str("line", line).Err(perr).Msg("bad constraint entry")
				continue
			}
			inv.constraints = append(inv.constraints, constraint)

		case strings.TrimSpace(line) == "":

		default:
			a.logger.Info().Str("line", line).Msg("unknown entry")
		}
	}

	return inv, true
}

// locations returns the nodes where a resource is running according to the
// locate query issued on the target node
func (a *resourceAudit) locations(ctx context.Context, target, id string) []string {
	command := fmt.Sprintf(a.deps.Config.Commands.ResourceLocate, id)

	rc, out, err := a.deps.Runner.Exec(ctx, target, command)
	if err != nil {
		a.logger.Debug().Str("node", target).Str("resource", id).Err(err).
			Msg("locate query failed")
		return nil
	}
	if rc != 0 {
		return nil
	}

	var hosts []string
	for _, line := range out {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			hosts = append(hosts, fields[0])
		}
	}
	return hosts
}

func containsNode(nodes []string, node string) bool {
	for _, n := range nodes {
		if n == node {
			return true
		}
	}
	return false
}
