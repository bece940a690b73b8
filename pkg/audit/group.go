package audit

import (
	"context"

	"github.com/clustermill/proctor/pkg/log"
)

// GroupAudit verifies that the children of each resource group run together
// on one node, in listing order
type GroupAudit struct {
	resourceAudit
}

// NewGroupAudit creates the group placement audit
func NewGroupAudit(deps Deps) *GroupAudit {
	return &GroupAudit{resourceAudit{deps: deps, logger: log.WithAudit("group")}}
}

// Name returns the audit name
func (a *GroupAudit) Name() string { return "group" }

// Applicable reports whether this audit should run
func (a *GroupAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run walks the children of every group and checks their colocation
func (a *GroupAudit) Run(ctx context.Context) (bool, error) {
	inv, ok := a.setup(ctx)
	if !ok {
		return true, nil
	}

	result := true
	for _, group := range inv.resources {
		if group.Type != "group" {
			continue
		}

		firstMatch := true
		groupLocation := ""

		for _, child := range inv.resources {
			if child.Parent != group.ID {
				continue
			}

			nodes := a.deps.Cluster.ResourceLocation(ctx, child.ID)

			if firstMatch && len(nodes) > 0 {
				groupLocation = nodes[0]
			}
			firstMatch = false

			switch {
			case len(nodes) > 1:
				result = false
				a.logger.Error().Str("group", group.ID).Str("child", child.ID).
					Strs("nodes", nodes).Msg("group child active more than once")

			case len(nodes) == 0:
				// Groups may be partially active, but a child must not
				// run after a stopped sibling
				groupLocation = ""
				a.logger.Debug().Str("group", group.ID).Str("child", child.ID).
					Msg("group child stopped")

			case nodes[0] != groupLocation:
				result = false
				a.logger.Error().Str("group", group.ID).Str("child", child.ID).
					Str("node", nodes[0]).Str("expected", groupLocation).
					Msg("group child active on the wrong node")

			default:
				a.logger.Debug().Str("group", group.ID).Str("child", child.ID).
					Str("node", nodes[0]).Msg("group child active")
			}
		}
	}

	return result, nil
}
