package audit

import (
	"context"

	"github.com/clustermill/proctor/pkg/log"
)

// ColocationAudit verifies that every node running a colocated resource
// also runs the resource it must be colocated with
type ColocationAudit struct {
	resourceAudit
}

// NewColocationAudit creates the colocation audit
func NewColocationAudit(deps Deps) *ColocationAudit {
	return &ColocationAudit{resourceAudit{deps: deps, logger: log.WithAudit("colocation")}}
}

// Name returns the audit name
func (a *ColocationAudit) Name() string { return "colocation" }

// Applicable reports whether this audit should run
func (a *ColocationAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run checks every colocation constraint in the listing
func (a *ColocationAudit) Run(ctx context.Context) (bool, error) {
	inv, ok := a.setup(ctx)
	if !ok {
		return true, nil
	}

	result := true
	for _, constraint := range inv.constraints {
		if constraint.Type != "rsc_colocation" {
			continue
		}

		source := a.locations(ctx, inv.target, constraint.Resource)
		target := a.locations(ctx, inv.target, constraint.Target)

		if len(source) == 0 {
			a.logger.Debug().Str("constraint", constraint.ID).
				Str("resource", constraint.Resource).Msg("colocation source not running")
			continue
		}

		for _, node := range source {
			if containsNode(target, node) {
				a.logger.Debug().Str("constraint", constraint.ID).
					Str("resource", constraint.Resource).Str("node", node).
					Msg("colocation satisfied")
			} else {
				result = false
				a.logger.Error().Str("constraint", constraint.ID).
					Str("resource", constraint.Resource).Str("node", node).
					Strs("target_nodes", target).Msg("colocation violated")
			}
		}
	}

	return result, nil
}
