package audit

import (
	"context"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/types"
)

// PrimitiveAudit verifies the placement of primitive resources: active and
// managed only when expected, active on exactly one node, never orphaned
// while running
type PrimitiveAudit struct {
	resourceAudit
}

// NewPrimitiveAudit creates the primitive placement audit
func NewPrimitiveAudit(deps Deps) *PrimitiveAudit {
	return &PrimitiveAudit{resourceAudit{deps: deps, logger: log.WithAudit("primitive")}}
}

// Name returns the audit name
func (a *PrimitiveAudit) Name() string { return "primitive" }

// Applicable reports whether this audit should run
func (a *PrimitiveAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run audits every primitive resource in the listing
func (a *PrimitiveAudit) Run(ctx context.Context) (bool, error) {
	inv, ok := a.setup(ctx)
	if !ok {
		return true, nil
	}

	result := true
	quorum := a.deps.Cluster.HasQuorum(ctx, nil)

	for _, resource := range inv.resources {
		if resource.Type != "primitive" {
			continue
		}
		if !a.auditPrimitive(ctx, inv, resource, quorum) {
			result = false
		}
	}

	return result, nil
}

// auditPrimitive applies the placement rules to one primitive. The rules
// are ordered: the first matching condition decides.
func (a *PrimitiveAudit) auditPrimitive(ctx context.Context, inv *inventory, resource types.Resource, quorum bool) bool {
	ok := true
	active := a.deps.Cluster.ResourceLocation(ctx, resource.ID)

	switch {
	case len(active) == 1:
		switch {
		case quorum:
			a.logger.Debug().Str("resource", resource.ID).Strs("nodes", active).
				Msg("resource active")
		case resource.NeedsQuorum:
			a.logger.Error().Str("resource", resource.ID).Strs("nodes", active).
				Msg("resource active without quorum")
			ok = false
		}

	case !resource.Managed:
		a.logger.Info().Str("resource", resource.ID).Strs("nodes", active).
			Msg("resource not managed")

	case !resource.Unique:
		// Clone instances share an id, so activity counts mean little here
		if len(active) > 1 {
			a.logger.Debug().Str("resource", resource.ID).Strs("nodes", active).
				Msg("non-unique resource active")
		} else {
			a.logger.Debug().Str("resource", resource.ID).
				Msg("non-unique resource not active")
		}

	case len(active) > 1:
		a.logger.Error().Str("resource", resource.ID).Strs("nodes", active).
			Msg("resource active multiple times")
		ok = false

	case resource.Orphan:
		a.logger.Debug().Str("resource", resource.ID).Msg("inactive orphan resource")

	case len(inv.inactive) == 0:
		a.logger.Error().Str("resource", resource.ID).Msg("resource not served anywhere")
		ok = false

	case a.deps.Config.Audits.WarnInactive:
		if quorum || !resource.NeedsQuorum {
			a.logger.Warn().Str("resource", resource.ID).Strs("inactive_nodes", inv.inactive).
				Msg("resource not served anywhere")
		} else {
			a.logger.Debug().Str("resource", resource.ID).Strs("inactive_nodes", inv.inactive).
				Msg("resource not served anywhere")
		}

	default:
		if quorum || !resource.NeedsQuorum {
			a.logger.Debug().Str("resource", resource.ID).Strs("inactive_nodes", inv.inactive).
				Msg("resource not served anywhere")
		}
	}

	return ok
}
