package audit

import (
	"context"

	"github.com/clustermill/proctor/pkg/log"
)

// CloneAudit enumerates clone resources and their children. It verifies
// that clone records parse and children resolve; it does not yet check
// placement counts.
type CloneAudit struct {
	resourceAudit
}

// NewCloneAudit creates the clone audit
func NewCloneAudit(deps Deps) *CloneAudit {
	return &CloneAudit{resourceAudit{deps: deps, logger: log.WithAudit("clone")}}
}

// Name returns the audit name
func (a *CloneAudit) Name() string { return "clone" }

// Applicable reports whether this audit should run
func (a *CloneAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run enumerates the children of every clone
func (a *CloneAudit) Run(ctx context.Context) (bool, error) {
	inv, ok := a.setup(ctx)
	if !ok {
		return true, nil
	}

	for _, clone := range inv.resources {
		if clone.Type != "clone" {
			continue
		}

		for _, child := range inv.resources {
			if child.Parent != clone.ID || child.Type != "primitive" {
				continue
			}

			// TODO: check instance counts against the clone_max and
			// clone_node_max metadata (crm_resource -g clone_max --meta -r <id>)
			a.logger.Debug().Str("clone", clone.ID).Str("child", child.ID).
				Msg("checking clone child")
		}
	}

	return true, nil
}
