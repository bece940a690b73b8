package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clustermill/proctor/pkg/cluster"
	"github.com/clustermill/proctor/pkg/config"
	"github.com/clustermill/proctor/pkg/remote"
	"github.com/clustermill/proctor/pkg/session"
)

// ErrUnrecoverable marks a condition the harness cannot audit its way past.
// A session stops at the first audit whose error wraps it.
var ErrUnrecoverable = errors.New("unrecoverable audit failure")

// Audit checks one cluster invariant. Run returns the verdict; the error
// return is reserved for unrecoverable conditions. Probe and transport
// failures degrade to logged warnings, never errors.
type Audit interface {
	Name() string
	Run(ctx context.Context) (bool, error)
	Applicable() bool
}

// Deps carries the collaborators shared by all audits
type Deps struct {
	Config  *config.Config
	Runner  remote.Runner
	Cluster *cluster.Manager
	Store   session.Store
}

// Catalog returns every audit in canonical order
func Catalog(deps Deps) []Audit {
	return []Audit{
		NewDiskAudit(deps),
		NewFileAudit(deps),
		NewLogAudit(deps),
		NewControllerStateAudit(deps),
		NewPartitionAudit(deps),
		NewPrimitiveAudit(deps),
		NewGroupAudit(deps),
		NewCloneAudit(deps),
		NewColocationAudit(deps),
		NewCIBAudit(deps),
	}
}

// ByName selects audits by name, in the order given. An empty name list
// selects the whole catalog.
func ByName(deps Deps, names []string) ([]Audit, error) {
	all := Catalog(deps)
	if len(names) == 0 {
		return all, nil
	}

	byName := make(map[string]Audit, len(all))
	for _, a := range all {
		byName[a.Name()] = a
	}

	selected := make([]Audit, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		a, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("unknown audit: %s", name)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, a)
	}
	return selected, nil
}

// applicable is the shared gate: an audit runs unless disabled by policy,
// and, when it declares supported flavors, only if the configured cluster
// flavor is among them
func applicable(cfg *config.Config, name string, flavors ...string) bool {
	if cfg.AuditDisabled(name) {
		return false
	}
	if len(flavors) == 0 {
		return true
	}
	for _, flavor := range flavors {
		if strings.EqualFold(flavor, cfg.Flavor) {
			return true
		}
	}
	return false
}
