package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clustermill/proctor/pkg/log"
	"github.com/clustermill/proctor/pkg/types"
)

// ControllerStateAudit verifies that every node's controller matches its
// expected membership: up nodes answer and are stable, down nodes stay
// silent
type ControllerStateAudit struct {
	deps   Deps
	logger zerolog.Logger
}

// NewControllerStateAudit creates the controller state audit
func NewControllerStateAudit(deps Deps) *ControllerStateAudit {
	return &ControllerStateAudit{deps: deps, logger: log.WithAudit("controller-state")}
}

// Name returns the audit name
func (a *ControllerStateAudit) Name() string { return "controller-state" }

// Applicable reports whether this audit should run
func (a *ControllerStateAudit) Applicable() bool {
	return applicable(a.deps.Config, a.Name(), "corosync")
}

// Run probes every configured node concurrently and tallies the mismatches
func (a *ControllerStateAudit) Run(ctx context.Context) (bool, error) {
	nodes := a.deps.Cluster.Nodes()

	type probe struct {
		node  string
		state types.ControllerState
	}

	results := make(chan probe, len(nodes))
	var wg sync.WaitGroup
	for _, node := range nodes {
		wg.Add(1)
		go func(node string) {
			defer wg.Done()
			results <- probe{node: node, state: a.deps.Cluster.ProbeNode(ctx, node)}
		}(node)
	}
	wg.Wait()
	close(results)

	states := make(map[string]types.ControllerState, len(nodes))
	for p := range results {
		states[p.node] = p.state
	}

	// Tally in configuration order so reruns log identically
	var upAreDown, downAreUp, unstable []string
	for _, node := range nodes {
		state := states[node]
		expected := a.deps.Cluster.Expected(node)

		if state.Up() {
			if expected == types.NodeDown {
				downAreUp = append(downAreUp, node)
			}
			if state == types.ControllerUpUnstable {
				unstable = append(unstable, node)
			}
		} else if expected == types.NodeUp {
			upAreDown = append(upAreDown, node)
		}
	}

	result := true
	if len(unstable) > 0 {
		result = false
		a.logger.Error().Strs("nodes", unstable).Int("up_nodes", a.deps.Cluster.UpCount()).
			Msg("cluster is not stable")
	}
	if len(upAreDown) > 0 {
		result = false
		a.logger.Error().Strs("nodes", upAreDown).Int("total", len(nodes)).
			Msg("nodes expected to be up were down")
	}
	if len(downAreUp) > 0 {
		result = false
		a.logger.Error().Strs("nodes", downAreUp).Int("total", len(nodes)).
			Msg("nodes expected to be down were up")
	}

	return result, nil
}
