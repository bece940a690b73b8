package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

const colocationListing = "Constraint: rsc_colocation col1 rsc1 rsc2 INFINITY NA NA"

func TestColocationAuditSatisfied(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "list", 0, colocationListing)
	runner.on("node1", "locate rsc1", 0, "node1")
	runner.on("node1", "locate rsc2", 0, "node1", "node2")

	passed, err := NewColocationAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed, "source nodes are a subset of target nodes")
}

func TestColocationAuditViolated(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "list", 0, colocationListing)
	runner.on("node1", "locate rsc1", 0, "node2")
	runner.on("node1", "locate rsc2", 0, "node1")

	passed, err := NewColocationAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestColocationAuditInactiveSource(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "list", 0, colocationListing)
	runner.on("node1", "locate rsc1", 0)
	runner.on("node1", "locate rsc2", 0, "node1")

	passed, err := NewColocationAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed, "a stopped source has nothing to colocate")
}

func TestColocationAuditIgnoresOtherConstraints(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "list", 0,
		"Constraint: rsc_order ord1 rsc1 rsc2 INFINITY NA NA",
		"Constraint: rsc_location loc1 rsc1 node1 100 NA NA",
	)
	runner.on("node1", "locate rsc1", 0, "node2")
	runner.on("node1", "locate rsc2", 0, "node1")

	passed, err := NewColocationAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed)
	assert.False(t, runner.called("locate"), "only colocation constraints trigger locate queries")
}
