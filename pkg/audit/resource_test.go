package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInventoryParsing(t *testing.T) {
	cfg := testConfig("node1", "node2", "node3")
	cfg.InitialStatus = map[string]string{"node3": "down"}

	runner := newFakeRunner()
	runner.on("node1", "list", 0,
		"Resource: primitive rsc1 NA NA heartbeat ocf Dummy node1 1 34 0x22",
		"Resource: primitive broken NA NA heartbeat ocf Dummy node1 1",
		"Constraint: rsc_colocation col1 rsc1 rsc2 INFINITY NA NA",
		"",
		"Banner line the tooling printed",
	)

	a := &resourceAudit{deps: testDeps(runner, cfg)}
	inv, ok := a.setup(context.Background())

	assert.True(t, ok)
	assert.Equal(t, "node1", inv.target)
	assert.Equal(t, []string{"node1", "node2"}, inv.active)
	assert.Equal(t, []string{"node3"}, inv.inactive)

	assert.Len(t, inv.resources, 1, "short records are dropped")
	assert.Equal(t, "rsc1", inv.resources[0].ID)
	assert.True(t, inv.resources[0].Managed)
	assert.True(t, inv.resources[0].Unique)
	assert.True(t, inv.resources[0].NeedsQuorum)

	assert.Len(t, inv.constraints, 1)
	assert.Equal(t, "rsc1", inv.constraints[0].Resource)
	assert.Equal(t, "rsc2", inv.constraints[0].Target)
}

func TestInventoryWithoutActiveNodes(t *testing.T) {
	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node1": "down", "node2": "down"}

	a := &resourceAudit{deps: testDeps(newFakeRunner(), cfg)}
	inv, ok := a.setup(context.Background())

	assert.False(t, ok)
	assert.Nil(t, inv)
}

func TestInventoryListingUnanswered(t *testing.T) {
	runner := newFakeRunner()
	runner.fail("node1", "list")

	a := &resourceAudit{deps: testDeps(runner, testConfig("node1"))}
	_, ok := a.setup(context.Background())

	assert.False(t, ok)
}

func TestResourceLocations(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "locate rsc1", 0, "node1 (ocf::heartbeat:Dummy)", "node2")
	runner.on("node1", "locate rsc2", 3)
	runner.fail("node1", "locate rsc3")

	a := &resourceAudit{deps: testDeps(runner, testConfig("node1"))}
	ctx := context.Background()

	assert.Equal(t, []string{"node1", "node2"}, a.locations(ctx, "node1", "rsc1"))
	assert.Nil(t, a.locations(ctx, "node1", "rsc2"))
	assert.Nil(t, a.locations(ctx, "node1", "rsc3"))
}

func TestCloneAuditEnumeratesChildren(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "list", 0,
		"Resource: clone cln1 NA NA NA NA NA NA 1 34 0x22",
		"Resource: primitive stateful 0 cln1 pacemaker ocf Stateful node1 1 2 0x02",
		"Resource: primitive stateful 1 cln1 pacemaker ocf Stateful node2 1 2 0x02",
		"Resource: primitive lonely NA NA heartbeat ocf Dummy node1 1 34 0x22",
	)

	passed, err := NewCloneAudit(testDeps(runner, testConfig("node1", "node2"))).Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed)
	assert.False(t, runner.called("active"), "clone children are not located yet")
}
