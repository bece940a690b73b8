package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestControllerStateAllAsExpected(t *testing.T) {
	cfg := testConfig("node1", "node2", "node3")
	cfg.InitialStatus = map[string]string{"node3": "down"}

	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")
	runner.on("node2", "status node2", 0, "Status of crmd@node2: S_NOT_DC (ok)")
	// node3 stays silent, as a down node should

	passed, err := NewControllerStateAudit(testDeps(runner, cfg)).Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestControllerStateUpNodeIsSilent(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")

	passed, err := NewControllerStateAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestControllerStateDownNodeAnswers(t *testing.T) {
	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node2": "down"}

	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")
	runner.on("node2", "status node2", 0, "Status of crmd@node2: S_NOT_DC (ok)")

	passed, err := NewControllerStateAudit(testDeps(runner, cfg)).Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestControllerStateUnstableNode(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")
	runner.on("node2", "status node2", 0, "Status of crmd@node2: S_POLICY_ENGINE (ok)")

	passed, err := NewControllerStateAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestControllerStateTalliesEveryMismatch(t *testing.T) {
	cfg := testConfig("node1", "node2", "node3", "node4")
	cfg.InitialStatus = map[string]string{"node3": "down"}

	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")
	// node2 expected up, silent; node3 expected down, answering and
	// unstable; node4 expected up, transitioning
	runner.on("node3", "status node3", 0, "Status of crmd@node3: S_ELECTION (ok)")
	runner.on("node4", "status node4", 0, "Status of crmd@node4: S_TRANSITION_ENGINE (ok)")

	passed, err := NewControllerStateAudit(testDeps(runner, cfg)).Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
}
