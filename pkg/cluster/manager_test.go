package cluster

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clustermill/proctor/pkg/config"
	"github.com/clustermill/proctor/pkg/types"
)

// fakeRunner returns scripted responses keyed by node and command
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]response
	calls     []string
}

type response struct {
	rc  int
	out []string
	err error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]response)}
}

func (f *fakeRunner) on(node, command string, rc int, out ...string) {
	f.responses[node+"|"+command] = response{rc: rc, out: out}
}

func (f *fakeRunner) fail(node, command string) {
	f.responses[node+"|"+command] = response{err: fmt.Errorf("node unreachable")}
}

func (f *fakeRunner) Exec(_ context.Context, node, command string) (int, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, node+"|"+command)
	r, ok := f.responses[node+"|"+command]
	if !ok {
		return 1, nil, nil
	}
	return r.rc, r.out, r.err
}

func (f *fakeRunner) Copy(_ context.Context, _, _ string) error {
	return nil
}

func testConfig(nodes ...string) *config.Config {
	cfg := config.Default()
	cfg.Nodes = nodes
	cfg.Commands = config.Commands{
		Status:         "status %s",
		Epoch:          "epoch",
		Quorum:         "quorum",
		Partition:      "partition",
		CibQuery:       "cib",
		ResourceList:   "list",
		ResourceLocate: "locate %s",
		ResourceActive: "active %s",
		Reachable:      "ping",
	}
	cfg.Limits.SettleTime = 0
	cfg.Limits.ReachTimeout = 0
	return cfg
}

func TestExpectedStatus(t *testing.T) {
	cfg := testConfig("node1", "node2", "node3")
	cfg.InitialStatus = map[string]string{"node3": "down"}

	m := NewManager(newFakeRunner(), cfg)

	assert.Equal(t, []string{"node1", "node2"}, m.ExpectedUp())
	assert.Equal(t, []string{"node3"}, m.ExpectedDown())
	assert.Equal(t, 2, m.UpCount())

	m.SetExpected("node1", types.NodeDown)
	assert.Equal(t, types.NodeDown, m.Expected("node1"))
	assert.Equal(t, []string{"node2"}, m.ExpectedUp())
}

func TestProbeNode(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "Status of crmd@node1: S_IDLE (ok)")
	runner.on("node2", "status node2", 0, "Status of crmd@node2: S_POLICY_ENGINE (ok)")
	runner.on("node3", "status node3", 1)
	runner.fail("node4", "status node4")

	m := NewManager(runner, testConfig("node1", "node2", "node3", "node4"))
	ctx := context.Background()

	assert.Equal(t, types.ControllerUpStable, m.ProbeNode(ctx, "node1"))
	assert.Equal(t, types.ControllerUpUnstable, m.ProbeNode(ctx, "node2"))
	assert.Equal(t, types.ControllerDown, m.ProbeNode(ctx, "node3"))
	assert.Equal(t, types.ControllerDown, m.ProbeNode(ctx, "node4"))
}

func TestIsDC(t *testing.T) {
	assert.True(t, IsDC("Status of crmd@node1: S_IDLE (ok)"))
	assert.True(t, IsDC("Status of crmd@node1: S_TRANSITION_ENGINE (ok)"))
	assert.False(t, IsDC("Status of crmd@node1: S_NOT_DC (ok)"))
	assert.False(t, IsDC(""))
}

func TestResourceLocation(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "active rsc1", 0)
	runner.on("node2", "active rsc1", 7)
	runner.fail("node3", "active rsc1")

	m := NewManager(runner, testConfig("node1", "node2", "node3"))

	assert.Equal(t, []string{"node1"}, m.ResourceLocation(context.Background(), "rsc1"))
}

func TestResourceLocationSkipsDownNodes(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "active rsc1", 0)
	runner.on("node2", "active rsc1", 0)

	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node2": "down"}
	m := NewManager(runner, cfg)

	assert.Equal(t, []string{"node1"}, m.ResourceLocation(context.Background(), "rsc1"))

	for _, call := range runner.calls {
		assert.NotContains(t, call, "node2|", "down node should not be probed")
	}
}

func TestHasQuorum(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "quorum", 0, "1")

	m := NewManager(runner, testConfig("node1", "node2"))
	assert.True(t, m.HasQuorum(context.Background(), nil))

	runner.on("node1", "quorum", 0, "0")
	assert.False(t, m.HasQuorum(context.Background(), nil))
}

func TestHasQuorumPartitionRestricted(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "quorum", 0, "0")
	runner.on("node2", "quorum", 0, "1")

	m := NewManager(runner, testConfig("node1", "node2"))

	// Only node2 is in the partition we are asking about
	assert.True(t, m.HasQuorum(context.Background(), types.Partition{"node2"}))
	assert.False(t, m.HasQuorum(context.Background(), types.Partition{"node1"}))
}

func TestFindPartitionsSingle(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "partition", 0, "node2 node1")
	runner.on("node2", "partition", 0, "node1 node2")

	m := NewManager(runner, testConfig("node1", "node2"))

	partitions := m.FindPartitions(context.Background())
	assert.Len(t, partitions, 1)
	assert.Equal(t, "node1 node2", partitions[0].Key(), "membership should be sorted and deduplicated")
}

func TestFindPartitionsSplit(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "partition", 0, "node1")
	runner.on("node2", "partition", 0, "node2 node3")
	runner.on("node3", "partition", 0, "node3 node2")

	m := NewManager(runner, testConfig("node1", "node2", "node3"))

	partitions := m.FindPartitions(context.Background())
	assert.Len(t, partitions, 2)
}

func TestFindPartitionsIgnoresBadDetails(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "partition", 0, "x")
	runner.on("node2", "partition", 0, "")

	m := NewManager(runner, testConfig("node1", "node2"))
	assert.Empty(t, m.FindPartitions(context.Background()))
}

func TestFindPartitionsSkipsDownNodes(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "partition", 0, "node1")
	runner.on("node2", "partition", 0, "node2")

	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node2": "down"}
	m := NewManager(runner, cfg)

	partitions := m.FindPartitions(context.Background())
	assert.Len(t, partitions, 1)
	assert.Equal(t, "node1", partitions[0].Key())
}

func TestStable(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "status node1", 0, "S_IDLE (ok)")
	runner.on("node2", "status node2", 0, "S_IDLE (ok)")

	m := NewManager(runner, testConfig("node1", "node2"))
	assert.True(t, m.Stable(context.Background(), true))

	runner.on("node2", "status node2", 0, "S_POLICY_ENGINE (ok)")
	assert.False(t, m.Stable(context.Background(), false))
}

func TestWaitReachable(t *testing.T) {
	runner := newFakeRunner()
	runner.on("node1", "ping", 0)

	m := NewManager(runner, testConfig("node1", "node2"))

	assert.True(t, m.WaitReachable(context.Background(), "node1"))
	assert.False(t, m.WaitReachable(context.Background(), "node2"), "unscripted node never answers")
}
