package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Exact probe commands the file audit issues
const (
	pacemakerCores = "ls -al /var/lib/pacemaker/cores/* | grep core.[0-9]"
	corosyncCores  = "ls -al /var/lib/corosync | grep core.[0-9]"
	ipcListing     = "ls -al /dev/shm | grep qb-"
	ipcCleanup     = "rm -rf /dev/shm/qb-*"
)

func TestFileAuditCleanNodes(t *testing.T) {
	runner := newFakeRunner()
	reachable(runner, "node1", "node2")

	passed, err := NewFileAudit(testDeps(runner, testConfig("node1", "node2"))).Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestFileAuditNewCoreFailsThenStaysKnown(t *testing.T) {
	runner := newFakeRunner()
	reachable(runner, "node1", "node2")
	runner.on("node1", pacemakerCores, 0,
		"-rw------- 1 hacluster haclient 48361472 Aug 12 03:22 core.4021")
	runner.on("node2", corosyncCores, 0,
		"-rw------- 1 root root 9850880 Aug 12 03:25 core.811")

	audit := NewFileAudit(testDeps(runner, testConfig("node1", "node2")))

	passed, err := audit.Run(context.Background())
	assert.NoError(t, err)
	assert.False(t, passed, "freshly dumped cores fail the audit")

	// The same listing on a later run is old news
	passed, err = audit.Run(context.Background())
	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestFileAuditStaleIPCOnDownNode(t *testing.T) {
	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node2": "down"}

	runner := newFakeRunner()
	reachable(runner, "node1", "node2")
	runner.on("node2", ipcListing, 0,
		"-rw-rw---- 1 root root 8252 Aug 12 03:20 qb-cfg-event-2035-2247-31-data",
		"-rw-rw---- 1 root root 8252 Aug 12 03:20 qb-cfg-request-2035-2247-31-header")

	passed, err := NewFileAudit(testDeps(runner, cfg)).Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
	assert.True(t, runner.called("node2|"+ipcCleanup), "stale IPC files are removed")
	assert.False(t, runner.called("node1|"+ipcListing), "expected-up nodes keep their IPC state")
}

func TestFileAuditUnanswerableListings(t *testing.T) {
	cfg := testConfig("node1", "node2")
	cfg.InitialStatus = map[string]string{"node2": "down"}

	runner := newFakeRunner()
	reachable(runner, "node1", "node2")
	runner.fail("node1", pacemakerCores)
	runner.fail("node2", ipcListing)

	passed, err := NewFileAudit(testDeps(runner, cfg)).Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed, "unanswerable listings must not fail the audit")
}
