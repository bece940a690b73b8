package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cibRunner() *fakeRunner {
	runner := newFakeRunner()
	runner.on("node1", "partition", 0, "node1 node2")
	runner.on("node1", "cib", 0, `<cib epoch="42" num_updates="7">`, "</cib>")
	runner.on("node2", "cib", 0, `<cib epoch="42" num_updates="7">`, "</cib>")
	return runner
}

func TestCIBAuditReplicaComparison(t *testing.T) {
	diffCommand := fmt.Sprintf("crm_diff -VV -cf --new %s --original %s",
		"/tmp/proctor.cib.node2.xml", "/tmp/proctor.cib.node1.xml")

	tests := []struct {
		name string
		rc   int
		out  []string
		want bool
	}{
		{"replicas identical", 0, []string{"<diff/>"}, true},
		{"nothing reported", 0, nil, true},
		{"replicas diverged", 0, []string{`-  <nvpair id="opt-stonith" value="true"/>`}, false},
		{"diff tool failed", 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := cibRunner()
			runner.on("node1", diffCommand, tt.rc, tt.out...)

			passed, err := NewCIBAudit(testDeps(runner, testConfig("node1", "node2"))).
				Run(context.Background())

			assert.NoError(t, err)
			assert.Equal(t, tt.want, passed)
		})
	}
}

func TestCIBAuditMissingReplica(t *testing.T) {
	runner := cibRunner()
	runner.on("node2", "cib", 1)

	passed, err := NewCIBAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
	assert.False(t, runner.called("crm_diff"), "nothing to diff without the replica")
}

func TestCIBAuditStagingFailure(t *testing.T) {
	runner := cibRunner()
	runner.copyErr = errors.New("scp: connection reset")

	passed, err := NewCIBAudit(testDeps(runner, testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, passed)
	assert.False(t, runner.called("crm_diff"))
}

func TestCIBAuditWithoutPartitions(t *testing.T) {
	passed, err := NewCIBAudit(testDeps(newFakeRunner(), testConfig("node1", "node2"))).
		Run(context.Background())

	assert.NoError(t, err)
	assert.True(t, passed)
}
