/*
Package remote provides the command channel to cluster nodes.

Audits interrogate the cluster exclusively through the Runner interface:
Exec runs a shell command on a node and returns its exit code and stdout
lines, and Copy moves files between local and remote endpoints. The audit
engine never opens any other connection to the nodes.

SSHRunner is the production implementation. It shells out to ssh and scp in
batch mode, so key management stays with the operator's ssh configuration.
Commands addressed to the local host bypass ssh and run directly. All
executions honor the caller's context; cancellation kills the child process.

Transport errors (err != nil) mean the command could never run, for example
an unreachable node or a missing binary. A nonzero remote exit code is an
ordinary result and is interpreted by each audit.

Tests substitute a scripted Runner; nothing in this package is required for
audit logic.
*/
package remote
