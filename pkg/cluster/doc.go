/*
Package cluster maintains Proctor's view of the cluster under audit.

The Manager pairs the configured node list with an expected-status map: what
the harness believes each node's cluster membership should be right now.
Audits compare this expectation against what the cluster actually reports.
The expected map is mutable because some observations legitimately update it
(a node that reappears in a partition view, a node whose epoch can no longer
be determined).

All interrogation happens through configurable command templates run over
the remote command channel:

  - status: controller state of one node (stable, unstable, down)
  - epoch: how long a node has been a member, lower is older
  - quorum: whether the node's partition has quorum
  - partition: the node's membership view
  - resource activity: whether one resource is active on one node

The Manager derives the higher-level questions audits ask: where a resource
runs, which distinct partitions exist, whether the cluster is stable, and
whether quorum is held. Partition membership lists are sorted before
comparison so that equal views collapse regardless of reporting order.

Nothing in this package decides pass or fail; it only observes. Verdicts
belong to the audit package.
*/
package cluster
