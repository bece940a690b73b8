/*
Package audit implements Proctor's cluster consistency audits.

An audit checks one invariant of a running cluster: log channels work, disks
have room, resources run where they should, partitions elect the right
leader, configuration replicas match. Audits observe and report; they never
repair the cluster (the file audit's removal of stale IPC files on nodes
already expected down is the single, deliberate exception).

# Architecture

	┌───────────────────── AUDIT ENGINE ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐         │
	│  │                 Session                     │         │
	│  │  - runs the catalog in order                │         │
	│  │  - span + timer per audit                   │         │
	│  │  - publishes lifecycle events               │         │
	│  │  - stops at the first unrecoverable error   │         │
	│  └──────┬─────────────────────────────────────┘         │
	│         │                                                │
	│  ┌──────▼─────────────────────────────────────┐         │
	│  │                 Catalog                     │         │
	│  │                                             │         │
	│  │  disk        space on the log filesystem    │         │
	│  │  file        core dumps, stale IPC          │         │
	│  │  log         prove a usable log channel     │         │
	│  │  controller-state  node state vs expected   │         │
	│  │  partition   membership, epochs, one DC     │         │
	│  │  primitive   resource placement rules       │         │
	│  │  group       children colocated, in order   │         │
	│  │  clone       clone children enumerate       │         │
	│  │  colocation  constraint targets hold        │         │
	│  │  cib         replicas identical per         │         │
	│  │              partition                      │         │
	│  └──────┬─────────────────────────────────────┘         │
	│         │                                                │
	│  ┌──────▼─────────────────────────────────────┐         │
	│  │              Collaborators                  │         │
	│  │  cluster.Manager   probes and topology      │         │
	│  │  remote.Runner     command channel          │         │
	│  │  logwatch.Watch    pattern watching         │         │
	│  │  session.Store     sticky state             │         │
	│  └────────────────────────────────────────────┘         │
	└──────────────────────────────────────────────────────────┘

# Verdicts and errors

Run returns (ok, err). The three failure classes are kept strictly apart:

  - A transport or parse problem is logged and degrades the audit; it never
    flips the verdict on its own.
  - A violated invariant returns ok == false.
  - A condition that invalidates the whole session (unusable logging,
    optionally a full log disk) returns an error wrapping ErrUnrecoverable.

# Applicability

An audit is skipped when named in the config disabled list. Audits that
only make sense on a particular cluster flavor declare it; the configured
flavor is matched against that set. Both gates live in configuration, so a
skipped audit is always visible policy, never baked in.

# Usage

	deps := audit.Deps{Config: cfg, Runner: runner, Cluster: mgr, Store: store}

	session := audit.NewSession(audit.Catalog(deps), broker)
	failed, err := session.Run(ctx)
	if err != nil {
		// unrecoverable, the cluster cannot be audited further
	}
*/
package audit
