/*
Package types defines the core data structures used throughout Proctor.

This package contains the fundamental types that represent Proctor's view of
the cluster under audit: node status, controller state, partition membership,
and the resource and constraint records reported by the cluster's resource
listing command. These types are used by the cluster manager view, the audit
engine, and the CLI.

# Architecture

The types package is the foundation of Proctor's data model. It defines:

  - Node membership (expected up/down status)
  - Controller probe results (down, up but unstable, up and stable)
  - Partition membership views
  - Resource records (placement, management flags, quorum requirements)
  - Constraint records (colocation, ordering, location)

All types are designed to be:
  - Decoded once (flag bits and sentinels resolved at parse time)
  - Serializable (plain fields, JSON-friendly)
  - Comparable (canonical partition keys, value semantics)

# Wire Records

Resource and constraint records arrive as single whitespace-separated lines
from the resource listing command. A resource line carries twelve fields:

	Resource: <type> <id> <clone-id> <parent> <provider> <class> <agent>
	          <host> <needs-quorum> <flags-dec> <flags-hex>

The decimal flags field encodes orphan (0x01), managed (0x02) and unique
(0x20) bits; ParseResource decodes them into booleans so that audit logic
never touches raw bits. The literal "NA" marks an absent parent.

A constraint line carries eight fields:

	Constraint: <type> <id> <resource> <target> <score> <rsc-role>
	            <target-role>

with "NA" marking absent roles.

# Usage Example

	r, err := types.ParseResource(line)
	if err != nil {
		// malformed record, log and skip
	}
	if r.Type == "primitive" && r.Managed {
		// audit placement
	}
*/
package types
