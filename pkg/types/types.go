package types

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeStatus represents the expected or observed cluster membership of a node
type NodeStatus string

const (
	NodeUp   NodeStatus = "up"
	NodeDown NodeStatus = "down"
)

// ControllerState is the three-valued result of probing a node's controller
type ControllerState int

const (
	ControllerDown ControllerState = iota
	ControllerUpUnstable
	ControllerUpStable
)

// String returns a human-readable name for the controller state
func (s ControllerState) String() string {
	switch s {
	case ControllerDown:
		return "down"
	case ControllerUpUnstable:
		return "up (unstable)"
	case ControllerUpStable:
		return "up (stable)"
	default:
		return "unknown"
	}
}

// Up reports whether the controller answered at all
func (s ControllerState) Up() bool {
	return s > ControllerDown
}

// Partition is the membership view reported by one or more nodes,
// sorted and deduplicated
type Partition []string

// Key returns a canonical string form used to compare partitions
func (p Partition) Key() string {
	return strings.Join(p, " ")
}

// Contains reports whether the partition includes the given node
func (p Partition) Contains(node string) bool {
	for _, n := range p {
		if n == node {
			return true
		}
	}
	return false
}

// Resource record flag bits as emitted by the resource listing command
const (
	flagOrphan  = 0x01
	flagManaged = 0x02
	flagUnique  = 0x20
)

// naSentinel marks an absent value in agent records
const naSentinel = "NA"

// Resource describes one cluster resource as reported by the resource
// listing command. Flag bits are decoded once at parse time.
type Resource struct {
	Type        string // primitive, group, clone
	ID          string
	CloneID     string
	Parent      string // empty when the resource has no parent
	Provider    string
	Class       string
	RType       string
	Host        string
	NeedsQuorum bool
	Managed     bool
	Unique      bool
	Orphan      bool
}

// Constraint describes one placement constraint as reported by the
// resource listing command
type Constraint struct {
	Type       string // rsc_colocation, rsc_order, rsc_location
	ID         string
	Resource   string
	Target     string
	Score      string
	RscRole    string // empty when the record carries no role
	TargetRole string
}

// ParseResource parses one "Resource:" line of resource listing output.
// The record carries twelve whitespace-separated fields: the discriminator,
// type, id, clone id, parent, provider, class, agent type, host, a quorum
// flag, and the resource flags in decimal and hex.
func ParseResource(line string) (Resource, error) {
	fields := strings.Fields(line)
	if len(fields) != 12 {
		return Resource{}, fmt.Errorf("resource record: want 12 fields, have %d", len(fields))
	}

	flags, err := strconv.ParseUint(fields[10], 10, 64)
	if err != nil {
		return Resource{}, fmt.Errorf("resource record %s: bad flags %q: %w", fields[2], fields[10], err)
	}

	r := Resource{
		Type:        fields[1],
		ID:          fields[2],
		CloneID:     fields[3],
		Parent:      fields[4],
		Provider:    fields[5],
		Class:       fields[6],
		RType:       fields[7],
		Host:        fields[8],
		NeedsQuorum: fields[9] == "1",
		Managed:     flags&flagManaged != 0,
		Unique:      flags&flagUnique != 0,
		Orphan:      flags&flagOrphan != 0,
	}

	if r.Parent == naSentinel {
		r.Parent = ""
	}

	return r, nil
}

// ParseConstraint parses one "Constraint:" line of resource listing output.
// The record carries eight whitespace-separated fields: the discriminator,
// type, id, resource, target, score, and the two roles.
func ParseConstraint(line string) (Constraint, error) {
	fields := strings.Fields(line)
	if len(fields) != 8 {
		return Constraint{}, fmt.Errorf("constraint record: want 8 fields, have %d", len(fields))
	}

	c := Constraint{
		Type:       fields[1],
		ID:         fields[2],
		Resource:   fields[3],
		Target:     fields[4],
		Score:      fields[5],
		RscRole:    fields[6],
		TargetRole: fields[7],
	}

	if c.RscRole == naSentinel {
		c.RscRole = ""
	}
	if c.TargetRole == naSentinel {
		c.TargetRole = ""
	}

	return c, nil
}
