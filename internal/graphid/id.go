// Package graphid defines the dense, recyclable integer identities used
// throughout Graphia for nodes, edges, and components (spec §3,
// "ElementId"), plus the element-indexed array container that
// auto-resizes as the owning graph grows (spec §3, "Graph containers").
package graphid

import "fmt"

// nullID is the sentinel value shared by every ID kind. IDs are otherwise
// dense non-negative integers within [0, nextID) of their kind.
const nullID int32 = -1

// NodeID identifies a node. The zero value NodeID{} is node 0, a valid id
// and not null; use NullNodeID to represent "no node".
type NodeID struct{ v int32 }

// EdgeID identifies an edge.
type EdgeID struct{ v int32 }

// ComponentID identifies a connected component of the derived graph.
type ComponentID struct{ v int32 }

// NullNodeID, NullEdgeID, and NullComponentID are the sentinel ids of each
// kind, representing the absence of an element.
var (
	NullNodeID      = NodeID{nullID}
	NullEdgeID      = EdgeID{nullID}
	NullComponentID = ComponentID{nullID}
)

func NewNodeID(v int) NodeID           { return NodeID{int32(v)} }
func NewEdgeID(v int) EdgeID           { return EdgeID{int32(v)} }
func NewComponentID(v int) ComponentID { return ComponentID{int32(v)} }

func (id NodeID) Int() int32   { return id.v }
func (id NodeID) IsNull() bool { return id.v < 0 }
func (id NodeID) String() string {
	if id.IsNull() {
		return "NullNodeId"
	}
	return fmt.Sprintf("%d", id.v)
}

func (id EdgeID) Int() int32   { return id.v }
func (id EdgeID) IsNull() bool { return id.v < 0 }
func (id EdgeID) String() string {
	if id.IsNull() {
		return "NullEdgeId"
	}
	return fmt.Sprintf("%d", id.v)
}

func (id ComponentID) Int() int32   { return id.v }
func (id ComponentID) IsNull() bool { return id.v < 0 }
func (id ComponentID) String() string {
	if id.IsNull() {
		return "NullComponentId"
	}
	return fmt.Sprintf("%d", id.v)
}

// ElementKind names which of the three id spaces an attribute, condition,
// or visualisation applies to (spec §3, "Node|Edge|Component").
type ElementKind int

const (
	NodeKind ElementKind = iota
	EdgeKind
	ComponentKind
)

func (k ElementKind) String() string {
	switch k {
	case NodeKind:
		return "Node"
	case EdgeKind:
		return "Edge"
	case ComponentKind:
		return "Component"
	default:
		return "Unknown"
	}
}

// MultiElementType classifies whether an id is a singleton, the
// representative of a merged set produced by edge contraction, or a
// non-representative member of a merged set (spec §3).
type MultiElementType int

const (
	Not MultiElementType = iota
	Head
	Tail
)

func (t MultiElementType) String() string {
	switch t {
	case Head:
		return "Head"
	case Tail:
		return "Tail"
	default:
		return "Not"
	}
}
