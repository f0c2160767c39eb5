package graph

import "github.com/graphia/graphia/internal/graphid"

// Node is a vertex of the mutable graph: an id plus the ids of edges that
// terminate at it, split by direction (spec §3).
type Node struct {
	ID         graphid.NodeID
	InEdgeIDs  []graphid.EdgeID
	OutEdgeIDs []graphid.EdgeID
}

// EdgeIDs returns every edge incident to the node, in+out combined, in the
// order they were recorded (insertion order of survivors, per spec §5).
func (n *Node) EdgeIDs() []graphid.EdgeID {
	ids := make([]graphid.EdgeID, 0, len(n.InEdgeIDs)+len(n.OutEdgeIDs))
	ids = append(ids, n.InEdgeIDs...)
	ids = append(ids, n.OutEdgeIDs...)
	return ids
}

func (n *Node) Degree() int { return len(n.InEdgeIDs) + len(n.OutEdgeIDs) }

func (n *Node) clone() *Node {
	c := &Node{ID: n.ID}
	c.InEdgeIDs = append([]graphid.EdgeID(nil), n.InEdgeIDs...)
	c.OutEdgeIDs = append([]graphid.EdgeID(nil), n.OutEdgeIDs...)
	return c
}

func removeEdgeIDFrom(ids []graphid.EdgeID, target graphid.EdgeID) []graphid.EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Edge is an arc of the mutable graph, directed from Source to Target
// (spec §3). Edge.IsLoop <=> SourceID == TargetID.
type Edge struct {
	ID       graphid.EdgeID
	SourceID graphid.NodeID
	TargetID graphid.NodeID
}

func (e *Edge) IsLoop() bool { return e.SourceID == e.TargetID }
