package visual

import (
	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
)

// TextVisual is one label produced by a shared-text channel: the text to
// show, and the original node ids whose contraction produced it (spec
// §4.7, "shared-text ... one label per resulting merged node group").
// Position is left to the caller (layout/rendering are Non-goals of this
// module); a host assembles it from whatever position store it owns.
type TextVisual struct {
	Text          string
	MemberNodeIDs []graphid.NodeID
}

// evaluateSharedText builds one TextVisual per group of nodes that share
// attr's string value and are connected by an edge between two such nodes,
// by contracting a **clone** of the live graph (never the graph itself,
// per spec §4.7 and the Memory note in spec §5: "closures capture arrays
// by clone") on every edge whose endpoints agree on the value.
func evaluateSharedText(g *graph.MutableGraph, attr *attribute.Attribute) []TextVisual {
	clone := g.Clone()

	var toContract []graphid.EdgeID
	for _, eid := range clone.EdgeIDs() {
		e := clone.EdgeByID(eid)
		if e == nil || e.IsLoop() {
			continue
		}
		if attr.ValueMissingOf(e.SourceID.Int()) || attr.ValueMissingOf(e.TargetID.Int()) {
			continue
		}
		if attr.StringValueOf(e.SourceID.Int()) == attr.StringValueOf(e.TargetID.Int()) {
			toContract = append(toContract, eid)
		}
	}
	clone.ContractEdges(toContract)

	var out []TextVisual
	seen := map[graphid.NodeID]bool{}
	for _, id := range clone.NodeIDs() {
		if seen[id] {
			continue
		}
		seen[id] = true
		if attr.ValueMissingOf(id.Int()) {
			continue
		}
		members := clone.MergedNodeIDsForNodeID(id)
		out = append(out, TextVisual{
			Text:          attr.StringValueOf(id.Int()),
			MemberNodeIDs: members,
		})
	}
	return out
}
