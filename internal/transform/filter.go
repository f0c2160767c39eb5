package transform

import (
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// filterTransform implements the Filter/Remove/Keep family (spec §4.5):
// compile the condition, partition the relevant element ids by whether
// they match, and remove one side in a single transaction. Node removal
// cascades to incident edges automatically via MutableGraph.
type filterTransform struct {
	Cancellable
	kind         graphid.ElementKind
	keepMatching bool
	cond         condition.Node
}

func (f *filterTransform) Apply(target *Target) diag.Diagnostics {
	var diags diag.Diagnostics
	pred, ok := condition.Compile(f.cond, target.Attributes, f.kind)
	if !ok {
		diags = diags.Append(diag.Sourceless(diag.Error, "Invalid condition",
			"the where clause does not compile against this transform's element kind"))
		return diags
	}

	switch f.kind {
	case graphid.NodeKind:
		var remove []graphid.NodeID
		for _, id := range target.Graph.NodeIDs() {
			matches := pred(id.Int())
			if matches != f.keepMatching {
				remove = append(remove, id)
			}
		}
		target.Graph.PerformTransaction(func(g *graph.MutableGraph) {
			g.RemoveNodes(remove)
		})
	case graphid.EdgeKind:
		var remove []graphid.EdgeID
		for _, id := range target.Graph.EdgeIDs() {
			matches := pred(id.Int())
			if matches != f.keepMatching {
				remove = append(remove, id)
			}
		}
		target.Graph.PerformTransaction(func(g *graph.MutableGraph) {
			g.RemoveEdges(remove)
		})
	}
	return diags
}

func registerFilterFamily(r *Registry) {
	r.Register(makeFilterFactory("Remove Nodes", graphid.NodeKind, false))
	r.Register(makeFilterFactory("Keep Nodes", graphid.NodeKind, true))
	r.Register(makeFilterFactory("Remove Edges", graphid.EdgeKind, false))
	r.Register(makeFilterFactory("Keep Edges", graphid.EdgeKind, true))
}

func makeFilterFactory(name string, kind graphid.ElementKind, keepMatching bool) *Factory {
	return &Factory{
		Name:              name,
		RequiresCondition: true,
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			var diags diag.Diagnostics
			if cfg.Condition == nil {
				diags = diags.Append(diag.Sourceless(diag.Error, name+" requires a where clause", ""))
			}
			return diags
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &filterTransform{kind: kind, keepMatching: keepMatching, cond: cfg.Condition}, nil
		},
	}
}
