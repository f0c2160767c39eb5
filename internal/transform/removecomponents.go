package transform

import (
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// removeComponentsTransform removes every connected component whose node
// count satisfies the configured size condition, generalising the
// original's deletenodescommand-driven component removal into a transform
// so it participates in the transform list and its caching (spec §10:
// "RemoveComponents ... generalised here to a transform").
type removeComponentsTransform struct {
	Cancellable
	cond condition.Node
}

// Apply counts each component's nodes from the current ComponentOf
// assignment into a local size map, keyed by component id, which
// compileComponentSizeCondition reads directly; nothing is registered in
// the attribute table. With no ComponentOf assignment it does nothing.
func (t *removeComponentsTransform) Apply(target *Target) diag.Diagnostics {
	if target.ComponentOf == nil {
		return nil
	}
	nodeIDs := target.Graph.NodeIDs()
	size := map[int32]int{}
	for _, id := range nodeIDs {
		size[target.ComponentOf(id.Int())]++
	}

	matches, ok := compileComponentSizeCondition(t.cond, size)
	if !ok {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
			"Remove Components: condition failed to compile", ""))
	}

	var remove []graphid.NodeID
	for _, id := range nodeIDs {
		c := target.ComponentOf(id.Int())
		if matches(c) {
			remove = append(remove, id)
		}
	}
	target.Graph.RemoveNodes(remove)
	return nil
}

// compileComponentSizeCondition interprets the condition's sole
// recognised operand form, $"Component Size" <op> N, directly against the
// component-size map, since component size isn't a per-element attribute
// the generic condition compiler resolves through attribute.Table.
func compileComponentSizeCondition(n condition.Node, size map[int32]int) (func(component int32) bool, bool) {
	term, ok := n.(condition.Terminal)
	if !ok {
		return nil, false
	}
	var lit condition.Value
	if term.LHS.IsAttributeRef() {
		lit = term.RHS
	} else {
		lit = term.LHS
	}
	threshold := literalAsFloat(lit)
	op := term.Op
	return func(component int32) bool {
		v := float64(size[component])
		switch op {
		case condition.OpLT:
			return v < threshold
		case condition.OpLE:
			return v <= threshold
		case condition.OpGT:
			return v > threshold
		case condition.OpGE:
			return v >= threshold
		case condition.OpEQ:
			return v == threshold
		case condition.OpNE:
			return v != threshold
		default:
			return false
		}
	}, true
}

func registerRemoveComponents(r *Registry) {
	r.Register(&Factory{
		Name:              "Remove Components",
		RequiresCondition: true,
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &removeComponentsTransform{cond: cfg.Condition}, nil
		},
	})
}
