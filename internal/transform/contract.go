package transform

import (
	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// contractEdgesTransform contracts every edge matched by the condition
// (spec §4.5, "Contract edges").
type contractEdgesTransform struct {
	Cancellable
	cond condition.Node
}

func (c *contractEdgesTransform) Apply(target *Target) diag.Diagnostics {
	pred, ok := condition.Compile(c.cond, target.Attributes, graphid.EdgeKind)
	if !ok {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Invalid condition",
			"the where clause does not compile against edges"))
	}
	var ids []graphid.EdgeID
	for _, id := range target.Graph.EdgeIDs() {
		if pred(int32(id.Int())) {
			ids = append(ids, id)
		}
	}
	target.Graph.ContractEdges(ids)
	return nil
}

// contractByAttributeTransform contracts every edge whose endpoints share
// the same value of a node attribute (spec §8, scenario 2: "Contract by
// attribute").
type contractByAttributeTransform struct {
	Cancellable
	attributeName string
}

func (c *contractByAttributeTransform) Apply(target *Target) diag.Diagnostics {
	attr, err := target.Attributes.Resolve(c.attributeName)
	if err != nil {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Unknown attribute", err.Error()))
	}
	if attr.Kind != graphid.NodeKind {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Invalid attribute",
			"Contract By Attribute requires a node attribute"))
	}
	var ids []graphid.EdgeID
	for _, id := range target.Graph.EdgeIDs() {
		e := target.Graph.EdgeByID(id)
		if e == nil {
			continue
		}
		if sameValue(attr, int32(e.SourceID.Int()), int32(e.TargetID.Int())) {
			ids = append(ids, id)
		}
	}
	target.Graph.ContractEdges(ids)
	return nil
}

func sameValue(attr *attribute.Attribute, a, b int32) bool {
	switch attr.ValueType {
	case attribute.Int:
		return attr.IntValueOf(a) == attr.IntValueOf(b)
	case attribute.Float:
		return attr.FloatValueOf(a) == attr.FloatValueOf(b)
	default:
		return attr.StringValueOf(a) == attr.StringValueOf(b)
	}
}

func registerContractFamily(r *Registry) {
	r.Register(&Factory{
		Name:              "Contract Edges",
		RequiresCondition: true,
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			if cfg.Condition == nil {
				return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Contract Edges requires a where clause", ""))
			}
			return nil
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &contractEdgesTransform{cond: cfg.Condition}, nil
		},
	})
	r.Register(&Factory{
		Name: "Contract By Attribute",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			if len(cfg.AttributeRefs) != 1 {
				return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
					"Contract By Attribute requires exactly one attribute", ""))
			}
			return nil
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &contractByAttributeTransform{attributeName: cfg.AttributeRefs[0]}, nil
		},
	})
}
