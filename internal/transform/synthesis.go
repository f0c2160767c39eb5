package transform

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// typeIdentity tracks the monotonic type promotion used to pick a
// synthesised attribute's storage type from its observed values: Int is
// demoted to Float the moment a non-integral value is seen, and to String
// the moment a non-numeric value is seen (spec §4.5,
// "TypeIdentity::updateType (monotonic promotion string -> float -> int ->
// unknown)").
type typeIdentity int

const (
	typeUnknown typeIdentity = iota
	typeInt
	typeFloat
	typeString
)

// updateType parses raw the way cty.ParseNumberVal parses an HCL numeric
// literal: a go-cty Number is an arbitrary-precision big.Float, so an
// integral value (BigFloat().IsInt()) promotes to typeInt rather than
// typeFloat, matching the "int until a non-integral value is seen" half
// of the monotonic promotion rule; a parse failure promotes to typeString.
func updateType(current typeIdentity, raw string) typeIdentity {
	if current == typeString {
		return typeString
	}
	num, err := cty.ParseNumberVal(raw)
	if err != nil {
		return typeString
	}
	if num.AsBigFloat().IsInt() {
		if current == typeUnknown {
			return typeInt
		}
		return current
	}
	return typeFloat
}

// combineAttributesTransform concatenates the string rendering of two or
// more source attributes with a separator into a single synthesised
// attribute (spec §4.5, §10: combineattributestransform).
type combineAttributesTransform struct {
	Cancellable
	refs      []string
	separator string
	name      string
}

func (t *combineAttributesTransform) Apply(target *Target) diag.Diagnostics {
	attrs := make([]*attribute.Attribute, 0, len(t.refs))
	for _, ref := range t.refs {
		a, err := target.Attributes.Resolve(ref)
		if err != nil {
			return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Unknown attribute", err.Error()))
		}
		attrs = append(attrs, a)
	}
	kind := attrs[0].Kind
	sep := t.separator
	target.Attributes.Add(attribute.NewBuilder(t.name, kind, attribute.String).
		StringValueFn(func(id int32) string {
			parts := make([]string, len(attrs))
			for i, a := range attrs {
				parts[i] = a.StringValueOf(id)
			}
			return strings.Join(parts, sep)
		}).
		SetFlag(attribute.Dynamic | attribute.FindShared | attribute.Searchable).
		Build())
	return nil
}

func registerCombineAttributes(r *Registry) {
	r.Register(&Factory{
		Name: "Combine Attributes",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			if len(cfg.AttributeRefs) < 2 {
				return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
					"Combine Attributes requires at least two attributes", ""))
			}
			return nil
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			p := struct {
				Separator string `mapstructure:"Separator"`
				Name      string `mapstructure:"Name"`
			}{Separator: " ", Name: "Combined Attribute"}
			_ = decodeParams(cfg, &p)
			return &combineAttributesTransform{refs: cfg.AttributeRefs, separator: p.Separator, name: p.Name}, nil
		},
	})
}

// averageAttributeTransform publishes the arithmetic mean of two or more
// numeric source attributes as a new Float attribute (spec §4.5, §10:
// averageattributetransform).
type averageAttributeTransform struct {
	Cancellable
	refs []string
	name string
}

func (t *averageAttributeTransform) Apply(target *Target) diag.Diagnostics {
	attrs := make([]*attribute.Attribute, 0, len(t.refs))
	for _, ref := range t.refs {
		a, err := target.Attributes.Resolve(ref)
		if err != nil {
			return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Unknown attribute", err.Error()))
		}
		attrs = append(attrs, a)
	}
	kind := attrs[0].Kind
	n := float64(len(attrs))
	target.Attributes.Add(attribute.NewBuilder(t.name, kind, attribute.Float).
		FloatValueFn(func(id int32) float64 {
			sum := 0.0
			for _, a := range attrs {
				sum += a.FloatValueOf(id)
			}
			return sum / n
		}).
		SetFlag(attribute.Dynamic | attribute.AutoRange).
		Build())
	return nil
}

func registerAverageAttribute(r *Registry) {
	r.Register(&Factory{
		Name: "Average Attribute",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			if len(cfg.AttributeRefs) < 2 {
				return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
					"Average Attribute requires at least two attributes", ""))
			}
			return nil
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			p := struct {
				Name string `mapstructure:"Name"`
			}{Name: "Mean Attribute"}
			_ = decodeParams(cfg, &p)
			return &averageAttributeTransform{refs: cfg.AttributeRefs, name: p.Name}, nil
		},
	})
}

// attributeSynthesisTransform casts a single source attribute to an
// explicit storage type, or ("Auto") re-derives it via updateType over the
// attribute's own string rendering (spec §4.5: attributesynthesistransform,
// type-cast).
type attributeSynthesisTransform struct {
	Cancellable
	ref      string
	wantType attribute.ValueType
	auto     bool
	name     string
}

func (t *attributeSynthesisTransform) Apply(target *Target) diag.Diagnostics {
	src, err := target.Attributes.Resolve(t.ref)
	if err != nil {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Unknown attribute", err.Error()))
	}

	valueType := t.wantType
	if t.auto {
		ti := typeUnknown
		for _, id := range elementIDs(target, src.Kind) {
			if src.ValueMissingOf(id) {
				continue
			}
			ti = updateType(ti, src.StringValueOf(id))
		}
		switch ti {
		case typeInt:
			valueType = attribute.Int
		case typeFloat:
			valueType = attribute.Float
		default:
			valueType = attribute.String
		}
	}

	b := attribute.NewBuilder(t.name, src.Kind, valueType).
		SetFlag(attribute.Dynamic)
	switch valueType {
	case attribute.Int:
		b.IntValueFn(src.IntValueOf).SetFlag(attribute.AutoRange)
	case attribute.Float:
		b.FloatValueFn(src.FloatValueOf).SetFlag(attribute.AutoRange)
	default:
		b.StringValueFn(src.StringValueOf).SetFlag(attribute.FindShared | attribute.Searchable)
	}
	target.Attributes.Add(b.Build())
	return nil
}

func elementIDs(target *Target, kind graphid.ElementKind) []int32 {
	if kind == graphid.NodeKind {
		ids := target.Graph.NodeIDs()
		out := make([]int32, len(ids))
		for i, id := range ids {
			out[i] = id.Int()
		}
		return out
	}
	ids := target.Graph.EdgeIDs()
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = id.Int()
	}
	return out
}

func registerAttributeSynthesis(r *Registry) {
	r.Register(&Factory{
		Name: "Type Cast Attribute",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			if len(cfg.AttributeRefs) != 1 {
				return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
					"Type Cast Attribute requires exactly one attribute", ""))
			}
			return nil
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			t := &attributeSynthesisTransform{ref: cfg.AttributeRefs[0], name: "Cast Attribute", auto: true}
			p := struct {
				Name string `mapstructure:"Name"`
				Type string `mapstructure:"Type"`
			}{Name: t.name}
			_ = decodeParams(cfg, &p)
			t.name = p.Name
			if p.Type != "" && p.Type != "Auto" {
				t.auto = false
				switch p.Type {
				case "Int":
					t.wantType = attribute.Int
				case "Float":
					t.wantType = attribute.Float
				default:
					t.wantType = attribute.String
				}
			}
			return t, nil
		},
	})
	registerCombineAttributes(r)
	registerAverageAttribute(r)
}
