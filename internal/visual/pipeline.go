package visual

import (
	"sort"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// Source is everything one Evaluate call needs from the rest of the
// document: the live attribute table, the id sets to iterate, the
// component-of resolver for `component`-flagged visualisations, and the
// graph itself (needed only by the shared-text channel's contraction).
type Source struct {
	Attributes  *attribute.Table
	NodeIDs     []graphid.NodeID
	EdgeIDs     []graphid.EdgeID
	ComponentOf func(int32) int32
	Graph       *graph.MutableGraph
}

// Result is one visualisation line's outcome: the diagnostics it produced
// (missing attribute/channel, edge-text-disabled, override alerts) and the
// set of element ids it touched on its channel.
type Result struct {
	Index       int
	Config      *transformconfig.VisualisationConfig
	Diagnostics diag.Diagnostics
	Touched     map[int32]bool
}

// Pipeline evaluates an ordered visualisation list against a Source,
// producing per-element visuals plus shared-text labels (spec §4.7).
type Pipeline struct {
	channels         map[Kind]*Channel
	edgeTextDisabled bool
}

// NewPipeline constructs a Pipeline with the standard channel set.
// edgeTextDisabled mirrors the host's edge-text rendering preference (spec
// §4.7, "Edge-text visualisation warning").
func NewPipeline(edgeTextDisabled bool) *Pipeline {
	return &Pipeline{channels: StandardChannels(), edgeTextDisabled: edgeTextDisabled}
}

// Output is everything Evaluate produces: per-visualisation results (for
// alerts), the per-element visuals accumulated across all visualisations,
// and any shared-text labels.
type Output struct {
	Results     []*Result
	NodeVisuals map[graphid.NodeID]*ElementVisual
	EdgeVisuals map[graphid.EdgeID]*ElementVisual
	TextVisuals []TextVisual
}

// Evaluate runs every visualisation config in order against src (spec
// §4.7). Visualisations are applied in list order, so a later
// visualisation's field writes naturally take precedence over an
// earlier one's on the same element/channel — which is also exactly what
// "overridden" means, detected here only for the purpose of attaching an
// alert, not to change which value wins.
func (p *Pipeline) Evaluate(configs []*transformconfig.VisualisationConfig, src *Source) *Output {
	out := &Output{
		NodeVisuals: make(map[graphid.NodeID]*ElementVisual),
		EdgeVisuals: make(map[graphid.EdgeID]*ElementVisual),
	}
	results := make([]*Result, len(configs))

	for i, cfg := range configs {
		r := &Result{Index: i, Config: cfg, Touched: map[int32]bool{}}
		results[i] = r

		if cfg.HasFlag(transformconfig.VisFlagDisabled) {
			continue
		}

		attr, ok := src.Attributes.Get(cfg.AttributeName)
		if !ok {
			r.Diagnostics = r.Diagnostics.Append(diag.Sourceless(diag.Error,
				"Unknown attribute", "no attribute named "+cfg.AttributeName+" is registered"))
			continue
		}
		channel, ok := p.channels[Kind(cfg.Channel)]
		if !ok && Kind(cfg.Channel) == SharedTextChannel {
			channel, ok = &Channel{Kind: SharedTextChannel, elementKinds: []graphid.ElementKind{graphid.NodeKind}, isText: true}, true
		}
		if !ok {
			r.Diagnostics = r.Diagnostics.Append(diag.Sourceless(diag.Error,
				"Unknown channel", "no visualisation channel named "+cfg.Channel))
			continue
		}
		if !channel.AppliesTo(attr.Kind) {
			r.Diagnostics = r.Diagnostics.Append(diag.Sourceless(diag.Error,
				"Channel does not apply", cfg.Channel+" cannot be bound to this attribute's element kind"))
			continue
		}

		if channel.IsText() && p.edgeTextDisabled && attr.Kind == graphid.EdgeKind {
			r.Diagnostics = r.Diagnostics.Append(diag.Sourceless(diag.Warning,
				"Edge Text Disabled", "edge-text rendering is disabled in preferences"))
		}

		if channel.Kind == SharedTextChannel {
			labels := evaluateSharedText(src.Graph, attr)
			out.TextVisuals = append(out.TextVisuals, labels...)
			for _, l := range labels {
				for _, id := range l.MemberNodeIDs {
					r.Touched[id.Int()] = true
				}
			}
			continue
		}

		params := parametersOf(cfg)
		componentScoped := cfg.HasFlag(transformconfig.VisFlagComponent)

		switch attr.Kind {
		case graphid.NodeKind:
			p.applyToElements(channel, attr, toInts(src.NodeIDs), componentScoped, src.ComponentOf, cfg, params, r,
				func(id int32, v *ElementVisual) { out.NodeVisuals[graphid.NewNodeID(int(id))] = v },
				func(id int32) *ElementVisual { return out.NodeVisuals[graphid.NewNodeID(int(id))] })
		case graphid.EdgeKind:
			p.applyToElements(channel, attr, toInts(src.EdgeIDs), componentScoped, src.ComponentOf, cfg, params, r,
				func(id int32, v *ElementVisual) { out.EdgeVisuals[graphid.NewEdgeID(int(id))] = v },
				func(id int32) *ElementVisual { return out.EdgeVisuals[graphid.NewEdgeID(int(id))] })
		}
	}

	p.detectOverrides(results)
	out.Results = results
	return out
}

func toInts[T interface{ Int() int32 }](ids []T) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = id.Int()
	}
	return out
}

func parametersOf(cfg *transformconfig.VisualisationConfig) map[string]float64 {
	raw := make(map[string]float64, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		switch p.Value.Kind {
		case condition.VFloat:
			raw[p.Name] = p.Value.FloatVal
		case condition.VInt:
			raw[p.Name] = float64(p.Value.IntVal)
		}
	}
	return raw
}

// applyToElements dispatches numeric vs categorical mapping by the
// attribute's canonical value type (spec §4.7: "Numeric values: ...
// Categorical values: ...").
func (p *Pipeline) applyToElements(
	channel *Channel,
	attr *attribute.Attribute,
	ids []int32,
	componentScoped bool,
	componentOf func(int32) int32,
	cfg *transformconfig.VisualisationConfig,
	rawParams map[string]float64,
	r *Result,
	set func(id int32, v *ElementVisual),
	get func(id int32) *ElementVisual,
) {
	params := newParameters(nil, rawParams)
	invert := cfg.HasFlag(transformconfig.VisFlagInvert)

	if attr.ValueType != attribute.String {
		for _, id := range ids {
			if attr.ValueMissingOf(id) {
				continue
			}
			v := attr.FloatValueOf(id)
			t := v
			if channel.RequiresRange() {
				rng, ok := attr.Range()
				if componentScoped && componentOf != nil {
					rng, ok = attr.RangeForComponent(componentOf(id))
				}
				if !ok {
					continue
				}
				t = normalise(v, rng.Min, rng.Max, invert)
				if channel.AllowsMapping() {
					t = applyMapping(mappingKindOf(cfg), t, params.Float("exponent", 1))
				}
			}
			visual := get(id)
			if visual == nil {
				visual = &ElementVisual{}
			}
			channel.applyNumeric(t, visual, params)
			set(id, visual)
			r.Touched[id] = true
		}
		return
	}

	values := attr.SharedValues()
	assignByQuantity := cfg.HasFlag(transformconfig.VisFlagAssignByQuantity)
	slotOf := buildSlotIndex(values, assignByQuantity)

	for _, id := range ids {
		if attr.ValueMissingOf(id) {
			continue
		}
		values := attr.SharedValues()
		if componentScoped && componentOf != nil {
			values = attr.SharedValuesForComponent(componentOf(id))
			slotOf = buildSlotIndex(values, assignByQuantity)
		}
		value := attr.StringValueOf(id)
		slot, ok := slotOf[value]
		if !ok {
			continue
		}
		visual := get(id)
		if visual == nil {
			visual = &ElementVisual{}
		}
		channel.applyCategorical(slot, len(values), value, visual, params)
		set(id, visual)
		r.Touched[id] = true
	}
}

func mappingKindOf(cfg *transformconfig.VisualisationConfig) MappingKind {
	for _, p := range cfg.Parameters {
		if p.Name == "mapping" && p.Value.Kind == condition.VString {
			return MappingKind(p.Value.StrVal)
		}
	}
	return MappingLinear
}

// buildSlotIndex orders values naturally (the order RecomputeSharedValues
// already sorted them in) or by descending frequency when assignByQuantity
// is set, and returns each value's assigned palette/size slot.
func buildSlotIndex(values []attribute.SharedValue, byQuantity bool) map[string]int {
	ordered := values
	if byQuantity {
		ordered = attribute.ByDescendingFrequency(values)
	}
	slots := make(map[string]int, len(ordered))
	for i, sv := range ordered {
		slots[sv.Value] = i
	}
	return slots
}

// detectOverrides implements spec §4.7's override-alert pass: for every
// pair of visualisation indices i < j that touched the same channel,
// compare their touched-element sets. Full containment (j ⊇ i) attaches an
// Error to i ("Overridden by subsequent visualisations"); partial overlap
// attaches a Warning ("Partially overridden").
func (p *Pipeline) detectOverrides(results []*Result) {
	byChannel := map[Kind][]*Result{}
	for _, r := range results {
		if len(r.Touched) == 0 {
			continue
		}
		byChannel[Kind(r.Config.Channel)] = append(byChannel[Kind(r.Config.Channel)], r)
	}
	for _, group := range byChannel {
		sort.Slice(group, func(a, b int) bool { return group[a].Index < group[b].Index })
		for a := 0; a < len(group); a++ {
			for b := a + 1; b < len(group); b++ {
				i, j := group[a], group[b]
				overlap := 0
				for id := range i.Touched {
					if j.Touched[id] {
						overlap++
					}
				}
				if overlap == 0 {
					continue
				}
				if overlap == len(i.Touched) {
					i.Diagnostics = i.Diagnostics.Append(diag.Sourceless(diag.Error,
						"Overridden by subsequent visualisations", ""))
				} else {
					i.Diagnostics = i.Diagnostics.Append(diag.Sourceless(diag.Warning,
						"Partially overridden by subsequent visualisations", ""))
				}
			}
		}
	}
}
