package visual

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

func scoreAttribute(values map[int32]float64) *attribute.Attribute {
	a := attribute.NewBuilder("score", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return values[id] }).
		SetFlag(attribute.AutoRange).
		Build()
	ids := make([]int32, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	a.RecomputeRange(ids, nil)
	return a
}

func colourConfig(flags ...string) *transformconfig.VisualisationConfig {
	return &transformconfig.VisualisationConfig{
		Flags:         flags,
		AttributeName: "score",
		Channel:       string(ColourChannel),
	}
}

func TestPipeline_NumericColourMapping_LinearRange(t *testing.T) {
	attr := scoreAttribute(map[int32]float64{1: 0, 2: 5, 3: 10})
	table := attribute.NewTable(nil)
	table.Add(attr)

	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{colourConfig()}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2), graphid.NewNodeID(3)},
	})

	require.Len(t, out.Results, 1)
	require.Empty(t, out.Results[0].Diagnostics)
	lo := out.NodeVisuals[graphid.NewNodeID(1)]
	mid := out.NodeVisuals[graphid.NewNodeID(2)]
	hi := out.NodeVisuals[graphid.NewNodeID(3)]
	require.NotEqual(t, lo.Colour, hi.Colour)
	require.NotEmpty(t, mid.Colour)
}

func TestPipeline_NumericInvertFlipsExtremes(t *testing.T) {
	attr := scoreAttribute(map[int32]float64{1: 0, 2: 10})
	table := attribute.NewTable(nil)
	table.Add(attr)

	p := NewPipeline(false)
	plain := p.Evaluate([]*transformconfig.VisualisationConfig{colourConfig()}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2)},
	})
	inverted := p.Evaluate([]*transformconfig.VisualisationConfig{colourConfig(transformconfig.VisFlagInvert)}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2)},
	})

	require.Equal(t, plain.NodeVisuals[graphid.NewNodeID(1)].Colour, inverted.NodeVisuals[graphid.NewNodeID(2)].Colour)
	require.Equal(t, plain.NodeVisuals[graphid.NewNodeID(2)].Colour, inverted.NodeVisuals[graphid.NewNodeID(1)].Colour)
}

func TestPipeline_NumericTextChannel_DoesNotRequireRange(t *testing.T) {
	// Regression: the text channel has no range requirement, so binding a
	// numeric attribute to it must still produce formatted text rather than
	// silently touching nothing.
	attr := attribute.NewBuilder("score", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return 42.5 }).
		Build()
	table := attribute.NewTable(nil)
	table.Add(attr)

	cfg := &transformconfig.VisualisationConfig{AttributeName: "score", Channel: string(TextChannel)}
	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{cfg}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1)},
	})

	v := out.NodeVisuals[graphid.NewNodeID(1)]
	require.NotNil(t, v)
	require.NotEmpty(t, v.Text)
	require.True(t, out.Results[0].Touched[1])
}

func TestPipeline_CategoricalNaturalOrder(t *testing.T) {
	groups := map[int32]string{1: "a", 2: "b", 3: "a"}
	attr := attribute.NewBuilder("group", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return groups[id] }).
		SetFlag(attribute.FindShared).
		Build()
	ids := []int32{1, 2, 3}
	attr.RecomputeSharedValues(ids, nil)

	table := attribute.NewTable(nil)
	table.Add(attr)
	cfg := &transformconfig.VisualisationConfig{AttributeName: "group", Channel: string(ColourChannel)}

	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{cfg}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2), graphid.NewNodeID(3)},
	})

	require.Equal(t, out.NodeVisuals[graphid.NewNodeID(1)].Colour, out.NodeVisuals[graphid.NewNodeID(3)].Colour)
	require.NotEqual(t, out.NodeVisuals[graphid.NewNodeID(1)].Colour, out.NodeVisuals[graphid.NewNodeID(2)].Colour)
}

func TestPipeline_CategoricalAssignByQuantityOrdersByFrequency(t *testing.T) {
	groups := map[int32]string{1: "alpha", 2: "common", 3: "common", 4: "common"}
	attr := attribute.NewBuilder("group", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return groups[id] }).
		SetFlag(attribute.FindShared).
		Build()
	ids := []int32{1, 2, 3, 4}
	attr.RecomputeSharedValues(ids, nil)

	table := attribute.NewTable(nil)
	table.Add(attr)
	cfg := &transformconfig.VisualisationConfig{
		AttributeName: "group",
		Channel:       string(ColourChannel),
		Flags:         []string{transformconfig.VisFlagAssignByQuantity},
	}

	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{cfg}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2), graphid.NewNodeID(3), graphid.NewNodeID(4)},
	})

	require.Equal(t, out.NodeVisuals[graphid.NewNodeID(2)].Colour, out.NodeVisuals[graphid.NewNodeID(3)].Colour)
	require.NotEqual(t, out.NodeVisuals[graphid.NewNodeID(1)].Colour, out.NodeVisuals[graphid.NewNodeID(2)].Colour)
	require.Equal(t, defaultPalette[0], out.NodeVisuals[graphid.NewNodeID(2)].Colour)
}

func TestPipeline_OverrideDetection_FullContainmentIsError(t *testing.T) {
	attr := scoreAttribute(map[int32]float64{1: 0, 2: 10})
	table := attribute.NewTable(nil)
	table.Add(attr)

	first := colourConfig()
	second := colourConfig()
	second.AttributeName = "score"

	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{first, second}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2)},
	})

	require.True(t, hasSeverity(out.Results[0].Diagnostics, diag.Error))
	require.Empty(t, out.Results[1].Diagnostics)
}

func TestPipeline_OverrideDetection_PartialOverlapIsWarning(t *testing.T) {
	// "first" is present on nodes 1 and 2, "second" on nodes 2 and 3: the
	// two visualisations share only node 2, a partial overlap in both
	// directions, which should attach a Warning rather than an Error.
	firstAttr := attribute.NewBuilder("first", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return 1 }).
		MissingFn(func(id int32) bool { return id == 3 }).
		Build()
	secondAttr := attribute.NewBuilder("second", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return 1 }).
		MissingFn(func(id int32) bool { return id == 1 }).
		Build()
	table := attribute.NewTable(nil)
	table.Add(firstAttr)
	table.Add(secondAttr)

	first := &transformconfig.VisualisationConfig{AttributeName: "first", Channel: string(TextChannel)}
	second := &transformconfig.VisualisationConfig{AttributeName: "second", Channel: string(TextChannel)}

	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{first, second}, &Source{
		Attributes: table,
		NodeIDs:    []graphid.NodeID{graphid.NewNodeID(1), graphid.NewNodeID(2), graphid.NewNodeID(3)},
	})

	require.True(t, hasSeverity(out.Results[0].Diagnostics, diag.Warning))
	require.False(t, hasSeverity(out.Results[0].Diagnostics, diag.Error))
}

func TestPipeline_EdgeTextDisabledWarning(t *testing.T) {
	label := map[int32]string{10: "e1"}
	attr := attribute.NewBuilder("label", graphid.EdgeKind, attribute.String).
		StringValueFn(func(id int32) string { return label[id] }).
		Build()
	table := attribute.NewTable(nil)
	table.Add(attr)

	cfg := &transformconfig.VisualisationConfig{AttributeName: "label", Channel: string(TextChannel)}
	p := NewPipeline(true)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{cfg}, &Source{
		Attributes: table,
		EdgeIDs:    []graphid.EdgeID{graphid.NewEdgeID(10)},
	})

	require.True(t, hasSeverity(out.Results[0].Diagnostics, diag.Warning))
}

func TestPipeline_SharedTextContractsMatchingEndpoints(t *testing.T) {
	g := graph.New(hclog.NewNullLogger())
	n1 := g.AddNode()
	n2 := g.AddNode()
	n3 := g.AddNode()
	g.AddEdge(n1, n2)
	g.AddEdge(n2, n3)

	names := map[int32]string{n1.Int(): "red", n2.Int(): "red", n3.Int(): "blue"}
	attr := attribute.NewBuilder("colourName", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return names[id] }).
		Build()
	table := attribute.NewTable(nil)
	table.Add(attr)

	cfg := &transformconfig.VisualisationConfig{AttributeName: "colourName", Channel: string(SharedTextChannel)}
	p := NewPipeline(false)
	out := p.Evaluate([]*transformconfig.VisualisationConfig{cfg}, &Source{
		Attributes: table,
		NodeIDs:    g.NodeIDs(),
		Graph:      g,
	})

	require.Len(t, out.TextVisuals, 2)
	var redGroup, blueGroup *TextVisual
	for i := range out.TextVisuals {
		switch out.TextVisuals[i].Text {
		case "red":
			redGroup = &out.TextVisuals[i]
		case "blue":
			blueGroup = &out.TextVisuals[i]
		}
	}
	require.NotNil(t, redGroup)
	require.NotNil(t, blueGroup)
	require.Len(t, redGroup.MemberNodeIDs, 2)
	require.Len(t, blueGroup.MemberNodeIDs, 1)
}

func TestPipeline_MappingCurveExponentCompressesLowValues(t *testing.T) {
	raw := applyMapping(MappingExponent, 0.5, 2)
	require.Less(t, raw, 0.5)
}

func TestPipeline_ParametersOfReadsFloatAndIntParameters(t *testing.T) {
	cfg := &transformconfig.VisualisationConfig{
		Parameters: []transformconfig.Parameter{
			{Name: "minSize", Value: condition.Float(2.5)},
			{Name: "maxSize", Value: condition.Int(10)},
		},
	}
	raw := parametersOf(cfg)
	require.Equal(t, 2.5, raw["minSize"])
	require.Equal(t, float64(10), raw["maxSize"])
}

func hasSeverity(diags diag.Diagnostics, sev diag.Severity) bool {
	for _, d := range diags {
		if d.Severity == sev {
			return true
		}
	}
	return false
}
