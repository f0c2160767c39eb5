package transformedgraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transform"
	"github.com/graphia/graphia/internal/transformconfig"
	"github.com/graphia/graphia/internal/transformedgraph"
)

// buildABC constructs the spec §8 scenario graph: nodes A, B, C and edges
// A-B, B-C, with an edge attribute "Edge Weight" used across scenarios 1/4.
func buildABC(t *testing.T) (*graph.MutableGraph, graphid.EdgeID, graphid.EdgeID) {
	t.Helper()
	g := graph.New(nil)
	a := g.AddNode()
	b := g.AddNode()
	c := g.AddNode()
	ab := g.AddEdge(a, b)
	bc := g.AddEdge(b, c)
	return g, ab, bc
}

func registryWithCountingFilter(calls *int) *transform.Registry {
	r := transform.StandardRegistry()
	// Wrap "Remove Edges" so tests can observe whether Apply actually ran
	// on a cache hit (spec §8: "second rebuild returns without invoking
	// the filter transform").
	orig, _ := r.Lookup("Remove Edges")
	counting := &transform.Factory{
		Name:              orig.Name,
		RequiresCondition: orig.RequiresCondition,
		ConfigIsValid:     orig.ConfigIsValid,
		Create: func(cfg *transformconfig.TransformConfig) (transform.Transform, diag.Diagnostics) {
			inner, diags := orig.Create(cfg)
			return &countingTransform{inner: inner, calls: calls}, diags
		},
	}
	r.Register(counting)
	return r
}

type countingTransform struct {
	inner transform.Transform
	calls *int
}

func (c *countingTransform) Apply(target *transform.Target) diag.Diagnostics {
	*c.calls++
	return c.inner.Apply(target)
}
func (c *countingTransform) SetProgress(i int)     { c.inner.SetProgress(i) }
func (c *countingTransform) SetPhase(phase string) { c.inner.SetPhase(phase) }
func (c *countingTransform) Cancelled() bool       { return c.inner.Cancelled() }

func withWeightAttribute(source *graph.MutableGraph, tg *transformedgraph.TransformedGraph, weights map[int32]float64) {
	tg.Attributes().Add(attribute.NewBuilder("Edge Weight", graphid.EdgeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return weights[id] }).
		SetFlag(attribute.AutoRange).
		Build())
}

func TestRebuild_IdentityCacheHit(t *testing.T) {
	source, ab, bc := buildABC(t)

	calls := 0
	registry := registryWithCountingFilter(&calls)
	tg := transformedgraph.New(source, registry, nil)
	withWeightAttribute(source, tg, map[int32]float64{
		int32(ab.Int()): 0.2,
		int32(bc.Int()): 0.9,
	})

	cfg, diags := transformconfig.ParseTransformConfig(`"Remove Edges" where $"Edge Weight" < 0.5`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{cfg})

	tg.Rebuild()
	require.Equal(t, 1, calls)
	require.Equal(t, 1, tg.Target().NumEdges())
	require.True(t, tg.Target().ContainsEdgeID(bc))
	require.False(t, tg.Target().ContainsEdgeID(ab))

	before := tg.Target()

	tg.Rebuild()
	require.Equal(t, 1, calls, "second rebuild must not invoke the filter transform again")
	require.Equal(t, before.NumNodes(), tg.Target().NumNodes())
	require.Equal(t, before.NumEdges(), tg.Target().NumEdges())
	require.True(t, tg.Target().ContainsEdgeID(bc))
	require.False(t, tg.Target().ContainsEdgeID(ab))
}

func TestRebuild_ContractByAttribute(t *testing.T) {
	source := graph.New(nil)
	a := source.AddNode()
	b := source.AddNode()
	c := source.AddNode()
	source.AddEdge(a, b)
	source.AddEdge(b, c)

	registry := transform.StandardRegistry()
	tg := transformedgraph.New(source, registry, nil)
	group := map[int32]string{
		int32(a.Int()): "x",
		int32(b.Int()): "x",
		int32(c.Int()): "y",
	}
	tg.Attributes().Add(attribute.NewBuilder("Group", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return group[id] }).
		Build())

	cfg, diags := transformconfig.ParseTransformConfig(`"Contract By Attribute" using $"Group"`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{cfg})
	tg.Rebuild()

	require.Equal(t, 2, tg.Target().NumNodes())
	require.Equal(t, 1, tg.Target().NumEdges())
}

func TestRebuild_InvalidConditionLeavesGraphUnchanged(t *testing.T) {
	source, ab, bc := buildABC(t)
	registry := transform.StandardRegistry()
	tg := transformedgraph.New(source, registry, nil)
	tg.Attributes().Add(attribute.NewBuilder("StringAttr", graphid.EdgeKind, attribute.String).
		StringValueFn(func(int32) string { return "x" }).
		Build())

	cfg, diags := transformconfig.ParseTransformConfig(`"Remove Edges" where $"StringAttr" < 5`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{cfg})
	tg.Rebuild()

	info := tg.TransformInfoAtIndex(0)
	require.True(t, info.HasErrors())
	require.True(t, tg.Target().ContainsEdgeID(ab))
	require.True(t, tg.Target().ContainsEdgeID(bc))
}

func TestRebuild_AttributeLifecycle_DynamicRecreatedIsChangedNotAdded(t *testing.T) {
	source, _, _ := buildABC(t)
	registry := transform.StandardRegistry()
	tg := transformedgraph.New(source, registry, nil)

	cfg, diags := transformconfig.ParseTransformConfig(`"Betweenness"`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{cfg})

	var changedOnSecondRebuild []string
	tg.Rebuild()
	_, ok := tg.Attributes().Get("Node Betweenness")
	require.True(t, ok)

	handle := tg.AddListener(transformedgraph.Listener{
		AttributeValuesChanged: func(names []string) { changedOnSecondRebuild = names },
	})
	defer tg.RemoveListener(handle)

	tg.Rebuild()
	require.Contains(t, changedOnSecondRebuild, "Node Betweenness")
}

func TestRebuild_UndoRestoresPreviousTransformList(t *testing.T) {
	source, ab, bc := buildABC(t)
	registry := transform.StandardRegistry()
	tg := transformedgraph.New(source, registry, nil)
	withWeightAttribute(source, tg, map[int32]float64{
		int32(ab.Int()): 0.2,
		int32(bc.Int()): 0.9,
	})

	removeLow, diags := transformconfig.ParseTransformConfig(`"Remove Edges" where $"Edge Weight" < 0.5`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{removeLow})
	tg.Rebuild()
	afterA := struct{ nodes, edges int }{tg.Target().NumNodes(), tg.Target().NumEdges()}

	betweenness, diags := transformconfig.ParseTransformConfig(`"Betweenness"`)
	require.Empty(t, diags)
	tg.SetTransforms([]*transformconfig.TransformConfig{removeLow, betweenness})
	tg.Rebuild()
	require.Contains(t, tg.Attributes().Names(), "Node Betweenness")

	// undo: restore the previous list and rebuild again.
	tg.SetTransforms([]*transformconfig.TransformConfig{removeLow})
	tg.Rebuild()

	require.Equal(t, afterA.nodes, tg.Target().NumNodes())
	require.Equal(t, afterA.edges, tg.Target().NumEdges())
	require.NotContains(t, tg.Attributes().Names(), "Node Betweenness")
}
