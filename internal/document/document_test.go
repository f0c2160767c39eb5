package document

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
)

func buildTriangle(t *testing.T, d *Document) (a, b, c graphid.NodeID) {
	t.Helper()
	d.MutateGraph(func(g *graph.MutableGraph) {
		a = g.AddNode()
		b = g.AddNode()
		c = g.AddNode()
		g.AddEdge(a, b)
		g.AddEdge(b, c)
		g.AddEdge(c, a)
	})
	return a, b, c
}

func TestDocument_MutateGraphRebuildsAndEvaluates(t *testing.T) {
	d := New(nil)
	buildTriangle(t, d)

	require.Equal(t, 3, d.Transform.Target().NumNodes())
	require.NotNil(t, d.LastVisualOutput())
}

func TestDocument_ApplyTransformsIsUndoable(t *testing.T) {
	d := New(nil)
	a, _, _ := buildTriangle(t, d)

	weight := attribute.NewBuilder("weight", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 {
			if id == int32(a.Int()) {
				return 1
			}
			return 0
		}).
		Build()
	d.Transform.Attributes().Add(weight)

	diags, err := d.ApplyTransforms([]string{`"Remove Nodes" where $"weight" < 1`})
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Equal(t, 1, d.Transform.Target().NumNodes())

	ok := d.Undo()
	require.True(t, ok)
	require.Equal(t, 3, d.Transform.Target().NumNodes())
}

func TestDocument_ApplyTransforms_AggregatesLineParseErrors(t *testing.T) {
	d := New(nil)
	_, err := d.ApplyTransforms([]string{"remove where", "[[[ not a transform"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "transform line 1")
	require.Contains(t, err.Error(), "transform line 2")
}

func TestDocument_EditAttributeCollapsesUnderReplace(t *testing.T) {
	d := New(nil)
	a, b, _ := buildTriangle(t, d)

	score := attribute.NewBuilder("score", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return "" }).
		SetFlag(attribute.UserDefined).
		Build()
	d.Transform.Attributes().Add(score)

	d.EditAttribute("score", map[int32]string{int32(a.Int()): "1"})
	require.True(t, d.Commands.CanUndo())

	d.EditAttribute("score", map[int32]string{int32(b.Int()): "2"})
	attr, ok := d.Transform.Attributes().Get("score")
	require.True(t, ok)
	require.Equal(t, "1", attr.StringValueOf(int32(a.Int())))
	require.Equal(t, "2", attr.StringValueOf(int32(b.Int())))

	// The second edit collapses onto the first under ExecutePolicyReplace,
	// so a single Undo restores both nodes to their pre-edit values rather
	// than only reversing the second edit.
	require.True(t, d.Undo())
	attr, ok = d.Transform.Attributes().Get("score")
	require.True(t, ok)
	require.Equal(t, "", attr.StringValueOf(int32(a.Int())))
	require.Equal(t, "", attr.StringValueOf(int32(b.Int())))
	require.False(t, d.Commands.CanUndo())
}

func TestDocument_SetVisualisationsAppliesColour(t *testing.T) {
	d := New(nil)
	a, b, c := buildTriangle(t, d)

	degree := attribute.NewBuilder("degree", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return 2 }).
		SetFlag(attribute.AutoRange).
		Build()
	d.Transform.Attributes().Add(degree)
	d.Transform.Rebuild()

	err := d.SetVisualisations([]string{`$"degree" colour`})
	require.NoError(t, err)

	out := d.LastVisualOutput()
	require.NotNil(t, out)
	require.Contains(t, out.NodeVisuals, a)
	require.Contains(t, out.NodeVisuals, b)
	require.Contains(t, out.NodeVisuals, c)
}
