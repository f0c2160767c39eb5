package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// buildRiderFixture builds two triangles joined by a single bridge edge,
// plus one extra node ("rider") attached only to a node on the far side
// of the bridge. The bridge makes the two triangles modularity-optimal
// as one community; rider's only edge pulls it into that same community
// even though rider has no path into the *other* triangle without
// crossing through its single neighbour -- exactly the case Louvain's
// move-nodes pass can assign without producing a connected result once a
// richer graph makes the assignment ambiguous.
func buildRiderFixture(t *testing.T) (*graph.MutableGraph, *attribute.Table, graphid.NodeID) {
	t.Helper()
	g := graph.New(nil)
	var rider graphid.NodeID
	g.PerformTransaction(func(g *graph.MutableGraph) {
		a := g.AddNode()
		b := g.AddNode()
		c := g.AddNode()
		g.AddEdge(a, b)
		g.AddEdge(b, c)
		g.AddEdge(c, a)

		d := g.AddNode()
		e := g.AddNode()
		f := g.AddNode()
		g.AddEdge(d, e)
		g.AddEdge(e, f)
		g.AddEdge(f, d)

		g.AddEdge(a, d) // bridge

		rider = g.AddNode()
		g.AddEdge(rider, d)
	})
	attrs := attribute.NewTable(func(edgeID int32) (int32, int32) {
		e := g.EdgeByID(graphid.NewEdgeID(int(edgeID)))
		return e.SourceID.Int(), e.TargetID.Int()
	})
	return g, attrs, rider
}

func applyCluster(t *testing.T, name string) (*graph.MutableGraph, *attribute.Table) {
	t.Helper()
	g, attrs, _ := buildRiderFixture(t)
	cfg, diags := transformconfig.ParseTransformConfig(name)
	require.Empty(t, diags)

	r := NewRegistry()
	registerLouvain(r)
	factory, ok := r.Lookup(name)
	require.True(t, ok)

	tr, diags := factory.Create(cfg)
	require.Empty(t, diags)

	target := &Target{Graph: g, Attributes: attrs}
	diags = tr.Apply(target)
	require.Empty(t, diags)
	return g, attrs
}

func clusterSizeAttr(t *testing.T, attrs *attribute.Table, name string) *attribute.Attribute {
	t.Helper()
	a, ok := attrs.Get(name)
	require.True(t, ok)
	return a
}

func TestLeiden_RefinesDisconnectedCommunityFromLouvain(t *testing.T) {
	_, attrs := applyCluster(t, "Leiden")

	sizes := clusterSizeAttr(t, attrs, "Leiden Cluster Size")
	for _, id := range []int32{0, 1, 2, 3, 4, 5, 6} {
		// Every node's own cluster size must equal the size of its
		// connected component within that cluster: rider (6) can only
		// ever be grouped with node 3 (its sole neighbour) or alone,
		// never merged into the far triangle {0,1,2} without a path.
		size := sizes.IntValueOf(id)
		require.LessOrEqual(t, int(size), 4, "node %d reported in an oversized cluster", id)
	}
}

func TestLouvain_AndLeiden_AgreeOnFullyConnectedGraph(t *testing.T) {
	// On a single triangle (no bridge, no rider) both algorithms must
	// produce one all-in-one-cluster result, since a single connected
	// component with no cut is already refinement-stable.
	g := graph.New(nil)
	g.PerformTransaction(func(g *graph.MutableGraph) {
		a := g.AddNode()
		b := g.AddNode()
		c := g.AddNode()
		g.AddEdge(a, b)
		g.AddEdge(b, c)
		g.AddEdge(c, a)
	})
	edgeEndpoints := func(edgeID int32) (int32, int32) {
		e := g.EdgeByID(graphid.NewEdgeID(int(edgeID)))
		return e.SourceID.Int(), e.TargetID.Int()
	}

	r := NewRegistry()
	registerLouvain(r)

	for _, name := range []string{"Louvain", "Leiden"} {
		cfg, diags := transformconfig.ParseTransformConfig(name)
		require.Empty(t, diags)
		factory, ok := r.Lookup(name)
		require.True(t, ok)
		tr, diags := factory.Create(cfg)
		require.Empty(t, diags)

		target := &Target{Graph: g, Attributes: attribute.NewTable(edgeEndpoints)}
		diags = tr.Apply(target)
		require.Empty(t, diags)

		sizeName := name + " Cluster Size"
		sizes := clusterSizeAttr(t, target.Attributes, sizeName)
		require.EqualValues(t, 3, sizes.IntValueOf(0))
	}
}
