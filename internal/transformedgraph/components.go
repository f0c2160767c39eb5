package transformedgraph

import "github.com/graphia/graphia/internal/graph"

// computeComponents assigns every live node id the id of its connected
// component, via a simple union-find over the graph's edges, for
// component-scoped transforms and attribute recomputation (spec §4.5,
// §4.2: "VisualiseByComponent").
func computeComponents(g *graph.MutableGraph) func(int32) int32 {
	parent := map[int32]int32{}
	var find func(int32) int32
	find = func(x int32) int32 {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p != x {
			parent[x] = find(p)
		}
		return parent[x]
	}
	union := func(a, b int32) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, id := range g.NodeIDs() {
		find(id.Int())
	}
	for _, id := range g.EdgeIDs() {
		e := g.EdgeByID(id)
		if e == nil {
			continue
		}
		union(e.SourceID.Int(), e.TargetID.Int())
	}

	// Assign dense, deterministic component ids by first occurrence in
	// node iteration order, rather than exposing the union-find's raw
	// representative values.
	dense := map[int32]int32{}
	next := int32(0)
	for _, id := range g.NodeIDs() {
		root := find(id.Int())
		if _, ok := dense[root]; !ok {
			dense[root] = next
			next++
		}
	}
	return func(nodeID int32) int32 {
		root := find(nodeID)
		id, ok := dense[root]
		if !ok {
			id = next
			next++
			dense[root] = id
		}
		return id
	}
}
