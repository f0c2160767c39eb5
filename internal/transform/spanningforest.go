package transform

import (
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// spanningForestTransform picks a spanning tree of each connected
// component via BFS or DFS from an arbitrary seed, and removes every edge
// that wasn't used to reach a new node (spec §4.5).
type spanningForestTransform struct {
	Cancellable
	useDFS bool
}

func (t *spanningForestTransform) Apply(target *Target) diag.Diagnostics {
	visited := map[graphid.NodeID]bool{}
	keep := map[int32]bool{}

	for _, seed := range target.Graph.NodeIDs() {
		if visited[seed] {
			continue
		}
		frontier := []graphid.NodeID{seed}
		visited[seed] = true
		for len(frontier) > 0 {
			if t.Cancelled() {
				return nil
			}
			var v graphid.NodeID
			if t.useDFS {
				v = frontier[len(frontier)-1]
				frontier = frontier[:len(frontier)-1]
			} else {
				v = frontier[0]
				frontier = frontier[1:]
			}
			node := target.Graph.NodeByID(v)
			if node == nil {
				continue
			}
			for _, eid := range node.EdgeIDs() {
				e := target.Graph.EdgeByID(eid)
				if e == nil {
					continue
				}
				other := e.SourceID
				if other == v {
					other = e.TargetID
				}
				if !visited[other] {
					visited[other] = true
					keep[eid.Int()] = true
					frontier = append(frontier, other)
				}
			}
		}
	}

	var remove []graphid.EdgeID
	for _, eid := range target.Graph.EdgeIDs() {
		if !keep[eid.Int()] {
			remove = append(remove, eid)
		}
	}
	target.Graph.RemoveEdges(remove)
	return nil
}

func registerSpanningForest(r *Registry) {
	r.Register(&Factory{
		Name: "Spanning Forest",
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			p := struct {
				Traversal string `mapstructure:"Traversal"`
			}{}
			_ = decodeParams(cfg, &p)
			return &spanningForestTransform{useDFS: p.Traversal == "DFS"}, nil
		},
	})
}
