package transform

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// betweennessTransform computes Brandes' algorithm for betweenness
// centrality, fanned out per source node across a bounded worker pool
// (spec §4.5, §5: "parallel per source node into per-thread node/edge
// arrays; sum-reduce across threads"). Unweighted only, matching the
// original (betweennesstransform.cpp's integer BFS ignores any configured
// attribute) -- every edge contributes a hop of 1.
type betweennessTransform struct {
	Cancellable
}

func (t *betweennessTransform) Apply(target *Target) diag.Diagnostics {
	nodeIDs := target.Graph.NodeIDs()
	n := len(nodeIDs)
	index := make(map[graphid.NodeID]int, n)
	for i, id := range nodeIDs {
		index[id] = i
	}

	var mu sync.Mutex
	nodeBC := make([]float64, n)
	edgeBC := make(map[int32]float64)

	sem := semaphore.NewWeighted(int64(hardwareConcurrency()))
	g, ctx := errgroup.WithContext(context.Background())

	for _, s := range nodeIDs {
		s := s
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if t.Cancelled() {
				return nil
			}
			localNode, localEdge := brandesSingleSource(target, s, index)
			mu.Lock()
			for i, v := range localNode {
				nodeBC[i] += v
			}
			for eid, v := range localEdge {
				edgeBC[eid] += v
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	target.Attributes.Add(attribute.NewBuilder("Node Betweenness", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return nodeBCForID(index, nodeBC, id) }).
		SetFlag(attribute.Dynamic | attribute.AutoRange | attribute.VisualiseByComponent).
		Build())
	target.Attributes.Add(attribute.NewBuilder("Edge Betweenness", graphid.EdgeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 { return edgeBC[id] }).
		SetFlag(attribute.Dynamic | attribute.AutoRange | attribute.VisualiseByComponent).
		Build())

	return nil
}

func nodeBCForID(index map[graphid.NodeID]int, nodeBC []float64, id int32) float64 {
	idx, ok := index[graphid.NewNodeID(int(id))]
	if !ok || idx >= len(nodeBC) {
		return 0
	}
	return nodeBC[idx]
}

// brandesSingleSource runs one source-rooted pass of Brandes' algorithm,
// returning per-node (indexed by the node's position in index) and
// per-edge partial betweenness contributions. Unweighted: every edge
// is a hop of 1, so a plain BFS queue gives correct shortest-path order.
func brandesSingleSource(target *Target, s graphid.NodeID, index map[graphid.NodeID]int) ([]float64, map[int32]float64) {
	n := len(index)
	dist := make([]float64, n)
	sigma := make([]float64, n)
	for i := range dist {
		dist[i] = -1
	}
	sIdx := index[s]
	dist[sIdx] = 0
	sigma[sIdx] = 1

	var stack []int
	preds := make([][]int, n)
	predEdge := make([][]graphid.EdgeID, n)

	queue := []graphid.NodeID{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		vIdx := index[v]
		stack = append(stack, vIdx)
		node := target.Graph.NodeByID(v)
		if node == nil {
			continue
		}
		for _, eid := range node.EdgeIDs() {
			e := target.Graph.EdgeByID(eid)
			if e == nil {
				continue
			}
			w := otherEndpoint(e, v)
			wIdx, ok := index[w]
			if !ok {
				continue
			}
			if dist[wIdx] < 0 {
				dist[wIdx] = dist[vIdx] + 1
				queue = append(queue, w)
			}
			if dist[wIdx] == dist[vIdx]+1 {
				sigma[wIdx] += sigma[vIdx]
				preds[wIdx] = append(preds[wIdx], vIdx)
				predEdge[wIdx] = append(predEdge[wIdx], eid)
			}
		}
	}

	delta := make([]float64, n)
	nodeBC := make([]float64, n)
	edgeBC := make(map[int32]float64)
	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for j, v := range preds[w] {
			if sigma[w] == 0 {
				continue
			}
			c := (sigma[v] / sigma[w]) * (1 + delta[w])
			delta[v] += c
			edgeBC[int32(predEdge[w][j].Int())] += c
		}
		if w != sIdx {
			nodeBC[w] += delta[w]
		}
	}
	return nodeBC, edgeBC
}

func otherEndpoint(e *graph.Edge, v graphid.NodeID) graphid.NodeID {
	if e.SourceID == v {
		return e.TargetID
	}
	return e.SourceID
}

func registerBetweenness(r *Registry) {
	r.Register(&Factory{
		Name: "Betweenness",
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &betweennessTransform{}, nil
		},
	})
}
