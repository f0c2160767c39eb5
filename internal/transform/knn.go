package transform

import (
	"math"
	"sort"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// knnTransform implements k-NN / %-NN edge reduction (spec §4.5, §8
// scenario 3). For each node, its incident edges are ranked by a ranking
// attribute; an edge survives only if it ranks within the keep count on
// BOTH of its endpoints' own incident-edge lists -- a node with a single
// incident edge always ranks 1 there, so this is not symmetric with a
// plain per-node top-k union, and is what keeps a star graph's distant
// leaves from saving every edge.
type knnTransform struct {
	Cancellable
	rankAttrName string
	descending   bool
	keepCount    func(degree int) int
}

func (k *knnTransform) Apply(target *Target) diag.Diagnostics {
	attr, err := target.Attributes.Resolve(k.rankAttrName)
	if err != nil {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "Unknown attribute", err.Error()))
	}

	sourceRank := map[int32]int{}
	targetRank := map[int32]int{}

	for _, nodeID := range target.Graph.NodeIDs() {
		node := target.Graph.NodeByID(nodeID)
		if node == nil {
			continue
		}
		edges := append([]graphid.EdgeID(nil), node.EdgeIDs()...)
		sort.Slice(edges, func(i, j int) bool {
			vi, vj := attr.FloatValueOf(edges[i].Int()), attr.FloatValueOf(edges[j].Int())
			if k.descending {
				return vi > vj
			}
			return vi < vj
		})
		for rank, eid := range edges {
			e := target.Graph.EdgeByID(eid)
			if e == nil {
				continue
			}
			r := rank + 1
			if e.SourceID == nodeID {
				sourceRank[eid.Int()] = r
			}
			if e.TargetID == nodeID {
				targetRank[eid.Int()] = r
			}
		}
	}

	var remove []graphid.EdgeID
	sRankAttr := make(map[int32]int64, len(sourceRank))
	tRankAttr := make(map[int32]int64, len(targetRank))
	for _, eid := range target.Graph.EdgeIDs() {
		e := target.Graph.EdgeByID(eid)
		if e == nil {
			continue
		}
		sr := sourceRank[eid.Int()]
		tr := targetRank[eid.Int()]
		sRankAttr[eid.Int()] = int64(sr)
		tRankAttr[eid.Int()] = int64(tr)

		srcDeg := nodeDegree(target, e.SourceID)
		dstDeg := nodeDegree(target, e.TargetID)
		srcKeep := k.keepCount(srcDeg)
		dstKeep := k.keepCount(dstDeg)
		if sr > srcKeep || tr > dstKeep {
			remove = append(remove, eid)
		}
	}

	target.Graph.RemoveEdges(remove)

	target.Attributes.Add(attribute.NewBuilder("k-NN Source Rank", graphid.EdgeKind, attribute.Int).
		IntValueFn(func(id int32) int64 { return sRankAttr[id] }).
		SetFlag(attribute.Dynamic | attribute.AutoRange).
		Build())
	target.Attributes.Add(attribute.NewBuilder("k-NN Target Rank", graphid.EdgeKind, attribute.Int).
		IntValueFn(func(id int32) int64 { return tRankAttr[id] }).
		SetFlag(attribute.Dynamic | attribute.AutoRange).
		Build())
	target.Attributes.Add(attribute.NewBuilder("k-NN Mean Rank", graphid.EdgeKind, attribute.Float).
		FloatValueFn(func(id int32) float64 {
			return (float64(sRankAttr[id]) + float64(tRankAttr[id])) / 2
		}).
		SetFlag(attribute.Dynamic | attribute.AutoRange).
		Build())

	return nil
}

func nodeDegree(target *Target, id graphid.NodeID) int {
	n := target.Graph.NodeByID(id)
	if n == nil {
		return 0
	}
	return len(n.EdgeIDs())
}

func registerKNN(r *Registry) {
	r.Register(&Factory{
		Name: "k-NN",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			return validateKNNConfig(cfg)
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			neighbours, descending := knnParams(cfg)
			return &knnTransform{
				rankAttrName: cfg.AttributeRefs[0],
				descending:   descending,
				keepCount:    func(int) int { return neighbours },
			}, nil
		},
	})
	r.Register(&Factory{
		Name: "%-NN",
		ConfigIsValid: func(cfg *transformconfig.TransformConfig) diag.Diagnostics {
			return validateKNNConfig(cfg)
		},
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			percent, descending := percentNNParams(cfg)
			return &knnTransform{
				rankAttrName: cfg.AttributeRefs[0],
				descending:   descending,
				keepCount: func(degree int) int {
					return int(math.Ceil(float64(degree) * percent / 100))
				},
			}, nil
		},
	})
}

func validateKNNConfig(cfg *transformconfig.TransformConfig) diag.Diagnostics {
	if len(cfg.AttributeRefs) != 1 {
		return diag.Diagnostics{}.Append(diag.Sourceless(diag.Error, "requires exactly one ranking attribute", ""))
	}
	return nil
}

// knnParamsSpec and percentNNParamsSpec are decoded from the withClause
// via decodeParams/mapstructure (spec §4.3); fields left absent from the
// clause keep the default set before decoding (k = 5, Percent = 10, and
// an empty Rank Order, which ranks ascending).
type knnParamsSpec struct {
	K         int    `mapstructure:"k"`
	RankOrder string `mapstructure:"Rank Order"`
}

type percentNNParamsSpec struct {
	Percent   float64 `mapstructure:"Percent"`
	RankOrder string  `mapstructure:"Rank Order"`
}

func knnParams(cfg *transformconfig.TransformConfig) (k int, descending bool) {
	p := knnParamsSpec{K: 5}
	_ = decodeParams(cfg, &p)
	return p.K, p.RankOrder == "Descending"
}

func percentNNParams(cfg *transformconfig.TransformConfig) (percent float64, descending bool) {
	p := percentNNParamsSpec{Percent: 10}
	_ = decodeParams(cfg, &p)
	return p.Percent, p.RankOrder == "Descending"
}

func literalAsFloat(v condition.Value) float64 {
	switch v.Kind {
	case condition.VInt:
		return float64(v.IntVal)
	case condition.VFloat:
		return v.FloatVal
	default:
		return 0
	}
}
