package transform

import (
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transformconfig"
)

// removeLeavesTransform repeatedly removes degree<=1 nodes up to a limit
// of iterations, or until a fixed point (spec §4.5). "Remove Branches" is
// registered as the same implementation with an unlimited iteration
// count.
type removeLeavesTransform struct {
	Cancellable
	limit int // 0 means unlimited
}

func (t *removeLeavesTransform) Apply(target *Target) diag.Diagnostics {
	for iter := 0; t.limit == 0 || iter < t.limit; iter++ {
		if t.Cancelled() {
			break
		}
		var leaves []graphid.NodeID
		for _, id := range target.Graph.NodeIDs() {
			node := target.Graph.NodeByID(id)
			if node == nil {
				continue
			}
			if len(node.EdgeIDs()) <= 1 {
				leaves = append(leaves, id)
			}
		}
		if len(leaves) == 0 {
			break
		}
		target.Graph.RemoveNodes(leaves)
	}
	return nil
}

func registerRemoveLeaves(r *Registry) {
	r.Register(&Factory{
		Name: "Remove Leaves",
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			p := struct {
				Limit int `mapstructure:"Limit"`
			}{Limit: 1}
			_ = decodeParams(cfg, &p)
			return &removeLeavesTransform{limit: p.Limit}, nil
		},
	})
	r.Register(&Factory{
		Name: "Remove Branches",
		Create: func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics) {
			return &removeLeavesTransform{limit: 0}, nil
		},
	})
}
