package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/document"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
)

// loadEdgeList builds a source graph from a plain-text edge list, one
// "source,target[,weight]" triple per line. This is a minimal stand-in
// for the real file-format loaders spec §1/§6 name as an out-of-scope
// external collaborator (internal/external.Loader) -- the CLI host still
// needs *some* way to get a graph onto the command line to demonstrate
// Apply/Undo/Redo, the way opentofu's own CLI needs a config loader
// before it can run a plan, even though HCL parsing lives in a different
// layer than the plan graph itself.
//
// Node names are installed as a persistent, Searchable+FindShared string
// attribute named "Name" so transform/visualisation config lines can
// reference $"Name" the same way they would reference any other
// attribute. All node/edge creation happens inside a single transaction
// so listeners see one graphChanged notification for the whole file,
// matching spec §4.1's batching contract.
func loadEdgeList(doc *document.Document, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	names := make(map[int32]string)
	byName := make(map[string]graphid.NodeID)
	weights := make(map[int32]float64)
	hasWeight := false

	var loadErr error
	doc.Graph.PerformTransaction(func(g *graph.MutableGraph) {
		nodeFor := func(name string) graphid.NodeID {
			if id, ok := byName[name]; ok {
				return id
			}
			id := g.AddNode()
			byName[name] = id
			names[id.Int()] = name
			return id
		}

		sc := bufio.NewScanner(f)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.Split(line, ",")
			if len(parts) < 2 {
				loadErr = fmt.Errorf("%s:%d: expected \"source,target[,weight]\", got %q", path, lineNo, line)
				return
			}
			src := nodeFor(strings.TrimSpace(parts[0]))
			dst := nodeFor(strings.TrimSpace(parts[1]))
			eid := g.AddEdge(src, dst)
			if len(parts) >= 3 {
				w := 0.0
				fmt.Sscanf(strings.TrimSpace(parts[2]), "%g", &w)
				weights[eid.Int()] = w
				hasWeight = true
			}
		}
		if err := sc.Err(); err != nil {
			loadErr = err
		}
	})
	if loadErr != nil {
		return loadErr
	}

	doc.Transform.Attributes().Add(attribute.NewBuilder("Name", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return names[id] }).
		SetFlag(attribute.FindShared | attribute.Searchable).
		Build())

	if hasWeight {
		doc.Transform.Attributes().Add(attribute.NewBuilder("Weight", graphid.EdgeKind, attribute.Float).
			FloatValueFn(func(id int32) float64 { return weights[id] }).
			SetFlag(attribute.AutoRange).
			Build())
	}
	return nil
}
