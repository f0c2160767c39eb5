// Package transformedgraph implements TransformedGraph and TransformCache
// (spec §4.6): the heart of Graphia's core. It applies an ordered list of
// transform configs to a source MutableGraph, producing a derived
// ("target") graph plus an attribute table, memoising per-prefix results so
// unchanged transform runs are free, and supporting cooperative
// cancellation with rollback to the prior consistent state.
package transformedgraph

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transform"
	"github.com/graphia/graphia/internal/transformconfig"
)

// Listener receives TransformedGraph rebuild notifications (spec §4.6).
// Any field may be left nil.
type Listener struct {
	GraphWillChange        func()
	NodeAdded              func(graphid.NodeID)
	NodeRemoved            func(graphid.NodeID)
	EdgeAdded              func(graphid.EdgeID)
	EdgeRemoved            func(graphid.EdgeID)
	AttributeValuesChanged func(names []string)
	GraphChanged           func(changeOccurred bool)
}

// TransformedGraph holds the source graph reference, an ordered transforms
// list, a cache, and the currently published derived graph (spec §4.6).
// Constructed once per document and mutated only via Rebuild.
type TransformedGraph struct {
	mu sync.Mutex
	log hclog.Logger

	source   *graph.MutableGraph
	registry *transform.Registry

	target     *graph.MutableGraph
	attributes *attribute.Table
	cache      *TransformCache

	configs []*transformconfig.TransformConfig
	infos   map[int]diag.Diagnostics

	listeners    map[int]Listener
	nextListener int

	cancelled int32
}

// New constructs a TransformedGraph over source, with no transforms
// configured yet. The initial target is the source itself (spec §4.6 step
// 4, applied vacuously before any transforms are set).
func New(source *graph.MutableGraph, registry *transform.Registry, log hclog.Logger) *TransformedGraph {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	tg := &TransformedGraph{
		log:       log,
		source:    source,
		registry:  registry,
		target:    source.Clone(),
		cache:     NewTransformCache(),
		infos:     make(map[int]diag.Diagnostics),
		listeners: make(map[int]Listener),
	}
	tg.attributes = attribute.NewTable(tg.edgeEndpoints)
	return tg
}

// edgeEndpoints resolves an edge id to its source/target node ids against
// whatever graph is currently published as target, so source./target.
// attribute views (spec §4.2) stay correct across rebuilds.
func (tg *TransformedGraph) edgeEndpoints(edgeID int32) (int32, int32) {
	e := tg.target.EdgeByID(graphid.NewEdgeID(int(edgeID)))
	if e == nil {
		return int32(graphid.NullNodeID.Int()), int32(graphid.NullNodeID.Int())
	}
	return e.SourceID.Int(), e.TargetID.Int()
}

// Attributes returns the document-wide attribute table, shared across every
// rebuild (persistent attributes live here across runs; dynamic ones are
// cleared and recreated per spec §3).
func (tg *TransformedGraph) Attributes() *attribute.Table { return tg.attributes }

// Target returns the currently published derived graph.
func (tg *TransformedGraph) Target() *graph.MutableGraph {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.target
}

// ComponentOf exposes the derived graph's current node -> component
// assignment, for the visualisation pipeline's `component`-flagged
// channels (spec §4.7).
func (tg *TransformedGraph) ComponentOf() func(int32) int32 {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return computeComponents(tg.target)
}

// SetTransforms replaces the ordered transform-config list that the next
// Rebuild will apply. This is how undo/redo drive the pipeline (spec §8,
// scenario 6): the command manager swaps the list and calls Rebuild.
func (tg *TransformedGraph) SetTransforms(configs []*transformconfig.TransformConfig) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.configs = configs
}

func (tg *TransformedGraph) Transforms() []*transformconfig.TransformConfig {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return append([]*transformconfig.TransformConfig(nil), tg.configs...)
}

// TransformInfoAtIndex returns the diagnostics recorded for transform index
// i by the most recent Rebuild (spec §7: "transformInfoAtIndex").
func (tg *TransformedGraph) TransformInfoAtIndex(i int) diag.Diagnostics {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.infos[i]
}

// AddListener registers a Listener and returns a handle for RemoveListener.
func (tg *TransformedGraph) AddListener(l Listener) int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	h := tg.nextListener
	tg.nextListener++
	tg.listeners[h] = l
	return h
}

func (tg *TransformedGraph) RemoveListener(handle int) {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	delete(tg.listeners, handle)
}

func (tg *TransformedGraph) forEachListener(fn func(Listener)) {
	for _, l := range tg.listeners {
		fn(l)
	}
}

// Cancel requests cooperative cancellation of an in-progress Rebuild (spec
// §5). It has no effect once Rebuild has returned.
func (tg *TransformedGraph) Cancel() { atomic.StoreInt32(&tg.cancelled, 1) }

func (tg *TransformedGraph) cancelRequested() bool { return atomic.LoadInt32(&tg.cancelled) != 0 }

// InvalidateSource must be called whenever the source graph mutates
// outside a rebuild: it drops the cache wholesale (spec §3: "Invalidated
// wholesale whenever the source graph mutates").
func (tg *TransformedGraph) InvalidateSource() {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	tg.cache.InvalidateAll()
}

// NotifyAttributeChangedExternally must be called when an attribute's
// values change outside a rebuild (user edits, imports). It invalidates
// every cache entry that referenced attrName and returns the index the
// next Rebuild should be considered to have resumed from, or -1 if no
// cached entry referenced it (spec §4.6, "External attribute change").
func (tg *TransformedGraph) NotifyAttributeChangedExternally(attrName string) int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	return tg.cache.InvalidateForAttribute(attrName)
}

func nodeIDSet(g *graph.MutableGraph) map[graphid.NodeID]bool {
	out := make(map[graphid.NodeID]bool)
	for _, id := range g.NodeIDs() {
		out[id] = true
	}
	return out
}

func edgeIDSet(g *graph.MutableGraph) map[graphid.EdgeID]bool {
	out := make(map[graphid.EdgeID]bool)
	for _, id := range g.EdgeIDs() {
		out[id] = true
	}
	return out
}

func attrNameSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// Rebuild is the seven-step protocol of spec §4.6. It is synchronous; the
// CommandManager is responsible for running it off the UI thread.
func (tg *TransformedGraph) Rebuild() {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	atomic.StoreInt32(&tg.cancelled, 0)

	// Step 1: emit graphWillChange.
	tg.forEachListener(func(l Listener) {
		if l.GraphWillChange != nil {
			l.GraphWillChange()
		}
	})

	// Step 2: snapshot bitmaps and cache.
	prevNodes := nodeIDSet(tg.target)
	prevEdges := edgeIDSet(tg.target)
	cacheSnapshot := tg.cache.clone()
	lastCacheEntry, hadLastEntry := tg.cache.Last()

	// Step 3: remove dynamic attributes, remembering their names so a
	// later recreate within this same rebuild counts as "changed" not
	// "added".
	preExistingNames := attrNameSet(tg.attributes.Names())
	removedDynamic := attrNameSet(tg.attributes.RemoveDynamic())

	// Step 4: target <- source. A clone, never the source itself: transforms
	// mutate target in place and the source must remain untouched.
	tg.target = tg.source.Clone()

	infos := make(map[int]diag.Diagnostics)
	changedNames := map[string]bool{}
	changeSignalsEmitted := false
	var cancelledDuring bool

	prefixConfigs := make([]*transformconfig.TransformConfig, 0, len(tg.configs))

	// Step 5: apply each transform in order.
	for i, cfg := range tg.configs {
		if cfg.HasFlag(transformconfig.FlagDisabled) {
			continue
		}
		prefixConfigs = append(prefixConfigs, cfg)
		key := PrefixKey(prefixConfigs)

		if entry, ok := tg.cache.Lookup(key); ok {
			tg.installCacheEntry(entry, changedNames)
			if tg.cancelRequested() {
				cancelledDuring = true
				break
			}
			continue
		}

		factory, ok := tg.registry.Lookup(cfg.Action)
		if !ok {
			infos[i] = diag.Diagnostics{}.Append(diag.Sourceless(diag.Error,
				"Unknown transform", "no transform named "+cfg.Action+" is registered"))
			continue
		}
		if diags := factory.ConfigIsValid(cfg); diags.HasErrors() {
			infos[i] = diags
			continue
		}
		t, diags := factory.Create(cfg)
		if diags.HasErrors() {
			infos[i] = diags
			continue
		}

		before := attrNameSet(tg.attributes.Names())
		mutated, applyDiags := tg.runTransform(t, factory, cfg)
		infos[i] = applyDiags

		if applyDiags.HasErrors() {
			// spec §4.5: an Error alert means the transform's output is
			// not meaningful; downstream transforms still run against
			// the pre-transform graph for this step, i.e. we simply
			// don't cache or advance this index's contribution.
			if t.Cancelled() || tg.cancelRequested() {
				cancelledDuring = true
				break
			}
			continue
		}

		added, changed := diffAttributeNames(before, tg.attributes.Names(), removedDynamic)
		for _, n := range added {
			changedNames[n] = true
		}
		for _, n := range changed {
			changedNames[n] = true
		}

		if mutated {
			tg.cache.InvalidateFrom(i)
			tg.cache.Store(key, &CacheEntry{
				Index:      i,
				Graph:      tg.target.Clone(),
				Attributes: attributesNamed(tg.attributes, append(append([]string{}, added...), changed...)),
				References: cfg.ReferencedAttributeNames(),
			})
			changeSignalsEmitted = true
		}

		if t.Cancelled() || tg.cancelRequested() {
			cancelledDuring = true
			break
		}
	}

	// Step 6: roll back on cancellation.
	if cancelledDuring {
		tg.cache = cacheSnapshot
		if hadLastEntry {
			tg.target = lastCacheEntry.Graph.Clone()
		} else {
			tg.target = tg.source.Clone()
		}
		for _, name := range tg.attributes.Names() {
			if !preExistingNames[name] {
				tg.attributes.Remove(name)
			}
		}
		changeSignalsEmitted = false
		changedNames = map[string]bool{}
	}

	tg.infos = infos
	tg.recomputeAttributeStatistics()

	// Step 7: re-enable component management (recomputeAttributeStatistics
	// above already consults fresh components); emit notifications.
	newNodes := nodeIDSet(tg.target)
	newEdges := edgeIDSet(tg.target)
	tg.emitElementDiff(prevNodes, newNodes, prevEdges, newEdges)

	names := make([]string, 0, len(changedNames))
	for n := range changedNames {
		names = append(names, n)
	}
	tg.forEachListener(func(l Listener) {
		if l.AttributeValuesChanged != nil {
			l.AttributeValuesChanged(names)
		}
	})
	tg.forEachListener(func(l Listener) {
		if l.GraphChanged != nil {
			l.GraphChanged(changeSignalsEmitted)
		}
	})
}

// runTransform applies t once, or (when cfg carries the repeating flag)
// repeatedly recreates and re-applies it until a pass produces no graph
// mutation or cancellation occurs (spec §4.5: "transforms marked repeating
// are re-applied until a fixed point is reached or cancellation occurs").
// It returns whether the graph was mutated across all passes and the
// diagnostics of the final pass.
func (tg *TransformedGraph) runTransform(t transform.Transform, factory *transform.Factory, cfg *transformconfig.TransformConfig) (bool, diag.Diagnostics) {
	anyMutated := false
	for {
		mutatedThisPass := false
		handle := tg.target.AddListener(graph.Listener{
			GraphChanged: func(changed bool) {
				if changed {
					mutatedThisPass = true
				}
			},
		})
		diags := t.Apply(&transform.Target{
			Graph:       tg.target,
			Attributes:  tg.attributes,
			ComponentOf: computeComponents(tg.target),
		})
		tg.target.RemoveListener(handle)

		if mutatedThisPass {
			anyMutated = true
		}
		if diags.HasErrors() || !cfg.HasFlag(transformconfig.FlagRepeating) {
			return anyMutated, diags
		}
		if !mutatedThisPass || t.Cancelled() || tg.cancelRequested() {
			return anyMutated, diags
		}
		var createDiags diag.Diagnostics
		t, createDiags = factory.Create(cfg)
		if createDiags.HasErrors() {
			return anyMutated, createDiags
		}
	}
}

// installCacheEntry applies a hit cache entry's graph and attributes (spec
// §4.6 step 5a: "install cached graph + cached attributes").
func (tg *TransformedGraph) installCacheEntry(entry *CacheEntry, changedNames map[string]bool) {
	tg.target = entry.Graph.Clone()
	for _, a := range entry.Attributes {
		name := a.Name
		tg.attributes.Add(a)
		changedNames[name] = true
	}
}

// diffAttributeNames compares the attribute table's name set before and
// after one transform's Apply, classifying each new name as "added" unless
// it was dynamic and removed at the start of this same rebuild (in which
// case it is "changed", spec §3/§8 "Attribute lifecycle").
func diffAttributeNames(before map[string]bool, after []string, removedDynamicThisRebuild map[string]bool) (added, changed []string) {
	for _, name := range after {
		if before[name] {
			continue
		}
		if removedDynamicThisRebuild[name] {
			changed = append(changed, name)
		} else {
			added = append(added, name)
		}
	}
	return added, changed
}

func attributesNamed(table *attribute.Table, names []string) []*attribute.Attribute {
	out := make([]*attribute.Attribute, 0, len(names))
	for _, n := range names {
		if a, ok := table.Get(n); ok {
			out = append(out, a)
		}
	}
	return out
}

// recomputeAttributeStatistics refreshes every AutoRange/FindShared
// attribute's range and shared-value histogram against the final target
// graph, component-scoped where VisualiseByComponent is set (spec §4.2).
func (tg *TransformedGraph) recomputeAttributeStatistics() {
	nodeIDs := tg.target.NodeIDs()
	edgeIDs := tg.target.EdgeIDs()
	nodeInts := make([]int32, len(nodeIDs))
	for i, id := range nodeIDs {
		nodeInts[i] = id.Int()
	}
	edgeInts := make([]int32, len(edgeIDs))
	for i, id := range edgeIDs {
		edgeInts[i] = id.Int()
	}
	componentOf := computeComponents(tg.target)

	for _, name := range tg.attributes.Names() {
		a, ok := tg.attributes.Get(name)
		if !ok {
			continue
		}
		var ids []int32
		switch a.Kind {
		case graphid.NodeKind:
			ids = nodeInts
		case graphid.EdgeKind:
			ids = edgeInts
		default:
			continue
		}
		a.RecomputeRange(ids, componentOf)
		a.RecomputeSharedValues(ids, componentOf)
	}
}

// emitElementDiff computes the net add/remove across the whole rebuild by
// diffing pre- and post- id sets, and emits one notification per changed
// id, adds before removes, so observers transiently see the union of old
// and new rather than a partial missing state (spec §4.6, "Signal
// canonicalisation").
func (tg *TransformedGraph) emitElementDiff(prevNodes, newNodes map[graphid.NodeID]bool, prevEdges, newEdges map[graphid.EdgeID]bool) {
	for id := range newNodes {
		if !prevNodes[id] {
			tg.forEachListener(func(l Listener) {
				if l.NodeAdded != nil {
					l.NodeAdded(id)
				}
			})
		}
	}
	for id := range newEdges {
		if !prevEdges[id] {
			tg.forEachListener(func(l Listener) {
				if l.EdgeAdded != nil {
					l.EdgeAdded(id)
				}
			})
		}
	}
	for id := range prevNodes {
		if !newNodes[id] {
			tg.forEachListener(func(l Listener) {
				if l.NodeRemoved != nil {
					l.NodeRemoved(id)
				}
			})
		}
	}
	for id := range prevEdges {
		if !newEdges[id] {
			tg.forEachListener(func(l Listener) {
				if l.EdgeRemoved != nil {
					l.EdgeRemoved(id)
				}
			})
		}
	}
}
