// Package graph implements MutableGraph, the authoritative mutable source
// graph (spec §4.1). It owns node and edge storage, recycles freed ids,
// tracks multi-element merge state produced by edge contraction, and emits
// change notifications through transactional batches.
package graph

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/graphia/graphia/internal/graphid"
)

// Listener receives MutableGraph change notifications. Any field may be
// left nil; only set the callbacks a given observer cares about. This
// mirrors the teacher's event-callback idiom (started/finished/progress
// callbacks in internal/command) rather than a full Qt-style signal bus.
type Listener struct {
	GraphWillChange func()
	NodeAdded       func(graphid.NodeID)
	NodeRemoved     func(graphid.NodeID)
	EdgeAdded       func(graphid.EdgeID)
	EdgeRemoved     func(graphid.EdgeID)
	// GraphChanged fires exactly once per outer performTransaction commit,
	// with changed reporting whether any node or edge was actually added
	// or removed during the batch.
	GraphChanged func(changed bool)
}

// MutableGraph is the authoritative mutable graph (spec §4.1). Multi-edges
// between the same endpoint pair are allowed; addEdge never rejects a
// duplicate. Mutating methods may be called directly (each becomes its own
// one-operation transaction) or batched via PerformTransaction.
type MutableGraph struct {
	log hclog.Logger

	mu    sync.Mutex
	depth int

	nodes       map[graphid.NodeID]*Node
	edges       map[graphid.EdgeID]*Edge
	nodeIDOrder []graphid.NodeID // insertion order of currently-live node ids
	edgeIDOrder []graphid.EdgeID

	nextNodeID int32
	nextEdgeID int32
	freeNodes  []graphid.NodeID
	freeEdges  []graphid.EdgeID

	multiType    map[graphid.NodeID]graphid.MultiElementType
	headOfTail   map[graphid.NodeID]graphid.NodeID   // Tail -> its Head
	tailsOfHead  map[graphid.NodeID][]graphid.NodeID // Head -> its merged Tails

	registry *graphid.Registry

	listeners   map[int]Listener
	nextListener int

	// transaction-scoped bookkeeping
	txChanged bool
}

// New creates an empty MutableGraph.
func New(log hclog.Logger) *MutableGraph {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &MutableGraph{
		log:         log,
		nodes:       make(map[graphid.NodeID]*Node),
		edges:       make(map[graphid.EdgeID]*Edge),
		multiType:   make(map[graphid.NodeID]graphid.MultiElementType),
		headOfTail:  make(map[graphid.NodeID]graphid.NodeID),
		tailsOfHead: make(map[graphid.NodeID][]graphid.NodeID),
		registry:    &graphid.Registry{},
		listeners:   make(map[int]Listener),
	}
}

// Registry exposes the graph's array back-reference list so attribute and
// transform code can register ElementIdArray-equivalents against it.
func (g *MutableGraph) Registry() *graphid.Registry { return g.registry }

// AddListener registers a Listener and returns a handle usable with
// RemoveListener.
func (g *MutableGraph) AddListener(l Listener) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := g.nextListener
	g.nextListener++
	g.listeners[h] = l
	return h
}

func (g *MutableGraph) RemoveListener(handle int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.listeners, handle)
}

func (g *MutableGraph) forEachListener(fn func(Listener)) {
	for _, l := range g.listeners {
		fn(l)
	}
}

// TryLock attempts to acquire the graph's mutation lock without blocking,
// so observers such as visual updates can defer work if a mutation is in
// progress (spec §4.1 Concurrency). It returns false, holding nothing,
// when the lock is taken or a transaction is open.
func (g *MutableGraph) TryLock() bool {
	if !g.mu.TryLock() {
		return false
	}
	if g.depth > 0 {
		g.mu.Unlock()
		return false
	}
	return true
}
func (g *MutableGraph) Unlock()       { g.mu.Unlock() }

// PerformTransaction atomically groups a batch of mutating calls (spec
// §4.1). Nested transactions are flattened into the outermost: only the
// outermost call emits GraphWillChange before and GraphChanged after.
func (g *MutableGraph) PerformTransaction(fn func(*MutableGraph)) {
	g.mu.Lock()
	outer := g.depth == 0
	g.depth++
	if outer {
		g.txChanged = false
		g.forEachListener(func(l Listener) {
			if l.GraphWillChange != nil {
				l.GraphWillChange()
			}
		})
	}
	g.mu.Unlock()

	fn(g)

	g.mu.Lock()
	g.depth--
	done := g.depth == 0
	changed := g.txChanged
	g.mu.Unlock()

	if done {
		g.forEachListener(func(l Listener) {
			if l.GraphChanged != nil {
				l.GraphChanged(changed)
			}
		})
	}
}

func (g *MutableGraph) markChanged() { g.txChanged = true }

// growTo extends the id-space registry to cover at least n elements.
func (g *MutableGraph) growTo(n int) { g.registry.ResizeAll(n) }

// ---- Node lifecycle ----

func (g *MutableGraph) AddNode() graphid.NodeID {
	var id graphid.NodeID
	g.PerformTransaction(func(gr *MutableGraph) {
		id = gr.addNodeLocked()
	})
	return id
}

func (g *MutableGraph) addNodeLocked() graphid.NodeID {
	var id graphid.NodeID
	if n := len(g.freeNodes); n > 0 {
		id = g.freeNodes[n-1]
		g.freeNodes = g.freeNodes[:n-1]
	} else {
		id = graphid.NewNodeID(int(g.nextNodeID))
		g.nextNodeID++
		g.growTo(int(g.nextNodeID))
	}
	g.nodes[id] = &Node{ID: id}
	g.nodeIDOrder = append(g.nodeIDOrder, id)
	g.multiType[id] = graphid.Not
	g.markChanged()
	g.forEachListener(func(l Listener) {
		if l.NodeAdded != nil {
			l.NodeAdded(id)
		}
	})
	return id
}

func (g *MutableGraph) AddNodes(n int) []graphid.NodeID {
	ids := make([]graphid.NodeID, 0, n)
	g.PerformTransaction(func(gr *MutableGraph) {
		for i := 0; i < n; i++ {
			ids = append(ids, gr.addNodeLocked())
		}
	})
	return ids
}

func (g *MutableGraph) RemoveNode(id graphid.NodeID) {
	g.PerformTransaction(func(gr *MutableGraph) { gr.removeNodeLocked(id) })
}

func (g *MutableGraph) RemoveNodes(ids []graphid.NodeID) {
	g.PerformTransaction(func(gr *MutableGraph) {
		for _, id := range ids {
			gr.removeNodeLocked(id)
		}
	})
}

func (g *MutableGraph) removeNodeLocked(id graphid.NodeID) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	// Cascade: removing a node removes every edge incident to it (spec
	// §4.5, "node filters cascade to incident edges automatically" — the
	// same cascade is the graph's own invariant, not just the filter
	// transform's behaviour).
	for _, eid := range node.EdgeIDs() {
		g.removeEdgeLocked(eid)
	}

	g.dropNodeRecord(id)

	if head, isTail := g.headOfTail[id]; isTail {
		delete(g.headOfTail, id)
		g.tailsOfHead[head] = removeNodeIDFrom(g.tailsOfHead[head], id)
	}
	delete(g.tailsOfHead, id)
	delete(g.multiType, id)
}

// dropNodeRecord removes id's physical bookkeeping (map entry, order slot,
// free list, notification) without touching multi-element merge state.
// Used both by removeNodeLocked (full deletion) and by edge contraction
// (where the Tail/Head mapping must survive the node's physical removal).
func (g *MutableGraph) dropNodeRecord(id graphid.NodeID) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.nodeIDOrder = removeNodeIDFrom(g.nodeIDOrder, id)
	g.freeNodes = append(g.freeNodes, id)

	g.markChanged()
	g.forEachListener(func(l Listener) {
		if l.NodeRemoved != nil {
			l.NodeRemoved(id)
		}
	})
}

func removeNodeIDFrom(ids []graphid.NodeID, target graphid.NodeID) []graphid.NodeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// ---- Edge lifecycle ----

func (g *MutableGraph) AddEdge(source, target graphid.NodeID) graphid.EdgeID {
	var id graphid.EdgeID
	g.PerformTransaction(func(gr *MutableGraph) {
		id = gr.addEdgeLocked(source, target)
	})
	return id
}

func (g *MutableGraph) addEdgeLocked(source, target graphid.NodeID) graphid.EdgeID {
	if _, ok := g.nodes[source]; !ok {
		return graphid.NullEdgeID
	}
	if _, ok := g.nodes[target]; !ok {
		return graphid.NullEdgeID
	}

	var id graphid.EdgeID
	if n := len(g.freeEdges); n > 0 {
		id = g.freeEdges[n-1]
		g.freeEdges = g.freeEdges[:n-1]
	} else {
		id = graphid.NewEdgeID(int(g.nextEdgeID))
		g.nextEdgeID++
		g.growTo(int(g.nextEdgeID))
	}

	g.edges[id] = &Edge{ID: id, SourceID: source, TargetID: target}
	g.edgeIDOrder = append(g.edgeIDOrder, id)
	g.nodes[source].OutEdgeIDs = append(g.nodes[source].OutEdgeIDs, id)
	g.nodes[target].InEdgeIDs = append(g.nodes[target].InEdgeIDs, id)

	g.markChanged()
	g.forEachListener(func(l Listener) {
		if l.EdgeAdded != nil {
			l.EdgeAdded(id)
		}
	})
	return id
}

type EdgeSpec struct{ Source, Target graphid.NodeID }

func (g *MutableGraph) AddEdges(specs []EdgeSpec) []graphid.EdgeID {
	ids := make([]graphid.EdgeID, 0, len(specs))
	g.PerformTransaction(func(gr *MutableGraph) {
		for _, s := range specs {
			ids = append(ids, gr.addEdgeLocked(s.Source, s.Target))
		}
	})
	return ids
}

func (g *MutableGraph) RemoveEdge(id graphid.EdgeID) {
	g.PerformTransaction(func(gr *MutableGraph) { gr.removeEdgeLocked(id) })
}

func (g *MutableGraph) RemoveEdges(ids []graphid.EdgeID) {
	g.PerformTransaction(func(gr *MutableGraph) {
		for _, id := range ids {
			gr.removeEdgeLocked(id)
		}
	})
}

func (g *MutableGraph) removeEdgeLocked(id graphid.EdgeID) {
	edge, ok := g.edges[id]
	if !ok {
		return
	}
	if src, ok := g.nodes[edge.SourceID]; ok {
		src.OutEdgeIDs = removeEdgeIDFrom(src.OutEdgeIDs, id)
	}
	if dst, ok := g.nodes[edge.TargetID]; ok {
		dst.InEdgeIDs = removeEdgeIDFrom(dst.InEdgeIDs, id)
	}
	delete(g.edges, id)
	g.edgeIDOrder = removeEdgeIDFromOrder(g.edgeIDOrder, id)
	g.freeEdges = append(g.freeEdges, id)

	g.markChanged()
	g.forEachListener(func(l Listener) {
		if l.EdgeRemoved != nil {
			l.EdgeRemoved(id)
		}
	})
}

func removeEdgeIDFromOrder(ids []graphid.EdgeID, target graphid.EdgeID) []graphid.EdgeID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// ---- Queries ----

func (g *MutableGraph) NodeIDs() []graphid.NodeID {
	out := make([]graphid.NodeID, len(g.nodeIDOrder))
	copy(out, g.nodeIDOrder)
	return out
}

func (g *MutableGraph) EdgeIDs() []graphid.EdgeID {
	out := make([]graphid.EdgeID, len(g.edgeIDOrder))
	copy(out, g.edgeIDOrder)
	return out
}

func (g *MutableGraph) NumNodes() int { return len(g.nodes) }
func (g *MutableGraph) NumEdges() int { return len(g.edges) }

func (g *MutableGraph) ContainsNodeID(id graphid.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *MutableGraph) ContainsEdgeID(id graphid.EdgeID) bool {
	_, ok := g.edges[id]
	return ok
}

func (g *MutableGraph) NodeByID(id graphid.NodeID) *Node { return g.nodes[id] }
func (g *MutableGraph) EdgeByID(id graphid.EdgeID) *Edge { return g.edges[id] }

func (g *MutableGraph) EdgeIDsBetween(a, b graphid.NodeID) []graphid.EdgeID {
	var out []graphid.EdgeID
	node, ok := g.nodes[a]
	if !ok {
		return nil
	}
	for _, eid := range node.EdgeIDs() {
		e := g.edges[eid]
		if (e.SourceID == a && e.TargetID == b) || (e.SourceID == b && e.TargetID == a) {
			out = append(out, eid)
		}
	}
	return out
}

func (g *MutableGraph) FirstEdgeIDBetween(a, b graphid.NodeID) graphid.EdgeID {
	ids := g.EdgeIDsBetween(a, b)
	if len(ids) == 0 {
		return graphid.NullEdgeID
	}
	return ids[0]
}

func (g *MutableGraph) TypeOf(id graphid.NodeID) graphid.MultiElementType {
	return g.multiType[id]
}

// MergedNodeIDsForNodeID returns the full set of original node ids
// represented by id: if id is a Head, that is itself plus every Tail
// merged into it; otherwise just id.
func (g *MutableGraph) MergedNodeIDsForNodeID(id graphid.NodeID) []graphid.NodeID {
	if g.multiType[id] != graphid.Head {
		return []graphid.NodeID{id}
	}
	out := append([]graphid.NodeID{id}, g.tailsOfHead[id]...)
	return out
}

func (g *MutableGraph) EdgesForNodeIDs(ids []graphid.NodeID) []graphid.EdgeID {
	seen := make(map[graphid.EdgeID]struct{})
	var out []graphid.EdgeID
	for _, id := range ids {
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		for _, eid := range node.EdgeIDs() {
			if _, dup := seen[eid]; !dup {
				seen[eid] = struct{}{}
				out = append(out, eid)
			}
		}
	}
	return out
}

// ---- Edge contraction ----

// ContractEdges merges, for each edge in ids, its two endpoints into a
// single representative node (spec §4.1). Surviving edges incident to the
// merged-away node are re-wired onto the representative; the merged node
// becomes Tail with the representative as Head. An edge in ids that is
// already a loop, or whose endpoints already share a representative, is
// removed rather than contracted; an edge not in ids that becomes a loop
// through the re-wiring (a parallel edge) is kept. ContractEdges is its
// own transaction.
func (g *MutableGraph) ContractEdges(ids []graphid.EdgeID) {
	g.PerformTransaction(func(gr *MutableGraph) {
		for _, eid := range ids {
			gr.contractEdgeLocked(eid)
		}
	})
}

func (g *MutableGraph) contractEdgeLocked(eid graphid.EdgeID) {
	edge, ok := g.edges[eid]
	if !ok {
		return
	}
	if edge.IsLoop() {
		g.removeEdgeLocked(eid)
		return
	}

	head := g.representative(edge.SourceID)
	tail := g.representative(edge.TargetID)
	if head == tail {
		g.removeEdgeLocked(eid)
		return
	}

	// Re-wire every edge incident to tail onto head, then drop tail.
	tailNode := g.nodes[tail]
	for _, oeid := range append([]graphid.EdgeID(nil), tailNode.EdgeIDs()...) {
		oe := g.edges[oeid]
		if oe.SourceID == tail {
			oe.SourceID = head
		}
		if oe.TargetID == tail {
			oe.TargetID = head
		}
	}
	// Rebuild head/tail incidence lists to reflect the rewritten edges.
	g.rebuildIncidence(head)
	g.rebuildIncidence(tail)

	g.removeEdgeLocked(eid)

	g.headOfTail[tail] = head
	g.multiType[tail] = graphid.Tail
	g.multiType[head] = graphid.Head
	g.tailsOfHead[head] = append(g.tailsOfHead[head], tail)
	for _, t := range g.tailsOfHead[tail] {
		g.headOfTail[t] = head
		g.tailsOfHead[head] = append(g.tailsOfHead[head], t)
	}
	delete(g.tailsOfHead, tail)

	g.dropNodeRecord(tail)
}

// Clone returns an independent deep copy of g: its own node/edge storage,
// id-space counters, and multi-element merge state, with a fresh Registry
// and no listeners. Used by TransformCache to snapshot a transform's
// output graph (spec §4.6) without aliasing the live target graph a later
// transform will go on to mutate.
func (g *MutableGraph) Clone() *MutableGraph {
	g.mu.Lock()
	defer g.mu.Unlock()

	c := New(g.log)
	c.nextNodeID = g.nextNodeID
	c.nextEdgeID = g.nextEdgeID
	c.freeNodes = append([]graphid.NodeID(nil), g.freeNodes...)
	c.freeEdges = append([]graphid.EdgeID(nil), g.freeEdges...)
	c.nodeIDOrder = append([]graphid.NodeID(nil), g.nodeIDOrder...)
	c.edgeIDOrder = append([]graphid.EdgeID(nil), g.edgeIDOrder...)

	for id, n := range g.nodes {
		c.nodes[id] = n.clone()
	}
	for id, e := range g.edges {
		ec := *e
		c.edges[id] = &ec
	}
	for id, t := range g.multiType {
		c.multiType[id] = t
	}
	for tail, head := range g.headOfTail {
		c.headOfTail[tail] = head
	}
	for head, tails := range g.tailsOfHead {
		c.tailsOfHead[head] = append([]graphid.NodeID(nil), tails...)
	}

	c.growTo(int(c.nextNodeID))
	c.growTo(int(c.nextEdgeID))
	return c
}

func (g *MutableGraph) representative(id graphid.NodeID) graphid.NodeID {
	if head, ok := g.headOfTail[id]; ok {
		return head
	}
	return id
}

func (g *MutableGraph) rebuildIncidence(id graphid.NodeID) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	var in, out []graphid.EdgeID
	for _, eid := range g.edgeIDOrder {
		e := g.edges[eid]
		if e.SourceID == id {
			out = append(out, eid)
		}
		if e.TargetID == id {
			in = append(in, eid)
		}
	}
	node.InEdgeIDs = in
	node.OutEdgeIDs = out
}
