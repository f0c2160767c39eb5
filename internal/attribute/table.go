package attribute

import (
	"fmt"
	"sort"

	"github.com/agext/levenshtein"

	"github.com/graphia/graphia/internal/graphid"
)

// EdgeEndpoints resolves an edge id to its source/target node ids, so the
// table can implement the "source.<name>"/"target.<name>" prefix forms
// (spec §4.2) without depending on the graph package directly.
type EdgeEndpoints func(edgeID int32) (source, target int32)

// ParameterFactory produces a parameterised Attribute instance for one
// concrete parameter value (spec §3, "optional parameter (a domain-specific
// selector string)").
type ParameterFactory func(param string) *Attribute

// Table is the attribute registry: a document-wide namespace of
// Attributes, keyed by their uniquified name, plus the bookkeeping needed
// to implement the dynamic-attribute lifecycle (spec §3: "Dynamic
// attributes ... are removed at the start of the next run").
type Table struct {
	edgeEndpoints EdgeEndpoints

	byName       map[string]*Attribute
	order        []string
	paramFactory map[string]ParameterFactory
	paramCache   map[string]map[string]*Attribute
}

func NewTable(edgeEndpoints EdgeEndpoints) *Table {
	return &Table{
		edgeEndpoints: edgeEndpoints,
		byName:        make(map[string]*Attribute),
		paramFactory:  make(map[string]ParameterFactory),
		paramCache:    make(map[string]map[string]*Attribute),
	}
}

// uniquify normalises dots to underscores and, if the resulting name
// already exists, suffixes "(n)" until it doesn't (spec §4.2).
func (t *Table) uniquify(name string) string {
	name = NormalizeUserName(name)
	if _, exists := t.byName[name]; !exists {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s(%d)", name, n)
		if _, exists := t.byName[candidate]; !exists {
			return candidate
		}
	}
}

// Add registers a fully-built Attribute under a uniquified version of its
// Name, and returns the name it was actually registered under.
func (t *Table) Add(a *Attribute) string {
	name := t.uniquify(a.Name)
	a.Name = name
	t.byName[name] = a
	t.order = append(t.order, name)
	return name
}

// AddParameterised registers a parameter factory for attributes accessed
// as "name.param". Instances are created lazily and cached per parameter
// value.
func (t *Table) AddParameterised(name string, factory ParameterFactory) {
	t.paramFactory[name] = factory
	t.paramCache[name] = make(map[string]*Attribute)
}

// Remove deletes an attribute by name (explicit removal of a persistent
// attribute, or internal bookkeeping for dynamic-attribute rollover).
func (t *Table) Remove(name string) {
	if _, ok := t.byName[name]; !ok {
		return
	}
	delete(t.byName, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Names returns every registered attribute name in registration order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// RemoveDynamic clears every Dynamic-flagged attribute at the start of a
// rebuild (spec §4.6 step 3), returning the names removed so the rebuild
// can tell "recreated" (changed) apart from "newly added" (spec §8,
// "Attribute lifecycle").
func (t *Table) RemoveDynamic() []string {
	var removed []string
	for _, name := range t.Names() {
		if a := t.byName[name]; a.Flags.Has(Dynamic) {
			removed = append(removed, name)
			t.Remove(name)
		}
	}
	return removed
}

// Get looks up a previously-registered, non-parameterised, non-prefixed
// attribute by its exact registered name.
func (t *Table) Get(name string) (*Attribute, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Resolve resolves the full canonical textual form of an attribute name
// (spec §4.2), including the source./target. edge-node prefix and the
// .parameter suffix, synthesising a derived Attribute view when needed.
// The returned error carries an "unknown attribute" diagnosis with a
// did-you-mean suggestion when resolution fails.
func (t *Table) Resolve(raw string) (*Attribute, error) {
	pn, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	base, err := t.resolveBase(pn.BaseName, pn.Parameter, pn.HasParam)
	if err != nil {
		return nil, err
	}

	if pn.EdgeNode == NoEdgeNodeType {
		return base, nil
	}
	if base.Kind != graphid.NodeKind {
		return nil, fmt.Errorf("attribute: %q prefix requires a node attribute, %q is a %s attribute",
			edgeNodeLabel(pn.EdgeNode), pn.BaseName, base.Kind)
	}
	return t.wrapThroughEdge(base, pn.EdgeNode), nil
}

func edgeNodeLabel(t EdgeNodeType) string {
	if t == SourceNode {
		return "source."
	}
	return "target."
}

func (t *Table) resolveBase(name, param string, hasParam bool) (*Attribute, error) {
	if hasParam {
		factory, ok := t.paramFactory[name]
		if !ok {
			return nil, t.unknownAttributeError(name)
		}
		cache := t.paramCache[name]
		if a, ok := cache[param]; ok {
			return a, nil
		}
		a := factory(param)
		a.Parameter = param
		cache[param] = a
		return a, nil
	}
	a, ok := t.byName[name]
	if !ok {
		return nil, t.unknownAttributeError(name)
	}
	return a, nil
}

func (t *Table) unknownAttributeError(name string) error {
	best, bestDist := "", -1
	for _, n := range t.order {
		d := levenshtein.Distance(name, n, nil)
		if bestDist == -1 || d < bestDist {
			best, bestDist = n, d
		}
	}
	if best != "" && bestDist <= 3 {
		return fmt.Errorf("attribute: unknown attribute %q (did you mean %q?)", name, best)
	}
	return fmt.Errorf("attribute: unknown attribute %q", name)
}

// wrapThroughEdge builds an edge-kind Attribute view over a node-kind base
// attribute, resolved through each edge's source or target node id (spec
// §4.2: "source.<name>" / "target.<name>").
func (t *Table) wrapThroughEdge(base *Attribute, which EdgeNodeType) *Attribute {
	endpoint := func(edgeID int32) int32 {
		src, dst := t.edgeEndpoints(edgeID)
		if which == SourceNode {
			return src
		}
		return dst
	}
	name := edgeNodeLabel(which) + base.Name
	b := NewBuilder(name, graphid.EdgeKind, base.ValueType).
		Description(base.Description).
		IntValueFn(func(id int32) int64 { return base.IntValueOf(endpoint(id)) }).
		FloatValueFn(func(id int32) float64 { return base.FloatValueOf(endpoint(id)) }).
		StringValueFn(func(id int32) string { return base.StringValueOf(endpoint(id)) }).
		MissingFn(func(id int32) bool { return base.ValueMissingOf(endpoint(id)) })
	return b.Build()
}

// SortedByName returns every attribute in the table ordered by display
// name, useful for deterministic UI listings.
func (t *Table) SortedByName() []*Attribute {
	names := t.Names()
	sort.Strings(names)
	out := make([]*Attribute, 0, len(names))
	for _, n := range names {
		out = append(out, t.byName[n])
	}
	return out
}
