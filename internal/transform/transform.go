// Package transform implements the concrete GraphTransform factories and
// algorithms (spec §4.5): filter/contract/cluster/reduce/compute-attribute
// operations that run against a TransformedGraph's target graph.
package transform

import (
	"sync/atomic"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/transformconfig"
)

// Target is the mutable state a Transform operates on: the derived graph
// and its attribute table (spec §4.5, "apply(target: &mut
// TransformedGraph)"). TransformedGraph constructs one of these per
// transform step.
type Target struct {
	Graph      *graph.MutableGraph
	Attributes *attribute.Table

	// ComponentOf resolves a node id to the id of its connected component
	// in the current target graph, for component-scoped transforms (Remove
	// Components reads it). Nil before components have been assigned.
	ComponentOf func(nodeID int32) int32
}

// Transform is the interface every concrete transform implements (spec
// §4.5).
type Transform interface {
	Apply(target *Target) diag.Diagnostics
	SetProgress(i int)
	SetPhase(phase string)
	Cancelled() bool
}

// Cancellable is embedded by every concrete transform implementation: it
// supplies SetProgress/SetPhase/Cancelled plus a Cancel method that sets
// the flag Cancelled reports, which transforms poll between iterations
// (spec §5, "workers poll cancelled() between iterations").
type Cancellable struct {
	progress   int32
	phase      atomic.Value // string
	cancelled  int32
	progressFn func(int)
	phaseFn    func(string)
}

func (c *Cancellable) SetProgress(i int) {
	atomic.StoreInt32(&c.progress, int32(i))
	if c.progressFn != nil {
		c.progressFn(i)
	}
}

func (c *Cancellable) Progress() int { return int(atomic.LoadInt32(&c.progress)) }

func (c *Cancellable) SetPhase(phase string) {
	c.phase.Store(phase)
	if c.phaseFn != nil {
		c.phaseFn(phase)
	}
}

func (c *Cancellable) Phase() string {
	if v := c.phase.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (c *Cancellable) Cancel()                 { atomic.StoreInt32(&c.cancelled, 1) }
func (c *Cancellable) Cancelled() bool         { return atomic.LoadInt32(&c.cancelled) != 0 }
func (c *Cancellable) OnProgress(fn func(int)) { c.progressFn = fn }
func (c *Cancellable) OnPhase(fn func(string)) { c.phaseFn = fn }

// VisualisationDefault names an attribute/channel pair a transform
// recommends the UI apply the first time it appears (spec §4.5,
// "defaultVisualisations()").
type VisualisationDefault struct {
	AttributeName string
	Channel       string
}

// Factory is the "factory pair" spec §4.5 requires of every transform:
// configIsValid validates a parsed config against this transform's
// semantic requirements (attribute count, parameter names/types,
// condition presence); Create builds a Transform instance from a
// known-valid config.
type Factory struct {
	Name                  string
	RequiresCondition     bool
	ConfigIsValid         func(cfg *transformconfig.TransformConfig) diag.Diagnostics
	Create                func(cfg *transformconfig.TransformConfig) (Transform, diag.Diagnostics)
	DefaultVisualisations func(cfg *transformconfig.TransformConfig) []VisualisationDefault
}

// Registry is the document-wide map of transform action name to Factory.
type Registry struct {
	byName map[string]*Factory
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Factory)}
}

func (r *Registry) Register(f *Factory) { r.byName[f.Name] = f }

func (r *Registry) Lookup(name string) (*Factory, bool) {
	f, ok := r.byName[name]
	return f, ok
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	return out
}

// StandardRegistry returns a Registry with every built-in transform
// registered (spec §4.5's representative algorithms).
func StandardRegistry() *Registry {
	r := NewRegistry()
	registerFilterFamily(r)
	registerContractFamily(r)
	registerKNN(r)
	registerBetweenness(r)
	registerLouvain(r)
	registerSpanningForest(r)
	registerRemoveLeaves(r)
	registerAttributeSynthesis(r)
	registerRemoveComponents(r)
	return r
}
