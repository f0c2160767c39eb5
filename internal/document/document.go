// Package document assembles the core pipeline into the single object a
// host application drives (spec §7): a MutableGraph, its TransformedGraph,
// an ordered visualisation list, and a CommandManager wired together
// behind ApplyTransforms/Undo/Redo/CancelCommand. Everything in this package is
// already covered by the packages it wires; it adds no new algorithms of
// its own, only orchestration.
package document

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/graphia/graphia/internal/command"
	"github.com/graphia/graphia/internal/diag"
	"github.com/graphia/graphia/internal/external"
	"github.com/graphia/graphia/internal/graph"
	"github.com/graphia/graphia/internal/graphid"
	"github.com/graphia/graphia/internal/transform"
	"github.com/graphia/graphia/internal/transformconfig"
	"github.com/graphia/graphia/internal/transformedgraph"
	"github.com/graphia/graphia/internal/visual"
)

// Document is the host-facing assembly of the core pipeline (spec §7).
// It owns the source graph, the derived TransformedGraph, the
// visualisation list, and the CommandManager that serialises every
// mutation to either through undoable commands.
type Document struct {
	log hclog.Logger

	Graph     *graph.MutableGraph
	Transform *transformedgraph.TransformedGraph
	Commands  *command.Manager

	visualisations []*transformconfig.VisualisationConfig
	pipeline       *visual.Pipeline
	edgeTextPrefs  external.PreferencesWatcher

	lastVisualOutput *visual.Output
}

// New constructs an empty Document backed by the standard transform
// registry (spec §4.5's representative algorithms).
func New(log hclog.Logger) *Document {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	g := graph.New(log)
	return &Document{
		log:       log,
		Graph:     g,
		Transform: transformedgraph.New(g, transform.StandardRegistry(), log),
		Commands:  command.NewManager(log),
		pipeline:  visual.NewPipeline(false),
	}
}

// SetPreferencesWatcher wires a host's edge-text-rendering preference into
// the visualisation pipeline (spec §4.7, "Edge Text Disabled" warning).
// The pipeline is rebuilt immediately to reflect the current value.
func (d *Document) SetPreferencesWatcher(w external.PreferencesWatcher) {
	d.edgeTextPrefs = w
	d.refreshPipeline()
	if w != nil {
		w.OnPreferenceChanged("edgeTextEnabled", d.refreshPipeline)
	}
}

func (d *Document) refreshPipeline() {
	disabled := false
	if d.edgeTextPrefs != nil {
		disabled = !d.edgeTextPrefs.EdgeTextEnabled()
	}
	d.pipeline = visual.NewPipeline(disabled)
}

// applyTransformsCommand wraps TransformedGraph.SetTransforms + Rebuild as
// a single undoable command (spec §7, §8 scenario 6: "undo restores the
// previous transform list"). Undo/redo swap the transform list back and
// re-run Rebuild, relying on the TransformCache to make the reverse
// rebuild cheap whenever a prefix is still cached.
type applyTransformsCommand struct {
	command.Cancellable
	tg       *transformedgraph.TransformedGraph
	previous []*transformconfig.TransformConfig
	next     []*transformconfig.TransformConfig
}

func newApplyTransformsCommand(tg *transformedgraph.TransformedGraph, next []*transformconfig.TransformConfig) *applyTransformsCommand {
	return &applyTransformsCommand{
		Cancellable: command.NewCancellable(true),
		tg:          tg,
		previous:    tg.Transforms(),
		next:        next,
	}
}

func (c *applyTransformsCommand) Description() string   { return "Apply Transforms" }
func (c *applyTransformsCommand) Verb() string           { return "Applying transforms" }
func (c *applyTransformsCommand) PastParticiple() string { return "Applied transforms" }

func (c *applyTransformsCommand) Execute(ctx context.Context) bool {
	c.tg.SetTransforms(c.next)
	c.tg.Rebuild()
	return true
}

func (c *applyTransformsCommand) Undo() {
	c.tg.SetTransforms(c.previous)
	c.tg.Rebuild()
}

// ApplyTransforms parses src as an ordered list of transform config lines
// (one per line, spec §4.3) and submits the resulting list through the
// CommandManager as a single undoable step (spec §7). Parse failures
// across independent lines are collected into one aggregate error via
// go-multierror rather than stopping at the first bad line, so a caller
// can report every offending line at once.
func (d *Document) ApplyTransforms(src []string) (diag.Diagnostics, error) {
	configs, err := parseTransformConfigLines(src)
	if err != nil {
		return nil, err
	}
	cmd := newApplyTransformsCommand(d.Transform, configs)
	d.Commands.Execute(cmd, command.ExecutePolicyAdd)
	d.EvaluateVisualisations()
	return d.collectTransformDiagnostics(len(configs)), nil
}

func (d *Document) collectTransformDiagnostics(n int) diag.Diagnostics {
	var all diag.Diagnostics
	for i := 0; i < n; i++ {
		all = append(all, d.Transform.TransformInfoAtIndex(i)...)
	}
	return all
}

// SetVisualisations parses src as an ordered list of visualisation config
// lines and replaces the document's current visualisation list, then
// re-evaluates the pipeline against the current derived graph (spec
// §4.7). Like ApplyTransforms, independent line-parse failures are
// aggregated rather than short-circuited.
func (d *Document) SetVisualisations(src []string) error {
	configs, err := parseVisualisationConfigLines(src)
	if err != nil {
		return err
	}
	d.visualisations = configs
	d.EvaluateVisualisations()
	return nil
}

// EvaluateVisualisations re-runs the visualisation pipeline against the
// current derived graph without changing the configured list, for use
// after a Rebuild driven by transform changes (spec §4.7).
func (d *Document) EvaluateVisualisations() *visual.Output {
	target := d.Transform.Target()
	out := d.pipeline.Evaluate(d.visualisations, &visual.Source{
		Attributes:  d.Transform.Attributes(),
		NodeIDs:     target.NodeIDs(),
		EdgeIDs:     target.EdgeIDs(),
		ComponentOf: d.Transform.ComponentOf(),
		Graph:       target,
	})
	d.lastVisualOutput = out
	return out
}

// LastVisualOutput returns the most recent visualisation evaluation, or
// nil if EvaluateVisualisations has never run.
func (d *Document) LastVisualOutput() *visual.Output { return d.lastVisualOutput }

// Undo reverses the most recently executed command (spec §4.8), then
// re-evaluates visualisations in case the undone command changed the
// derived graph or an attribute.
func (d *Document) Undo() bool {
	ok := d.Commands.Undo()
	if ok {
		d.Transform.Rebuild()
		d.EvaluateVisualisations()
	}
	return ok
}

// Redo re-applies the most recently undone command (spec §4.8), then
// re-evaluates visualisations for the same reason as Undo.
func (d *Document) Redo() bool {
	ok := d.Commands.Redo()
	if ok {
		d.Transform.Rebuild()
		d.EvaluateVisualisations()
	}
	return ok
}

// MutateGraph groups a batch of direct graph mutations (node/edge
// add/remove, typically from a Loader) in one transaction, then
// invalidates the TransformedGraph's cache wholesale and rebuilds — the
// "source graph mutates outside a rebuild" path of spec §4.6, which the
// pipeline itself can never take since it only ever mutates a cloned
// target.
func (d *Document) MutateGraph(fn func(*graph.MutableGraph)) {
	d.Graph.PerformTransaction(fn)
	d.Transform.InvalidateSource()
	d.Transform.Rebuild()
	d.EvaluateVisualisations()
}

// CancelCommand cooperatively cancels the command currently executing, if
// any, and the Rebuild it may be driving (spec §5).
func (d *Document) CancelCommand() {
	d.Commands.CancelCommand()
	d.Transform.Cancel()
}

// afterAttributeCommand rebuilds from whatever cache entries the just-run
// attribute command invalidated and refreshes visualisations, since these
// commands only invalidate the cache (spec §4.6) without themselves
// re-running the transform pipeline.
func (d *Document) afterAttributeCommand() {
	d.Transform.Rebuild()
	d.EvaluateVisualisations()
}

// CloneAttribute executes a CloneAttributeCommand over the current
// attribute table and ids (spec §10).
func (d *Document) CloneAttribute(sourceName string, kind graphid.ElementKind) {
	ids := elementIDsOf(d.Transform.Target(), kind)
	cmd := command.NewCloneAttributeCommand(d.Transform, sourceName, ids)
	d.Commands.Execute(cmd, command.ExecutePolicyAdd)
	d.afterAttributeCommand()
}

// EditAttribute executes an EditAttributeCommand, collapsing into the
// prior edit of the same attribute if one is still on top of the undo
// stack (spec §10, CommandManager Replace policy).
func (d *Document) EditAttribute(name string, edit map[int32]string) {
	cmd := command.NewEditAttributeCommand(d.Transform, name, edit)
	d.Commands.Execute(cmd, command.ExecutePolicyReplace)
	d.afterAttributeCommand()
}

// RemoveAttributes executes a RemoveAttributesCommand.
func (d *Document) RemoveAttributes(names []string) {
	cmd := command.NewRemoveAttributesCommand(d.Transform, names)
	d.Commands.Execute(cmd, command.ExecutePolicyAdd)
	d.afterAttributeCommand()
}

// ImportAttributes executes an ImportAttributesCommand.
func (d *Document) ImportAttributes(kind graphid.ElementKind, values map[string]map[int32]string) {
	cmd := command.NewImportAttributesCommand(d.Transform, kind, values)
	d.Commands.Execute(cmd, command.ExecutePolicyAdd)
	d.afterAttributeCommand()
}

func elementIDsOf(g *graph.MutableGraph, kind graphid.ElementKind) []int32 {
	switch kind {
	case graphid.NodeKind:
		return toInt32s(g.NodeIDs())
	case graphid.EdgeKind:
		return toInt32sEdge(g.EdgeIDs())
	default:
		return nil
	}
}

func toInt32s(ids []graphid.NodeID) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id.Int())
	}
	return out
}

func toInt32sEdge(ids []graphid.EdgeID) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id.Int())
	}
	return out
}
