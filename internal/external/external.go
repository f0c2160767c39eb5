// Package external declares the collaborators the core pipeline treats as
// out-of-scope (spec §1: "file-format loaders/savers, rendering, layout
// algorithms, GUI, plugin discovery, preferences persistence, crash
// reporting, enrichment statistics, clipboard/CSV export"). The core never
// implements these; it only depends on the interfaces here, so a host
// application can supply real ones.
package external

import (
	"context"

	"github.com/graphia/graphia/internal/graphid"
)

// NodePosition is one entry of the persisted node-position array (spec
// §6).
type NodePosition struct {
	ID       graphid.NodeID
	Name     string
	Position [3]float64
}

// SavedState is the document state delegated to an external saver/loader
// (spec §6).
type SavedState struct {
	PluginName       string
	DataVersion      int
	Transforms       []string
	Visualisations   []string
	Bookmarks        map[string][]graphid.NodeID
	LayoutPaused     bool
	NodePositions    []NodePosition
	PluginBlob       []byte
	UIBlob           []byte
	EnrichmentTables [][]string
}

// Loader opens a graph file and the SavedState bundled with it (spec §6).
type Loader interface {
	// Open reads url, reporting the given plugin/type hints, and returns a
	// handle identifying the opened document.
	Open(ctx context.Context, url, typeTag, pluginName string, parameters map[string]string) (DocumentHandle, error)
	Cancel()
}

// DocumentHandle identifies a document opened by a Loader.
type DocumentHandle interface {
	State() (SavedState, error)
}

// Saver persists a document's state to a native or foreign format (spec
// §6).
type Saver interface {
	SaveFile(ctx context.Context, url, saverName string, state SavedState) error
}

// Renderer draws the derived graph; the core only notifies it of visual
// change, it never drives rendering itself.
type Renderer interface {
	InvalidateVisuals()
}

// LayoutEngine computes node positions; shared-text visualisation locks it
// while reading member-node positions for bounding-sphere centres (spec
// §4.7).
type LayoutEngine interface {
	Lock()
	Unlock()
	Paused() bool
	SetPaused(bool)
}

// PluginHost resolves plugin-specific transform/visualisation factories
// and content handlers discovered outside the core.
type PluginHost interface {
	PluginName() string
}

// PreferencesWatcher is notified of preference changes relevant to the
// pipeline, e.g. whether edge-text rendering is enabled (spec §4.7,
// "Edge Text Disabled" warning). Watchers are notified in registration
// order, serialised through a process-wide mutex (spec §5).
type PreferencesWatcher interface {
	EdgeTextEnabled() bool
	OnPreferenceChanged(key string, fn func())
}
