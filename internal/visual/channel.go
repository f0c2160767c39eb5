package visual

import (
	"fmt"

	"github.com/graphia/graphia/internal/graphid"
)

// defaultPalette is a small, fixed colour set for categorical channels,
// assigned in shared-value order (natural or by-quantity). A real host
// would substitute its own theme; this is the one the pipeline falls back
// to absent a caller override.
var defaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Channel is a visualisation output, represented (like Attribute) as a
// struct of closures rather than an interface hierarchy, for the same
// reason: avoiding a virtual-dispatch-times-value-type explosion across
// six channels and three value types.
type Channel struct {
	Kind Kind

	elementKinds []graphid.ElementKind
	requiresRange bool
	allowsMapping bool
	isText        bool

	// applyNumeric paints the channel's field. Channels that require a
	// range receive a value already normalised to [0, 1] (range + invert +
	// mapping all applied); the text channel receives the raw value.
	applyNumeric func(t float64, v *ElementVisual, params Parameters)
	// applyCategorical receives the value's assigned palette slot.
	applyCategorical func(slot, slotCount int, value string, v *ElementVisual, params Parameters)
}

func (c *Channel) AppliesTo(kind graphid.ElementKind) bool {
	for _, k := range c.elementKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (c *Channel) RequiresRange() bool { return c.requiresRange }
func (c *Channel) AllowsMapping() bool { return c.allowsMapping }
func (c *Channel) IsText() bool        { return c.isText }

// Parameters is a visualisation's resolved `with` clause, with typed
// accessors and channel-specific defaults.
type Parameters struct {
	values map[string]float64
}

func newParameters(defaults map[string]float64, raw map[string]float64) Parameters {
	p := Parameters{values: make(map[string]float64, len(defaults))}
	for k, v := range defaults {
		p.values[k] = v
	}
	for k, v := range raw {
		p.values[k] = v
	}
	return p
}

func (p Parameters) Float(name string, fallback float64) float64 {
	if v, ok := p.values[name]; ok {
		return v
	}
	return fallback
}

func paletteSlotColour(palette []string, slot int) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[slot%len(palette)]
}

// StandardChannels returns the five directly-mappable channels; shared-text
// is handled separately by evaluateSharedText (pipeline.go) because it
// produces per-component labels rather than per-element field writes.
func StandardChannels() map[Kind]*Channel {
	nodeAndEdge := []graphid.ElementKind{graphid.NodeKind, graphid.EdgeKind}

	colour := &Channel{
		Kind:          ColourChannel,
		elementKinds:  nodeAndEdge,
		requiresRange: true,
		allowsMapping: true,
		applyNumeric: func(t float64, v *ElementVisual, params Parameters) {
			v.Colour = paletteSlotColour(defaultPalette, int(t*float64(len(defaultPalette)-1)+0.5))
		},
		applyCategorical: func(slot, slotCount int, value string, v *ElementVisual, params Parameters) {
			v.Colour = paletteSlotColour(defaultPalette, slot)
		},
	}

	size := &Channel{
		Kind:          SizeChannel,
		elementKinds:  nodeAndEdge,
		requiresRange: true,
		allowsMapping: true,
		applyNumeric: func(t float64, v *ElementVisual, params Parameters) {
			min := params.Float("minSize", 1.0)
			max := params.Float("maxSize", 10.0)
			v.Size = min + t*(max-min)
		},
		applyCategorical: func(slot, slotCount int, value string, v *ElementVisual, params Parameters) {
			min := params.Float("minSize", 1.0)
			max := params.Float("maxSize", 10.0)
			if slotCount <= 1 {
				v.Size = max
				return
			}
			v.Size = min + (float64(slot)/float64(slotCount-1))*(max-min)
		},
	}

	text := &Channel{
		Kind:         TextChannel,
		elementKinds: nodeAndEdge,
		isText:       true,
		applyNumeric: func(t float64, v *ElementVisual, params Parameters) {
			v.Text = fmt.Sprintf("%.3g", t)
		},
		applyCategorical: func(slot, slotCount int, value string, v *ElementVisual, params Parameters) {
			v.Text = value
		},
	}

	textColour := &Channel{
		Kind:          TextColourChannel,
		elementKinds:  nodeAndEdge,
		requiresRange: true,
		allowsMapping: true,
		isText:        true,
		applyNumeric: func(t float64, v *ElementVisual, params Parameters) {
			v.TextColour = paletteSlotColour(defaultPalette, int(t*float64(len(defaultPalette)-1)+0.5))
		},
		applyCategorical: func(slot, slotCount int, value string, v *ElementVisual, params Parameters) {
			v.TextColour = paletteSlotColour(defaultPalette, slot)
		},
	}

	textSize := &Channel{
		Kind:          TextSizeChannel,
		elementKinds:  nodeAndEdge,
		requiresRange: true,
		allowsMapping: true,
		isText:        true,
		applyNumeric: func(t float64, v *ElementVisual, params Parameters) {
			min := params.Float("minTextSize", 8.0)
			max := params.Float("maxTextSize", 24.0)
			v.TextSize = min + t*(max-min)
		},
		applyCategorical: func(slot, slotCount int, value string, v *ElementVisual, params Parameters) {
			min := params.Float("minTextSize", 8.0)
			max := params.Float("maxTextSize", 24.0)
			if slotCount <= 1 {
				v.TextSize = max
				return
			}
			v.TextSize = min + (float64(slot)/float64(slotCount-1))*(max-min)
		},
	}

	return map[Kind]*Channel{
		ColourChannel:     colour,
		SizeChannel:       size,
		TextChannel:       text,
		TextColourChannel: textColour,
		TextSizeChannel:   textSize,
	}
}
