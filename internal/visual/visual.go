// Package visual implements the visualisation pipeline (spec §4.7):
// mapping attribute values onto per-element visual channels, detecting
// when one visualisation's effect is hidden by a later one on the same
// channel, and producing shared-text labels from a component-scoped
// contraction of the live graph.
package visual

// Kind names a visualisation channel (spec §4.7: "polymorphic over
// {colour, size, text, text-colour, text-size, shared-text}").
type Kind string

const (
	ColourChannel     Kind = "colour"
	SizeChannel       Kind = "size"
	TextChannel       Kind = "text"
	TextColourChannel Kind = "text-colour"
	TextSizeChannel   Kind = "text-size"
	SharedTextChannel Kind = "shared-text"
)

// ElementVisual accumulates the visual outputs applied to one graph
// element across every visualisation that touches it. Later
// visualisations simply overwrite a field a prior one set, which is what
// makes the override-detection pass in pipeline.go purely advisory: the
// actual "only the later one wins" behaviour falls out of sequential
// application (spec §4.7, scenario 5: "applies only index 1's colours").
type ElementVisual struct {
	Colour     string
	Size       float64
	Text       string
	TextColour string
	TextSize   float64
}

// MappingKind is a numeric-value remapping curve (spec §4.7, "feed
// through a user-supplied mapping (exponent, linear, logistic)").
type MappingKind string

const (
	MappingLinear   MappingKind = "linear"
	MappingExponent MappingKind = "exponent"
	MappingLogistic MappingKind = "logistic"
)
