package command

import (
	"context"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graphid"
)

// AttributeInvalidator is the subset of TransformedGraph these commands
// need: the live attribute table, plus the hook that tells the cache which
// entries a persistent-attribute edit invalidates (spec §4.6, "External
// attribute change" — only a command, never a transform, can mutate a
// persistent attribute outside the rebuild pipeline).
type AttributeInvalidator interface {
	Attributes() *attribute.Table
	NotifyAttributeChangedExternally(name string) int
}

// valueStore is a mutable, element-id-keyed backing for a persistent
// attribute, as opposed to the derived closures a transform builds over a
// live graph. Commands own one of these per attribute they create or edit,
// and it is what makes Clone/Import/Edit/Remove independent of whatever
// produced the attribute they started from.
type valueStore struct {
	kind      graphid.ElementKind
	valueType attribute.ValueType
	ints      map[int32]int64
	floats    map[int32]float64
	strings   map[int32]string
}

func newValueStore(kind graphid.ElementKind, valueType attribute.ValueType) *valueStore {
	return &valueStore{kind: kind, valueType: valueType,
		ints: map[int32]int64{}, floats: map[int32]float64{}, strings: map[int32]string{}}
}

// snapshotValueStore captures src's current value for every id into a new,
// independent store (spec §10: CloneAttribute/ImportAttributes semantics).
func snapshotValueStore(src *attribute.Attribute, ids []int32) *valueStore {
	s := newValueStore(src.Kind, src.ValueType)
	for _, id := range ids {
		if src.ValueMissingOf(id) {
			continue
		}
		switch src.ValueType {
		case attribute.Int:
			s.ints[id] = src.IntValueOf(id)
		case attribute.Float:
			s.floats[id] = src.FloatValueOf(id)
		default:
			s.strings[id] = src.StringValueOf(id)
		}
	}
	return s
}

func (s *valueStore) clone() *valueStore {
	out := newValueStore(s.kind, s.valueType)
	for k, v := range s.ints {
		out.ints[k] = v
	}
	for k, v := range s.floats {
		out.floats[k] = v
	}
	for k, v := range s.strings {
		out.strings[k] = v
	}
	return out
}

// build constructs an *attribute.Attribute over s, marked neither Dynamic
// nor AutoRange/FindShared by default; callers that want a live range or
// shared-value histogram set those flags explicitly (recomputation happens
// on the next rebuild via TransformedGraph.recomputeAttributeStatistics).
func (s *valueStore) build(name string, flags attribute.Flag) *attribute.Attribute {
	b := attribute.NewBuilder(name, s.kind, s.valueType)
	switch s.valueType {
	case attribute.Int:
		b.IntValueFn(func(id int32) int64 { return s.ints[id] })
	case attribute.Float:
		b.FloatValueFn(func(id int32) float64 { return s.floats[id] })
	default:
		b.StringValueFn(func(id int32) string { return s.strings[id] })
	}
	b.MissingFn(func(id int32) bool {
		switch s.valueType {
		case attribute.Int:
			_, ok := s.ints[id]
			return !ok
		case attribute.Float:
			_, ok := s.floats[id]
			return !ok
		default:
			_, ok := s.strings[id]
			return !ok
		}
	})
	for _, f := range []attribute.Flag{attribute.AutoRange, attribute.FindShared, attribute.Searchable, attribute.UserDefined} {
		if flags.Has(f) {
			b.SetFlag(f)
		}
	}
	return b.Build()
}

// CloneAttributeCommand duplicates an existing attribute under a new name
// with its own independent value store, so later edits to the clone never
// affect the original (spec §10, grounded on
// original_source/.../cloneattributecommand.cpp).
type CloneAttributeCommand struct {
	Cancellable
	tg         AttributeInvalidator
	sourceName string
	newName    string
	ids        []int32

	installedName string
}

func NewCloneAttributeCommand(tg AttributeInvalidator, sourceName string, ids []int32) *CloneAttributeCommand {
	return &CloneAttributeCommand{Cancellable: NewCancellable(false), tg: tg, sourceName: sourceName, ids: ids}
}

func (c *CloneAttributeCommand) Description() string    { return "Clone of " + c.sourceName }
func (c *CloneAttributeCommand) Verb() string            { return "Cloning attribute" }
func (c *CloneAttributeCommand) PastParticiple() string  { return "Cloned attribute" }

func (c *CloneAttributeCommand) Execute(context.Context) bool {
	src, ok := c.tg.Attributes().Get(c.sourceName)
	if !ok {
		return false
	}
	store := snapshotValueStore(src, c.ids)
	built := store.build(c.sourceName+" (copy)", src.Flags&attribute.UserDefined)
	built.Description = "Clone of " + c.sourceName
	c.installedName = c.tg.Attributes().Add(built)
	c.tg.NotifyAttributeChangedExternally(c.installedName)
	return true
}

func (c *CloneAttributeCommand) Undo() {
	c.tg.Attributes().Remove(c.installedName)
	c.tg.NotifyAttributeChangedExternally(c.installedName)
}

// ImportAttributes brings in one or more externally sourced attributes
// (e.g. from a companion data file) as new persistent attributes (spec
// §10, grounded on original_source/.../importattributescommand.cpp).
type ImportAttributesCommand struct {
	Cancellable
	tg     AttributeInvalidator
	kind   graphid.ElementKind
	values map[string]map[int32]string // attribute name -> id -> raw string value

	installedNames []string
}

func NewImportAttributesCommand(tg AttributeInvalidator, kind graphid.ElementKind, values map[string]map[int32]string) *ImportAttributesCommand {
	return &ImportAttributesCommand{Cancellable: NewCancellable(false), tg: tg, kind: kind, values: values}
}

func (c *ImportAttributesCommand) Description() string   { return "Imported Attributes" }
func (c *ImportAttributesCommand) Verb() string           { return "Importing attributes" }
func (c *ImportAttributesCommand) PastParticiple() string { return "Imported attributes" }

func (c *ImportAttributesCommand) Execute(context.Context) bool {
	if len(c.values) == 0 {
		return false
	}
	for name, byID := range c.values {
		store := newValueStore(c.kind, attribute.String)
		for id, v := range byID {
			store.strings[id] = v
		}
		built := store.build(name, attribute.UserDefined|attribute.Searchable)
		installed := c.tg.Attributes().Add(built)
		c.installedNames = append(c.installedNames, installed)
		c.tg.NotifyAttributeChangedExternally(installed)
	}
	return true
}

func (c *ImportAttributesCommand) Undo() {
	for _, name := range c.installedNames {
		c.tg.Attributes().Remove(name)
		c.tg.NotifyAttributeChangedExternally(name)
	}
	c.installedNames = nil
}

// EditAttributeCommand overwrites values on an existing persistent
// attribute for a set of ids, keeping the prior values so Undo can restore
// them exactly (spec §10). Registered under ExecutePolicyReplace, so a run
// of edits to the same attribute collapses into the undo stack's single
// most recent entry via Replaces.
type EditAttributeCommand struct {
	Cancellable
	tg   AttributeInvalidator
	name string
	edit map[int32]string // new raw string values, keyed by element id

	prior map[int32]string
	had   map[int32]bool
}

func NewEditAttributeCommand(tg AttributeInvalidator, name string, edit map[int32]string) *EditAttributeCommand {
	return &EditAttributeCommand{Cancellable: NewCancellable(false), tg: tg, name: name, edit: edit}
}

func (c *EditAttributeCommand) Description() string   { return "Edit of " + c.name }
func (c *EditAttributeCommand) Verb() string           { return "Editing attribute" }
func (c *EditAttributeCommand) PastParticiple() string { return "Edited attribute" }

func (c *EditAttributeCommand) Execute(context.Context) bool {
	attr, ok := c.tg.Attributes().Get(c.name)
	if !ok {
		return false
	}
	c.prior = make(map[int32]string, len(c.edit))
	c.had = make(map[int32]bool, len(c.edit))
	for id := range c.edit {
		if !attr.ValueMissingOf(id) {
			c.prior[id] = attr.StringValueOf(id)
			c.had[id] = true
		}
	}
	c.applyLocked(attr, c.edit)
	c.tg.NotifyAttributeChangedExternally(c.name)
	return true
}

func (c *EditAttributeCommand) applyLocked(attr *attribute.Attribute, values map[int32]string) {
	// Edits are applied by re-pointing the attribute's StringFn/MissingFn
	// at a private overlay map, so the rest of the attribute (range,
	// shared values, other ids) is untouched.
	overlay := make(map[int32]string, len(values))
	present := make(map[int32]bool, len(values))
	for id, v := range values {
		overlay[id] = v
		present[id] = true
	}
	baseString := attr.StringFn
	baseMissing := attr.MissingFn
	attr.StringFn = func(id int32) string {
		if v, ok := overlay[id]; ok {
			return v
		}
		return baseString(id)
	}
	attr.MissingFn = func(id int32) bool {
		if present[id] {
			return false
		}
		return baseMissing(id)
	}
}

// Undo restores the values as they stood immediately before the first of
// whatever edits collapsed into this entry. It iterates c.prior, not
// c.edit: after Replaces merges a displaced edit's snapshot in, c.prior's
// keys are the union of every collapsed edit's ids, and restoring only
// c.edit's own ids would leave the displaced edit's ids un-reversed.
func (c *EditAttributeCommand) Undo() {
	attr, ok := c.tg.Attributes().Get(c.name)
	if !ok {
		return
	}
	restore := make(map[int32]string, len(c.prior))
	for id, v := range c.prior {
		if c.had[id] {
			restore[id] = v
		}
	}
	c.applyLocked(attr, restore)
	c.tg.NotifyAttributeChangedExternally(c.name)
}

// Replaces lets a second, immediate edit of the same attribute collapse
// into one undo entry: the new command inherits the first edit's "prior"
// snapshot for every id the first edit touched, so undoing the collapsed
// entry restores state from before the *first* edit, not just the second
// (spec §9: "replaces(prev) ... rejecting mismatched replacements is a
// programming error").
func (c *EditAttributeCommand) Replaces(prev Command) {
	p, ok := prev.(*EditAttributeCommand)
	if !ok || p.name != c.name {
		panic("command: EditAttributeCommand.Replaces called with a mismatched prior command")
	}
	for id := range p.edit {
		if !p.had[id] {
			delete(c.prior, id)
			delete(c.had, id)
		}
	}
	for id, v := range p.prior {
		c.prior[id] = v
		c.had[id] = p.had[id]
	}
}

// RemoveAttributesCommand drops one or more attributes from the table,
// keeping full copies so Undo can reinstate them exactly (spec §10).
type RemoveAttributesCommand struct {
	Cancellable
	tg    AttributeInvalidator
	names []string

	removed []*attribute.Attribute
}

func NewRemoveAttributesCommand(tg AttributeInvalidator, names []string) *RemoveAttributesCommand {
	return &RemoveAttributesCommand{Cancellable: NewCancellable(false), tg: tg, names: names}
}

func (c *RemoveAttributesCommand) Description() string   { return "Remove Attributes" }
func (c *RemoveAttributesCommand) Verb() string           { return "Removing attributes" }
func (c *RemoveAttributesCommand) PastParticiple() string { return "Removed attributes" }

func (c *RemoveAttributesCommand) Execute(context.Context) bool {
	c.removed = c.removed[:0]
	for _, name := range c.names {
		if a, ok := c.tg.Attributes().Get(name); ok {
			c.removed = append(c.removed, a)
		}
	}
	if len(c.removed) == 0 {
		return false
	}
	for _, a := range c.removed {
		c.tg.Attributes().Remove(a.Name)
		c.tg.NotifyAttributeChangedExternally(a.Name)
	}
	return true
}

func (c *RemoveAttributesCommand) Undo() {
	for _, a := range c.removed {
		c.tg.Attributes().Add(a)
		c.tg.NotifyAttributeChangedExternally(a.Name)
	}
}
