// Package transformconfig implements the textual transform and
// visualisation configuration languages (spec §4.3, §6): parsing a line
// into a structured config, and rendering a config back to its
// user-facing display form.
package transformconfig

import (
	"sort"

	"github.com/graphia/graphia/internal/condition"
)

// Recognised transform flags (spec §3).
const (
	FlagDisabled  = "disabled"
	FlagRepeating = "repeating"
	FlagPinned    = "pinned"
	FlagLocked    = "locked"
)

// Recognised visualisation flags (spec §3).
const (
	VisFlagDisabled         = "disabled"
	VisFlagInvert           = "invert"
	VisFlagComponent        = "component"
	VisFlagAssignByQuantity = "assignByQuantity"
)

// inertFlags are ignored when comparing two transform configs for effect
// equivalence (spec §3, §9: "the transform-equality check ignores locked
// and pinned by default").
var inertFlags = map[string]bool{
	FlagLocked: true,
	FlagPinned: true,
}

// Parameter is one "name = value" pair from a withClause (spec §4.3).
type Parameter struct {
	Name  string
	Value condition.Value
}

// TransformConfig is the parsed form of one transform line (spec §3).
type TransformConfig struct {
	Flags         []string
	Action        string
	AttributeRefs []string
	Parameters    []Parameter
	Condition     condition.Node
}

// HasFlag reports whether flag is present among c's flags.
func (c *TransformConfig) HasFlag(flag string) bool {
	return hasFlag(c.Flags, flag)
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// EffectEquivalent reports whether c and other represent the same
// transform invocation, ignoring the inert locked/pinned flags (spec §3,
// §9).
func (c *TransformConfig) EffectEquivalent(other *TransformConfig) bool {
	if c.Action != other.Action {
		return false
	}
	if !sameFlagSet(significantFlags(c.Flags), significantFlags(other.Flags)) {
		return false
	}
	if !sameStringSlice(c.AttributeRefs, other.AttributeRefs) {
		return false
	}
	if !sameParameters(c.Parameters, other.Parameters) {
		return false
	}
	return conditionsEqual(c.Condition, other.Condition)
}

func significantFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if !inertFlags[f] {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func sameFlagSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameParameters(a, b []Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

// ReferencedAttributeNames returns every attribute name this config reads,
// from both its usingClause and any $-references inside its whereClause
// (spec §4.6: "invalidates every cache entry whose referenced attribute
// set contains that name").
func (c *TransformConfig) ReferencedAttributeNames() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, ref := range c.AttributeRefs {
		add(ref)
	}
	walkConditionAttributeRefs(c.Condition, add)
	return out
}

func walkConditionAttributeRefs(n condition.Node, add func(string)) {
	switch v := n.(type) {
	case condition.Terminal:
		if v.LHS.IsAttributeRef() {
			add(v.LHS.AttributeName())
		}
		if v.RHS.IsAttributeRef() {
			add(v.RHS.AttributeName())
		}
	case condition.Unary:
		if v.LHS.IsAttributeRef() {
			add(v.LHS.AttributeName())
		}
	case condition.Compound:
		walkConditionAttributeRefs(v.LHS, add)
		walkConditionAttributeRefs(v.RHS, add)
	}
}

func conditionsEqual(a, b condition.Node) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case condition.None:
		_, ok := b.(condition.None)
		return ok
	case condition.Terminal:
		bv, ok := b.(condition.Terminal)
		return ok && av == bv
	case condition.Unary:
		bv, ok := b.(condition.Unary)
		return ok && av == bv
	case condition.Compound:
		bv, ok := b.(condition.Compound)
		return ok && av.Op == bv.Op && conditionsEqual(av.LHS, bv.LHS) && conditionsEqual(av.RHS, bv.RHS)
	default:
		return false
	}
}

// VisualisationConfig is the parsed form of one visualisation line (spec
// §3).
type VisualisationConfig struct {
	Flags         []string
	AttributeName string
	Channel       string
	Parameters    []Parameter
}

func (c *VisualisationConfig) HasFlag(flag string) bool {
	return hasFlag(c.Flags, flag)
}
