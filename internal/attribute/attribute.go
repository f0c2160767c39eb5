// Package attribute implements Graphia's type-erased element accessor
// model: a named function from element-id to value (int/float/string),
// with optional range, shared-value histogram, and parameterisation (spec
// §3, "Attribute").
package attribute

import (
	"math"
	"sort"
	"strconv"

	"github.com/graphia/graphia/internal/graphid"
)

// ValueType is the attribute's canonical storage type (spec §3).
type ValueType int

const (
	Int ValueType = iota
	Float
	String
)

func (t ValueType) String() string {
	switch t {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	default:
		return "Unknown"
	}
}

// Flag is one bit of an Attribute's behaviour flag set (spec §3).
type Flag int

const (
	AutoRange Flag = 1 << iota
	FindShared
	Searchable
	Dynamic
	DisableDuringTransform
	VisualiseByComponent
	UserDefined
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Range is an attribute's observed numeric range.
type Range struct {
	Min, Max float64
}

// SharedValue is one entry of a string attribute's sorted (value, count)
// histogram (spec §3, §4.2).
type SharedValue struct {
	Value string
	Count int
}

// Attribute is a type-erased element-id -> value accessor (spec §3). It is
// represented as a struct of closures rather than an interface hierarchy,
// per spec §9's guidance to avoid the virtual-dispatch-plus-generic-over-
// element-kind explosion the original C++ design suffers from.
type Attribute struct {
	Name        string
	Kind        graphid.ElementKind
	ValueType   ValueType
	Description string
	Parameter   string
	Flags       Flag

	IntFn     func(id int32) int64
	FloatFn   func(id int32) float64
	StringFn  func(id int32) string
	MissingFn func(id int32) bool

	rangeVal         *Range
	sharedValues     []SharedValue
	byComponentRange map[int32]*Range
	byComponentSV    map[int32][]SharedValue
}

func (a *Attribute) IntValueOf(id int32) int64       { return a.IntFn(id) }
func (a *Attribute) FloatValueOf(id int32) float64   { return a.FloatFn(id) }
func (a *Attribute) StringValueOf(id int32) string   { return a.StringFn(id) }
func (a *Attribute) ValueMissingOf(id int32) bool {
	if a.MissingFn == nil {
		return false
	}
	return a.MissingFn(id)
}

func (a *Attribute) Range() (Range, bool) {
	if a.rangeVal == nil {
		return Range{}, false
	}
	return *a.rangeVal, true
}

func (a *Attribute) RangeForComponent(c int32) (Range, bool) {
	if a.byComponentRange != nil {
		if r, ok := a.byComponentRange[c]; ok {
			return *r, true
		}
	}
	return a.Range()
}

func (a *Attribute) SharedValues() []SharedValue { return a.sharedValues }

func (a *Attribute) SharedValuesForComponent(c int32) []SharedValue {
	if a.byComponentSV != nil {
		if sv, ok := a.byComponentSV[c]; ok {
			return sv
		}
	}
	return a.sharedValues
}

// RecomputeRange recalculates the Min/Max over the given element ids.
// Component-scoped computation is used when VisualiseByComponent is set
// (spec §4.2); componentOf may be nil when the attribute is not
// component-scoped or components have not yet been assigned.
func (a *Attribute) RecomputeRange(ids []int32, componentOf func(int32) int32) {
	if !a.Flags.Has(AutoRange) {
		return
	}
	global := &Range{Min: math.Inf(1), Max: math.Inf(-1)}
	byComp := map[int32]*Range{}
	for _, id := range ids {
		if a.ValueMissingOf(id) {
			continue
		}
		v := a.FloatValueOf(id)
		extend(global, v)
		if a.Flags.Has(VisualiseByComponent) && componentOf != nil {
			c := componentOf(id)
			r, ok := byComp[c]
			if !ok {
				r = &Range{Min: math.Inf(1), Max: math.Inf(-1)}
				byComp[c] = r
			}
			extend(r, v)
		}
	}
	if global.Min > global.Max {
		*global = Range{}
	}
	a.rangeVal = global
	if len(byComp) > 0 {
		a.byComponentRange = byComp
	}
}

func extend(r *Range, v float64) {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
}

// RecomputeSharedValues rebuilds the sorted (value, count) histogram (spec
// §4.2). Sorted naturally (lexicographic then by first occurrence) so the
// visualisation pipeline can assign palette slots deterministically.
func (a *Attribute) RecomputeSharedValues(ids []int32, componentOf func(int32) int32) {
	if !a.Flags.Has(FindShared) {
		return
	}
	counts := map[string]int{}
	byComp := map[int32]map[string]int{}
	for _, id := range ids {
		if a.ValueMissingOf(id) {
			continue
		}
		v := a.StringValueOf(id)
		counts[v]++
		if a.Flags.Has(VisualiseByComponent) && componentOf != nil {
			c := componentOf(id)
			m, ok := byComp[c]
			if !ok {
				m = map[string]int{}
				byComp[c] = m
			}
			m[v]++
		}
	}
	a.sharedValues = sortedSharedValues(counts)
	if len(byComp) > 0 {
		a.byComponentSV = make(map[int32][]SharedValue, len(byComp))
		for c, m := range byComp {
			a.byComponentSV[c] = sortedSharedValues(m)
		}
	}
}

func sortedSharedValues(counts map[string]int) []SharedValue {
	out := make([]SharedValue, 0, len(counts))
	for v, c := range counts {
		out = append(out, SharedValue{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// ByDescendingFrequency returns a copy of values sorted by descending
// count (ties broken by natural order), for assignByQuantity visualisation
// flag (spec §4.3).
func ByDescendingFrequency(values []SharedValue) []SharedValue {
	out := append([]SharedValue(nil), values...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// parseNumber attempts to parse s as a number, used by the String
// attribute's int/float coercion (spec §4.2).
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
