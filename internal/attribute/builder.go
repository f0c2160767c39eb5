package attribute

import (
	"strconv"

	"github.com/graphia/graphia/internal/graphid"
)

// Builder constructs an Attribute, deriving the int/float/string accessors
// that weren't explicitly supplied from the one that was, following the
// type-coercion rules of spec §4.2:
//
//   - an Int attribute renders its raw int as a string and widens it to float64
//   - a Float attribute renders with general formatting and narrows
//     (truncating toward zero) to int64 on demand
//   - a String attribute returns 0 for int/float unless the string parses as
//     a number, in which case the parsed value is used
type Builder struct {
	a *Attribute
}

// NewBuilder starts building an attribute of the given element kind and
// value type.
func NewBuilder(name string, kind graphid.ElementKind, valueType ValueType) *Builder {
	return &Builder{a: &Attribute{Name: name, Kind: kind, ValueType: valueType}}
}

func (b *Builder) Description(d string) *Builder { b.a.Description = d; return b }
func (b *Builder) Parameter(p string) *Builder    { b.a.Parameter = p; return b }
func (b *Builder) SetFlag(f Flag) *Builder        { b.a.Flags |= f; return b }

func (b *Builder) IntValueFn(fn func(int32) int64) *Builder {
	b.a.IntFn = fn
	return b
}

func (b *Builder) FloatValueFn(fn func(int32) float64) *Builder {
	b.a.FloatFn = fn
	return b
}

func (b *Builder) StringValueFn(fn func(int32) string) *Builder {
	b.a.StringFn = fn
	return b
}

func (b *Builder) MissingFn(fn func(int32) bool) *Builder {
	b.a.MissingFn = fn
	return b
}

// Build finalizes the attribute, deriving any accessor that wasn't
// explicitly set from the canonical one implied by ValueType.
func (b *Builder) Build() *Attribute {
	a := b.a
	switch a.ValueType {
	case Int:
		if a.IntFn == nil {
			panic("attribute: Int attribute built without IntValueFn")
		}
		if a.FloatFn == nil {
			intFn := a.IntFn
			a.FloatFn = func(id int32) float64 { return float64(intFn(id)) }
		}
		if a.StringFn == nil {
			intFn := a.IntFn
			a.StringFn = func(id int32) string { return strconv.FormatInt(intFn(id), 10) }
		}
	case Float:
		if a.FloatFn == nil {
			panic("attribute: Float attribute built without FloatValueFn")
		}
		if a.IntFn == nil {
			floatFn := a.FloatFn
			a.IntFn = func(id int32) int64 { return int64(floatFn(id)) }
		}
		if a.StringFn == nil {
			floatFn := a.FloatFn
			a.StringFn = func(id int32) string { return formatFloat(floatFn(id)) }
		}
	case String:
		if a.StringFn == nil {
			panic("attribute: String attribute built without StringValueFn")
		}
		if a.FloatFn == nil {
			strFn := a.StringFn
			a.FloatFn = func(id int32) float64 {
				if f, ok := parseNumber(strFn(id)); ok {
					return f
				}
				return 0
			}
		}
		if a.IntFn == nil {
			strFn := a.StringFn
			a.IntFn = func(id int32) int64 {
				if f, ok := parseNumber(strFn(id)); ok {
					return int64(f)
				}
				return 0
			}
		}
	}
	if a.MissingFn == nil {
		a.MissingFn = func(int32) bool { return false }
	}
	return a
}
