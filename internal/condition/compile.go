package condition

import (
	"regexp"
	"strings"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/graphid"
)

// Resolver looks up an attribute by its canonical name (spec §4.2/§4.4).
// attribute.Table satisfies this.
type Resolver interface {
	Resolve(name string) (*attribute.Attribute, error)
}

// Predicate is a compiled condition: a monomorphic closure over one
// element kind.
type Predicate func(id int32) bool

// operand is a resolved Value: either a literal or an attribute.
type operand struct {
	attr    *attribute.Attribute
	literal Value
	isAttr  bool
}

// Compile compiles a Condition AST into a Predicate over the given element
// kind, or returns ok=false if the condition cannot apply to that kind
// under strict typing (spec §4.4). A nil node (or None{}) compiles to the
// always-true predicate, matching an absent whereClause.
func Compile(node Node, resolver Resolver, kind graphid.ElementKind) (Predicate, bool) {
	if node == nil {
		return func(int32) bool { return true }, true
	}
	switch n := node.(type) {
	case None:
		return func(int32) bool { return true }, true
	case Terminal:
		return compileTerminal(n, resolver, kind)
	case Unary:
		return compileUnary(n, resolver, kind)
	case Compound:
		lhs, ok := Compile(n.LHS, resolver, kind)
		if !ok {
			return nil, false
		}
		rhs, ok := Compile(n.RHS, resolver, kind)
		if !ok {
			return nil, false
		}
		switch n.Op {
		case OpAnd:
			return func(id int32) bool { return lhs(id) && rhs(id) }, true
		case OpOr:
			return func(id int32) bool { return lhs(id) || rhs(id) }, true
		default:
			return nil, false
		}
	default:
		return nil, false
	}
}

func resolveOperand(v Value, resolver Resolver, kind graphid.ElementKind) (operand, bool) {
	if v.IsAttributeRef() {
		attr, err := resolver.Resolve(v.AttributeName())
		if err != nil {
			return operand{}, false
		}
		if attr.Kind != kind {
			// Strict typing (spec §4.4): an operand whose attribute
			// element-kind doesn't match the target kind fails
			// compilation.
			return operand{}, false
		}
		return operand{attr: attr, isAttr: true}, true
	}
	return operand{literal: v}, true
}

func compileUnary(n Unary, resolver Resolver, kind graphid.ElementKind) (Predicate, bool) {
	op, ok := resolveOperand(n.LHS, resolver, kind)
	if !ok || !op.isAttr {
		return nil, false
	}
	if n.Op != OpHasValue {
		return nil, false
	}
	attr := op.attr
	return func(id int32) bool { return !attr.ValueMissingOf(id) }, true
}

func compileTerminal(n Terminal, resolver Resolver, kind graphid.ElementKind) (Predicate, bool) {
	lhs, ok := resolveOperand(n.LHS, resolver, kind)
	if !ok {
		return nil, false
	}
	rhs, ok := resolveOperand(n.RHS, resolver, kind)
	if !ok {
		return nil, false
	}

	switch {
	case lhs.isAttr && rhs.isAttr:
		return compileAttrAttr(lhs.attr, rhs.attr, n.Op)
	case lhs.isAttr && !rhs.isAttr:
		return compileAttrLiteral(lhs.attr, rhs.literal, n.Op)
	case !lhs.isAttr && rhs.isAttr:
		// Operands were written literal-first; numerical operators are
		// reflected so the attribute ends up on the LHS (spec §4.4).
		return compileAttrLiteral(rhs.attr, lhs.literal, n.Op.reflected())
	default:
		return compileLiteralLiteral(lhs.literal, rhs.literal, n.Op)
	}
}

func compileLiteralLiteral(lhs, rhs Value, op TerminalOp) (Predicate, bool) {
	result, ok := evalTerminal(lhs, rhs, op)
	if !ok {
		return nil, false
	}
	return func(int32) bool { return result }, true
}

func evalTerminal(lhs, rhs Value, op TerminalOp) (bool, bool) {
	if op.IsString() {
		return evalStringOp(lhs.String(), rhs.String(), op), true
	}
	if lhs.Kind == VString || rhs.Kind == VString {
		if op.IsNumerical() {
			return false, false
		}
		return evalEquality(lhs.String() == rhs.String(), op), true
	}
	lf, rf := literalFloat(lhs), literalFloat(rhs)
	return evalNumeric(lf, rf, op), true
}

func literalFloat(v Value) float64 {
	if v.Kind == VInt {
		return float64(v.IntVal)
	}
	return v.FloatVal
}

func evalEquality(eq bool, op TerminalOp) bool {
	if op == OpNE {
		return !eq
	}
	return eq
}

func evalNumeric(a, b float64, op TerminalOp) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

func evalStringOp(a, b string, op TerminalOp) bool {
	switch op {
	case OpIncludes:
		return strings.Contains(a, b)
	case OpExcludes:
		return !strings.Contains(a, b)
	case OpStarts:
		return strings.HasPrefix(a, b)
	case OpEnds:
		return strings.HasSuffix(a, b)
	case OpMatches:
		re, err := regexp.Compile(b)
		if err != nil {
			return false
		}
		return re.MatchString(a)
	case OpMatchesCaseInsensitive:
		re, err := regexp.Compile("(?i)" + b)
		if err != nil {
			return false
		}
		return re.MatchString(a)
	default:
		return false
	}
}

// compileAttrLiteral compiles an attribute-vs-constant comparison. op is
// the operator to apply as written -- the caller has already reflected it
// if the literal appeared first in the source condition.
func compileAttrLiteral(attr *attribute.Attribute, lit Value, op TerminalOp) (Predicate, bool) {
	if attr.ValueType == attribute.String && op.IsNumerical() {
		// spec §4.4: numerical operator against a string attribute is
		// rejected outright.
		return nil, false
	}
	if op.IsString() {
		litStr := lit.String()
		return func(id int32) bool {
			return evalStringOp(attr.StringValueOf(id), litStr, op)
		}, true
	}
	if attr.ValueType == attribute.String || lit.Kind == VString {
		litStr := lit.String()
		return func(id int32) bool {
			return evalEquality(attr.StringValueOf(id) == litStr, op)
		}, true
	}
	litVal := literalFloat(lit)
	return func(id int32) bool {
		return evalNumeric(attr.FloatValueOf(id), litVal, op)
	}, true
}

// compileAttrAttr compiles a comparison between two attributes. Two numeric
// attributes (Int or Float) compare numerically, whether or not their value
// types match; when either one is a String attribute, equality operators
// compare the string renderings and numerical operators fail to compile.
// For string operators both operands' own string renderings are
// used, correctly taking lhs and rhs independently (spec §9 flags a
// "suspicious" source bug where both were taken from lhs; this
// implementation keeps them distinct on purpose, verified by a dedicated
// test).
func compileAttrAttr(lhs, rhs *attribute.Attribute, op TerminalOp) (Predicate, bool) {
	if op.IsString() {
		return func(id int32) bool {
			return evalStringOp(lhs.StringValueOf(id), rhs.StringValueOf(id), op)
		}, true
	}
	if lhs.ValueType == attribute.String && op.IsNumerical() {
		return nil, false
	}
	if rhs.ValueType == attribute.String && op.IsNumerical() {
		return nil, false
	}
	if lhs.ValueType == rhs.ValueType && lhs.ValueType != attribute.String {
		return func(id int32) bool {
			return evalNumeric(lhs.FloatValueOf(id), rhs.FloatValueOf(id), op)
		}, true
	}
	if lhs.ValueType != attribute.String && rhs.ValueType != attribute.String {
		return func(id int32) bool {
			return evalNumeric(lhs.FloatValueOf(id), rhs.FloatValueOf(id), op)
		}, true
	}
	// Mismatched types: compare string renderings.
	return func(id int32) bool {
		return evalEquality(lhs.StringValueOf(id) == rhs.StringValueOf(id), op)
	}, true
}
