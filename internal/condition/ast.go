// Package condition implements the Condition AST (spec §3) and its
// compiler (spec §4.4): turning a parsed boolean expression over attributes
// and literals into a monomorphic predicate closure over a concrete
// element kind.
package condition

import "fmt"

// ValueKind tags which alternative of the Value sum type is populated
// (spec §3: "Value := Float f64 | Int i64 | String (literal or
// $attribute-ref)").
type ValueKind int

const (
	VFloat ValueKind = iota
	VInt
	VString
)

// Value is a condition operand: either a numeric/string literal, or (when
// StrVal begins with "$") an attribute reference.
type Value struct {
	Kind     ValueKind
	FloatVal float64
	IntVal   int64
	StrVal   string
}

func Float(f float64) Value { return Value{Kind: VFloat, FloatVal: f} }
func Int(i int64) Value     { return Value{Kind: VInt, IntVal: i} }
func Str(s string) Value    { return Value{Kind: VString, StrVal: s} }

// IsAttributeRef reports whether this Value names an attribute ("$name...")
// rather than holding a literal string.
func (v Value) IsAttributeRef() bool {
	return v.Kind == VString && len(v.StrVal) > 0 && v.StrVal[0] == '$'
}

// AttributeName strips the leading "$" from an attribute-reference Value.
func (v Value) AttributeName() string {
	if !v.IsAttributeRef() {
		return ""
	}
	return v.StrVal[1:]
}

func (v Value) String() string {
	switch v.Kind {
	case VFloat:
		return fmt.Sprintf("%g", v.FloatVal)
	case VInt:
		return fmt.Sprintf("%d", v.IntVal)
	default:
		return v.StrVal
	}
}

// TerminalOp enumerates every binary comparison operator (spec §3).
type TerminalOp string

const (
	OpEQ                     TerminalOp = "=="
	OpNE                     TerminalOp = "!="
	OpLT                     TerminalOp = "<"
	OpGT                     TerminalOp = ">"
	OpLE                     TerminalOp = "<="
	OpGE                     TerminalOp = ">="
	OpIncludes               TerminalOp = "includes"
	OpExcludes               TerminalOp = "excludes"
	OpStarts                 TerminalOp = "starts"
	OpEnds                   TerminalOp = "ends"
	OpMatches                TerminalOp = "matches"
	OpMatchesCaseInsensitive TerminalOp = "matchesCaseInsensitive"
)

// IsNumerical reports whether op only makes sense for numeric comparison
// (spec §4.4: "applied to a string attribute with a numerical operator is
// rejected").
func (op TerminalOp) IsNumerical() bool {
	switch op {
	case OpLT, OpGT, OpLE, OpGE:
		return true
	default:
		return false
	}
}

func (op TerminalOp) IsString() bool {
	switch op {
	case OpIncludes, OpExcludes, OpStarts, OpEnds, OpMatches, OpMatchesCaseInsensitive:
		return true
	default:
		return false
	}
}

func (op TerminalOp) IsEquality() bool { return op == OpEQ || op == OpNE }

// reflected returns the numerical operator applied once a literal-first
// comparison is rewritten with the attribute on the LHS: < becomes >=,
// > becomes <=, <= becomes > and >= becomes <; other operators are
// returned unchanged (spec §4.4).
func (op TerminalOp) reflected() TerminalOp {
	switch op {
	case OpLT:
		return OpGE
	case OpGT:
		return OpLE
	case OpLE:
		return OpGT
	case OpGE:
		return OpLT
	default:
		return op
	}
}

// UnaryOp enumerates unary predicates (spec §3). hasValue is currently the
// only one.
type UnaryOp string

const OpHasValue UnaryOp = "hasValue"

// LogicalOp combines two sub-conditions (spec §3).
type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
)

// Node is the Condition sum type (spec §3): None | Terminal | Unary |
// Compound. It is a closed interface with an unexported marker method, the
// "tagged union with boxed recursive arm" representation called for by
// spec §9.
type Node interface {
	isConditionNode()
}

// None represents the absence of a condition (an empty whereClause).
type None struct{}

func (None) isConditionNode() {}

// Terminal is a binary comparison between two operands.
type Terminal struct {
	LHS, RHS Value
	Op       TerminalOp
}

func (Terminal) isConditionNode() {}

// Unary is a single-operand predicate.
type Unary struct {
	LHS Value
	Op  UnaryOp
}

func (Unary) isConditionNode() {}

// Compound combines two sub-conditions with a logical operator. RHS is
// boxed (stored as the Node interface) so the tree can recurse without a
// language-level recursive-variant construct (spec §9).
type Compound struct {
	LHS, RHS Node
	Op       LogicalOp
}

func (Compound) isConditionNode() {}
