package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/attribute"
	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/graphid"
)

func newTestTable() *attribute.Table {
	return attribute.NewTable(func(int32) (int32, int32) { return 0, 0 })
}

func mustAdd(t *testing.T, tbl *attribute.Table, a *attribute.Attribute) string {
	t.Helper()
	return tbl.Add(a)
}

// Regression test for spec §9's documented "suspicious source behaviour":
// a string-op comparison between two distinct string attributes must read
// its right-hand operand from rhs, not silently re-read lhs twice.
func TestCompileAttrAttr_StringOp_DistinctOperands(t *testing.T) {
	tbl := newTestTable()

	cityOf := map[int32]string{1: "London", 2: "Paris"}
	countryOf := map[int32]string{1: "Lon", 2: "Berlin"}

	mustAdd(t, tbl, attribute.NewBuilder("City", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return cityOf[id] }).
		Build())
	mustAdd(t, tbl, attribute.NewBuilder("Country", graphid.NodeKind, attribute.String).
		StringValueFn(func(id int32) string { return countryOf[id] }).
		Build())

	ast := condition.Terminal{
		LHS: condition.Str("$City"),
		RHS: condition.Str("$Country"),
		Op:  condition.OpStarts,
	}

	pred, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	require.True(t, ok)

	// "London" starts with "Lon": true.
	assert.True(t, pred(1))
	// "Paris" does not start with "Berlin": false. If the compiler had
	// mistakenly reused lhs for both operands ("Paris".starts("Paris")),
	// this would wrongly come back true.
	assert.False(t, pred(2))
}

func TestCompileTerminal_LiteralFirstReflectsNumericalOp(t *testing.T) {
	tbl := newTestTable()
	ages := map[int32]int64{1: 10, 2: 30}
	mustAdd(t, tbl, attribute.NewBuilder("Age", graphid.NodeKind, attribute.Int).
		IntValueFn(func(id int32) int64 { return ages[id] }).
		Build())

	// "20 < $Age" is reflected to Age >= 20.
	ast := condition.Terminal{
		LHS: condition.Int(20),
		RHS: condition.Str("$Age"),
		Op:  condition.OpLT,
	}
	pred, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	require.True(t, ok)

	assert.False(t, pred(1)) // 20 < 10 is false
	assert.True(t, pred(2))  // 20 < 30 is true
}

func TestCompileTerminal_RejectsNumericalOpOnStringAttribute(t *testing.T) {
	tbl := newTestTable()
	mustAdd(t, tbl, attribute.NewBuilder("Name", graphid.NodeKind, attribute.String).
		StringValueFn(func(int32) string { return "x" }).
		Build())

	ast := condition.Terminal{
		LHS: condition.Str("$Name"),
		RHS: condition.Int(5),
		Op:  condition.OpGT,
	}
	_, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	assert.False(t, ok)
}

func TestCompileTerminal_UnknownAttributeFailsCompile(t *testing.T) {
	tbl := newTestTable()
	ast := condition.Terminal{
		LHS: condition.Str("$Nope"),
		RHS: condition.Int(1),
		Op:  condition.OpEQ,
	}
	_, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	assert.False(t, ok)
}

func TestCompileTerminal_MismatchedElementKindFailsCompile(t *testing.T) {
	tbl := newTestTable()
	mustAdd(t, tbl, attribute.NewBuilder("Weight", graphid.EdgeKind, attribute.Float).
		FloatValueFn(func(int32) float64 { return 1 }).
		Build())

	ast := condition.Terminal{
		LHS: condition.Str("$Weight"),
		RHS: condition.Float(1),
		Op:  condition.OpEQ,
	}
	// Weight is an edge attribute; compiling against NodeKind must fail.
	_, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	assert.False(t, ok)
}

func TestCompileUnary_HasValue(t *testing.T) {
	tbl := newTestTable()
	missing := map[int32]bool{1: true, 2: false}
	mustAdd(t, tbl, attribute.NewBuilder("Score", graphid.NodeKind, attribute.Float).
		FloatValueFn(func(int32) float64 { return 0 }).
		MissingFn(func(id int32) bool { return missing[id] }).
		Build())

	ast := condition.Unary{LHS: condition.Str("$Score"), Op: condition.OpHasValue}
	pred, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	require.True(t, ok)

	assert.False(t, pred(1))
	assert.True(t, pred(2))
}

func TestCompileCompound_AndShortCircuitsOnCompileFailure(t *testing.T) {
	tbl := newTestTable()
	ast := condition.Compound{
		LHS: condition.Terminal{LHS: condition.Int(1), RHS: condition.Int(1), Op: condition.OpEQ},
		RHS: condition.Terminal{LHS: condition.Str("$Missing"), RHS: condition.Int(1), Op: condition.OpEQ},
		Op:  condition.OpAnd,
	}
	_, ok := condition.Compile(ast, tbl, graphid.NodeKind)
	assert.False(t, ok)
}

func TestCompileNone_AlwaysTrue(t *testing.T) {
	tbl := newTestTable()
	pred, ok := condition.Compile(condition.None{}, tbl, graphid.NodeKind)
	require.True(t, ok)
	assert.True(t, pred(42))
}
