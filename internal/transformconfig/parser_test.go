package transformconfig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/transformconfig"
)

func TestParseTransformConfig_FullClauseSet(t *testing.T) {
	src := `[disabled, repeating] "Remove Edges" using $"Edge Weight" with "k" = 2 "ratio" = 0.5 "label" = "x" where $"Edge Weight" < 0.5`
	cfg, diags := transformconfig.ParseTransformConfig(src)
	require.False(t, diags.HasErrors(), "%v", diags)

	assert.ElementsMatch(t, []string{"disabled", "repeating"}, cfg.Flags)
	assert.Equal(t, "Remove Edges", cfg.Action)
	assert.Equal(t, []string{"Edge Weight"}, cfg.AttributeRefs)
	require.Len(t, cfg.Parameters, 3)
	assert.Equal(t, "k", cfg.Parameters[0].Name)
	assert.Equal(t, condition.Int(2), cfg.Parameters[0].Value)
	assert.Equal(t, condition.Float(0.5), cfg.Parameters[1].Value)
	assert.Equal(t, condition.Str("x"), cfg.Parameters[2].Value)

	term, ok := cfg.Condition.(condition.Terminal)
	require.True(t, ok)
	assert.Equal(t, condition.OpLT, term.Op)
	assert.True(t, term.LHS.IsAttributeRef())
	assert.Equal(t, "Edge Weight", term.LHS.AttributeName())
}

func TestParseTransformConfig_BareActionNoClauses(t *testing.T) {
	cfg, diags := transformconfig.ParseTransformConfig(`"MST"`)
	require.False(t, diags.HasErrors())
	assert.Equal(t, "MST", cfg.Action)
	assert.Empty(t, cfg.Flags)
	assert.Empty(t, cfg.AttributeRefs)
	assert.Empty(t, cfg.Parameters)
	assert.Nil(t, cfg.Condition)
}

func TestParseTransformConfig_CompoundCondition(t *testing.T) {
	cfg, diags := transformconfig.ParseTransformConfig(
		`"Remove" where $"A" > 1 and $"B" hasValue`)
	require.False(t, diags.HasErrors(), "%v", diags)

	compound, ok := cfg.Condition.(condition.Compound)
	require.True(t, ok)
	assert.Equal(t, condition.OpAnd, compound.Op)

	_, ok = compound.LHS.(condition.Terminal)
	assert.True(t, ok)
	_, ok = compound.RHS.(condition.Unary)
	assert.True(t, ok)
}

func TestParseTransformConfig_ParenthesisedCondition(t *testing.T) {
	cfg, diags := transformconfig.ParseTransformConfig(
		`"Remove" where ($"A" == 1 or $"A" == 2) and $"B" hasValue`)
	require.False(t, diags.HasErrors(), "%v", diags)

	outer, ok := cfg.Condition.(condition.Compound)
	require.True(t, ok)
	assert.Equal(t, condition.OpAnd, outer.Op)
	_, ok = outer.LHS.(condition.Compound)
	assert.True(t, ok)
}

func TestParseTransformConfig_LiteralFirstNumericalOperand(t *testing.T) {
	cfg, diags := transformconfig.ParseTransformConfig(`"X" where 5 < $"Age"`)
	require.False(t, diags.HasErrors())
	term := cfg.Condition.(condition.Terminal)
	assert.Equal(t, condition.Int(5), term.LHS)
	assert.True(t, term.RHS.IsAttributeRef())
}

func TestParseTransformConfig_UnterminatedStringIsAnError(t *testing.T) {
	_, diags := transformconfig.ParseTransformConfig(`"Remove" where $"A`)
	assert.True(t, diags.HasErrors())
}

func TestParseTransformConfig_StringOpOnUnknownKeywordFails(t *testing.T) {
	_, diags := transformconfig.ParseTransformConfig(`"X" where $"A" frobnicate $"B"`)
	assert.True(t, diags.HasErrors())
}

func TestParseVisualisationConfig(t *testing.T) {
	cfg, diags := transformconfig.ParseVisualisationConfig(
		`[invert] $"Betweenness" "colour" with "gamma" = 2.2`)
	require.False(t, diags.HasErrors(), "%v", diags)
	assert.Equal(t, []string{"invert"}, cfg.Flags)
	assert.Equal(t, "Betweenness", cfg.AttributeName)
	assert.Equal(t, "colour", cfg.Channel)
	require.Len(t, cfg.Parameters, 1)
	assert.Equal(t, condition.Float(2.2), cfg.Parameters[0].Value)
}

func TestTransformConfig_RoundTripPreservesEffect(t *testing.T) {
	src := `[repeating] "Remove Edges" using $"Edge Weight" with "k" = 2 where $"Edge Weight" < 0.5`
	cfg, diags := transformconfig.ParseTransformConfig(src)
	require.False(t, diags.HasErrors())

	again, diags := transformconfig.ParseTransformConfig(cfg.AsString())
	require.False(t, diags.HasErrors(), "%v", diags)
	assert.True(t, cfg.EffectEquivalent(again))
}

func TestTransformConfig_EffectEquivalentIgnoresInertFlags(t *testing.T) {
	a, diags := transformconfig.ParseTransformConfig(`[locked] "X"`)
	require.False(t, diags.HasErrors())
	b, diags := transformconfig.ParseTransformConfig(`[pinned] "X"`)
	require.False(t, diags.HasErrors())
	assert.True(t, a.EffectEquivalent(b))
}

func TestTransformConfig_EffectEquivalentFalseOnDifferentAction(t *testing.T) {
	a, _ := transformconfig.ParseTransformConfig(`"X"`)
	b, _ := transformconfig.ParseTransformConfig(`"Y"`)
	assert.False(t, a.EffectEquivalent(b))
}

func TestPrettyOp(t *testing.T) {
	assert.Equal(t, "=", transformconfig.PrettyOp(condition.OpEQ))
	assert.Equal(t, "Matches Regex", transformconfig.PrettyOp(condition.OpMatches))
}
