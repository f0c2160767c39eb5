package transformconfig

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/graphia/graphia/internal/condition"
)

var attributeIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var prettyTerminalOp = map[condition.TerminalOp]string{
	condition.OpEQ:                     "=",
	condition.OpNE:                     "!=",
	condition.OpLT:                     "<",
	condition.OpGT:                     ">",
	condition.OpLE:                     "<=",
	condition.OpGE:                     ">=",
	condition.OpIncludes:               "Includes",
	condition.OpExcludes:               "Excludes",
	condition.OpStarts:                 "Starts With",
	condition.OpEnds:                   "Ends With",
	condition.OpMatches:                "Matches Regex",
	condition.OpMatchesCaseInsensitive: "Matches Regex (case insensitive)",
}

// PrettyOp renders a terminal operator in its UI display form (spec §4.3).
func PrettyOp(op condition.TerminalOp) string {
	if s, ok := prettyTerminalOp[op]; ok {
		return s
	}
	return string(op)
}

// AsString renders c back to its canonical textual form (spec §4.3). For
// any valid config, ParseTransformConfig(AsString(c)) is effect-equivalent
// to c (spec §8, "round-trip of config parsing").
func (c *TransformConfig) AsString() string {
	var b strings.Builder
	writeFlags(&b, c.Flags)
	b.WriteString(quoteName(c.Action))
	if len(c.AttributeRefs) > 0 {
		b.WriteString(" using ")
		parts := make([]string, len(c.AttributeRefs))
		for i, ref := range c.AttributeRefs {
			parts[i] = "$" + quoteName(ref)
		}
		b.WriteString(strings.Join(parts, " "))
	}
	if len(c.Parameters) > 0 {
		b.WriteString(" with ")
		b.WriteString(formatParameters(c.Parameters))
	}
	if c.Condition != nil {
		if _, isNone := c.Condition.(condition.None); !isNone {
			b.WriteString(" where ")
			b.WriteString(conditionAsString(c.Condition))
		}
	}
	return b.String()
}

// AsString renders c back to its canonical textual form (spec §6).
func (c *VisualisationConfig) AsString() string {
	var b strings.Builder
	writeFlags(&b, c.Flags)
	fmt.Fprintf(&b, "$%s %s", quoteName(c.AttributeName), quoteName(c.Channel))
	if len(c.Parameters) > 0 {
		b.WriteString(" with ")
		b.WriteString(formatParameters(c.Parameters))
	}
	return b.String()
}

func writeFlags(b *strings.Builder, flags []string) {
	if len(flags) == 0 {
		return
	}
	b.WriteByte('[')
	b.WriteString(strings.Join(flags, ", "))
	b.WriteString("] ")
}

func formatParameters(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s = %s", quoteName(p.Name), formatValueLiteral(p.Value))
	}
	return strings.Join(parts, " ")
}

func formatValueLiteral(v condition.Value) string {
	switch v.Kind {
	case condition.VInt:
		return strconv.FormatInt(v.IntVal, 10)
	case condition.VFloat:
		return formatStrictDouble(v.FloatVal)
	default:
		return quoteName(v.StrVal)
	}
}

// formatStrictDouble always keeps a decimal point, matching the parser's
// requirement that double literals have one (spec §4.3).
func formatStrictDouble(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quoteName quotes name if it doesn't match the bare identifier grammar,
// escaping embedded quotes.
func quoteName(name string) string {
	if attributeIdentRe.MatchString(name) {
		return name
	}
	escaped := strings.ReplaceAll(name, `"`, `\"`)
	return `"` + escaped + `"`
}

func conditionAsString(n condition.Node) string {
	switch v := n.(type) {
	case condition.None:
		return ""
	case condition.Terminal:
		return fmt.Sprintf("%s %s %s", valueAsString(v.LHS), string(v.Op), valueAsString(v.RHS))
	case condition.Unary:
		return fmt.Sprintf("%s %s", valueAsString(v.LHS), string(v.Op))
	case condition.Compound:
		return fmt.Sprintf("(%s) %s (%s)", conditionAsString(v.LHS), string(v.Op), conditionAsString(v.RHS))
	default:
		return ""
	}
}

func valueAsString(v condition.Value) string {
	if v.IsAttributeRef() {
		return "$" + quoteName(v.AttributeName())
	}
	return formatValueLiteral(v)
}

// DisplayAttributeName renders an attribute reference in its UI label form
// (spec §4.3: "Source › Name", "Target › Name", "Name › Parameter"),
// given the attribute's already-resolved display parts.
func DisplayAttributeName(edgeNodePrefix, name, parameter string) string {
	parts := []string{}
	switch edgeNodePrefix {
	case "source":
		parts = append(parts, "Source")
	case "target":
		parts = append(parts, "Target")
	}
	parts = append(parts, name)
	if parameter != "" {
		parts = append(parts, parameter)
	}
	return strings.Join(parts, " › ")
}

// SortFlags returns a copy of flags in canonical display order.
func SortFlags(flags []string) []string {
	out := append([]string(nil), flags...)
	sort.Strings(out)
	return out
}
