package transformconfig

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/graphia/graphia/internal/condition"
	"github.com/graphia/graphia/internal/diag"
)

var terminalOps = map[string]condition.TerminalOp{
	"==": condition.OpEQ,
	"!=": condition.OpNE,
	"<":  condition.OpLT,
	">":  condition.OpGT,
	"<=": condition.OpLE,
	">=": condition.OpGE,

	"includes":               condition.OpIncludes,
	"excludes":               condition.OpExcludes,
	"starts":                 condition.OpStarts,
	"ends":                   condition.OpEnds,
	"matches":                condition.OpMatches,
	"matchesCaseInsensitive": condition.OpMatchesCaseInsensitive,
}

const unaryHasValue = "hasValue"

type parser struct {
	lex  *lexer
	tok  token
	peek *token
	file string
	diags diag.Diagnostics
}

func newParser(src, file string) *parser {
	p := &parser{lex: newLexer(src, file), file: file}
	p.advance()
	return p
}

func (p *parser) advance() {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return
	}
	t, err := p.lex.next()
	if err != nil {
		p.errorf(p.lex.hclPos(), "%s", err)
		t = token{kind: tokEOF, pos: p.lex.hclPos()}
	}
	p.tok = t
}

func (p *parser) errorf(pos hcl.Pos, format string, args ...any) {
	rng := hcl.Range{Filename: p.file, Start: pos, End: pos}
	p.diags = append(p.diags, diag.AtRange(diag.Error, "failed to parse transform configuration",
		fmt.Sprintf(format, args...), rng))
}

func (p *parser) expect(kind tokenKind, what string) (token, bool) {
	if p.tok.kind != kind {
		p.errorf(p.tok.pos, "expected %s, got %q", what, p.tok.text)
		return token{}, false
	}
	t := p.tok
	p.advance()
	return t, true
}

// ParseTransformConfig parses one transform line (spec §4.3).
func ParseTransformConfig(src string) (*TransformConfig, diag.Diagnostics) {
	p := newParser(src, "<transform>")
	cfg := p.parseTransform()
	if p.tok.kind != tokEOF {
		p.errorf(p.tok.pos, "unexpected trailing input %q", p.tok.text)
	}
	return cfg, p.diags
}

func (p *parser) parseTransform() *TransformConfig {
	cfg := &TransformConfig{}
	if p.tok.kind == tokLBracket {
		cfg.Flags = p.parseFlags()
	}
	cfg.Action = p.parseNameLiteral()
	if p.diags.HasErrors() {
		return cfg
	}
	for p.tok.kind == tokIdent {
		switch p.tok.text {
		case "using":
			p.advance()
			cfg.AttributeRefs = p.parseAttributeNameList()
		case "with":
			p.advance()
			cfg.Parameters = p.parseParameterList()
		case "where":
			p.advance()
			cfg.Condition = p.parseCondition()
			return cfg
		default:
			p.errorf(p.tok.pos, "unexpected clause keyword %q", p.tok.text)
			return cfg
		}
	}
	return cfg
}

// ParseVisualisationConfig parses one visualisation line (spec §6).
func ParseVisualisationConfig(src string) (*VisualisationConfig, diag.Diagnostics) {
	p := newParser(src, "<visualisation>")
	cfg := &VisualisationConfig{}
	if p.tok.kind == tokLBracket {
		cfg.Flags = p.parseFlags()
	}
	cfg.AttributeName = p.parseAttributeName()
	cfg.Channel = p.parseNameLiteral()
	if p.tok.kind == tokIdent && p.tok.text == "with" {
		p.advance()
		cfg.Parameters = p.parseParameterList()
	}
	if p.tok.kind != tokEOF {
		p.errorf(p.tok.pos, "unexpected trailing input %q", p.tok.text)
	}
	return cfg, p.diags
}

func (p *parser) parseFlags() []string {
	p.advance() // '['
	var flags []string
	for {
		if p.tok.kind == tokRBracket {
			p.advance()
			return flags
		}
		id, ok := p.expect(tokIdent, "flag name")
		if !ok {
			return flags
		}
		flags = append(flags, id.text)
		if p.tok.kind == tokComma {
			p.advance()
			continue
		}
	}
}

// parseNameLiteral accepts either a quoted string or a bare identifier,
// used for transformName and channelName (spec §4.3).
func (p *parser) parseNameLiteral() string {
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		p.advance()
		return s
	case tokIdent:
		s := p.tok.text
		p.advance()
		return s
	default:
		p.errorf(p.tok.pos, "expected a name, got %q", p.tok.text)
		return ""
	}
}

// parseAttributeName parses "$" (quotedString|identifier) attributeParameter*
// into its canonical dotted textual form, e.g. `attr1` or `attr2.param`.
func (p *parser) parseAttributeName() string {
	if _, ok := p.expect(tokDollar, `"$"`); !ok {
		return ""
	}
	name := p.parseNameLiteral()
	for p.tok.kind == tokDot {
		p.advance()
		param := p.parseNameLiteral()
		name = name + "." + param
	}
	return name
}

func (p *parser) parseAttributeNameList() []string {
	var names []string
	for p.tok.kind == tokDollar {
		names = append(names, p.parseAttributeName())
	}
	return names
}

// clauseKeywords are reserved and can never start a bare (unquoted)
// parameter name, so the parameter-list parser knows where to stop.
var clauseKeywords = map[string]bool{
	"using": true,
	"with":  true,
	"where": true,
}

func (p *parser) parseParameterList() []Parameter {
	var params []Parameter
	for p.tok.kind == tokString || (p.tok.kind == tokIdent && !clauseKeywords[p.tok.text]) {
		name := p.parseNameLiteral()
		if _, ok := p.expect(tokEquals, `"="`); !ok {
			return params
		}
		val := p.parseLiteralValue()
		params = append(params, Parameter{Name: name, Value: val})
	}
	return params
}

func (p *parser) parseLiteralValue() condition.Value {
	switch p.tok.kind {
	case tokString:
		s := p.tok.text
		p.advance()
		return condition.Str(s)
	case tokNumber:
		return p.parseNumberValue()
	default:
		p.errorf(p.tok.pos, "expected a value, got %q", p.tok.text)
		return condition.Value{}
	}
}

func (p *parser) parseNumberValue() condition.Value {
	t := p.tok
	p.advance()
	if t.isInt {
		var i int64
		_, err := fmt.Sscanf(t.text, "%d", &i)
		if err != nil {
			p.errorf(t.pos, "invalid integer literal %q", t.text)
			return condition.Value{}
		}
		return condition.Int(i)
	}
	var f float64
	_, err := fmt.Sscanf(t.text, "%g", &f)
	if err != nil {
		p.errorf(t.pos, "invalid numeric literal %q", t.text)
		return condition.Value{}
	}
	return condition.Float(f)
}

// parseValueOperand parses a literal or an attribute reference (spec
// §4.3: valueOperand) into a condition.Value.
func (p *parser) parseValueOperand() condition.Value {
	if p.tok.kind == tokDollar {
		return condition.Str("$" + p.parseAttributeName())
	}
	return p.parseLiteralValue()
}

// parseCondition parses `operand (logicalOp operand)*` left-associatively.
func (p *parser) parseCondition() condition.Node {
	left := p.parseOperand()
	for p.tok.kind == tokIdent && (p.tok.text == "and" || p.tok.text == "or") {
		op := condition.OpAnd
		if p.tok.text == "or" {
			op = condition.OpOr
		}
		p.advance()
		right := p.parseOperand()
		left = condition.Compound{LHS: left, RHS: right, Op: op}
	}
	return left
}

func (p *parser) parseOperand() condition.Node {
	if p.tok.kind == tokLParen {
		p.advance()
		inner := p.parseCondition()
		p.expect(tokRParen, `")"`)
		return inner
	}
	lhs := p.parseValueOperand()
	if p.tok.kind == tokIdent && p.tok.text == unaryHasValue {
		p.advance()
		return condition.Unary{LHS: lhs, Op: condition.OpHasValue}
	}
	opText := p.tok.text
	op, ok := terminalOps[opText]
	if !ok {
		p.errorf(p.tok.pos, "expected a comparison or unary operator, got %q", opText)
		return condition.None{}
	}
	p.advance()
	rhs := p.parseValueOperand()
	return condition.Terminal{LHS: lhs, RHS: rhs, Op: op}
}
