package transformconfig

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokEquals
	tokOperator // ==, !=, <, >, <=, >=
	tokDollar
)

type token struct {
	kind  tokenKind
	text  string
	pos   hcl.Pos
	isInt bool // for tokNumber: true if no decimal point was present
}

// lexer tokenises the transform/visualisation line grammar (spec §4.3 /
// §6). Whitespace is insignificant outside quoted strings.
type lexer struct {
	src    string
	file   string
	pos    int
	line   int
	column int
}

func newLexer(src, file string) *lexer {
	return &lexer{src: src, file: file, line: 1, column: 1}
}

func (l *lexer) hclPos() hcl.Pos {
	return hcl.Pos{Byte: l.pos, Line: l.line, Column: l.column}
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		break
	}
}

// next returns the next token, or an error for malformed input (unterminated
// strings, stray characters).
func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.hclPos()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}
	c := l.peek()

	switch {
	case c == '[':
		l.advance()
		return token{kind: tokLBracket, text: "[", pos: start}, nil
	case c == ']':
		l.advance()
		return token{kind: tokRBracket, text: "]", pos: start}, nil
	case c == '(':
		l.advance()
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.advance()
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == ',':
		l.advance()
		return token{kind: tokComma, text: ",", pos: start}, nil
	case c == '.':
		l.advance()
		return token{kind: tokDot, text: ".", pos: start}, nil
	case c == '$':
		l.advance()
		return token{kind: tokDollar, text: "$", pos: start}, nil
	case c == '"':
		return l.lexString(start)
	case c == '=':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokOperator, text: "==", pos: start}, nil
		}
		return token{kind: tokEquals, text: "=", pos: start}, nil
	case c == '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokOperator, text: "!=", pos: start}, nil
		}
		return token{}, l.errAt(start, fmt.Sprintf("unexpected character %q", c))
	case c == '<':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokOperator, text: "<=", pos: start}, nil
		}
		return token{kind: tokOperator, text: "<", pos: start}, nil
	case c == '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return token{kind: tokOperator, text: ">=", pos: start}, nil
		}
		return token{kind: tokOperator, text: ">", pos: start}, nil
	case c == '-' || isDigit(c):
		return l.lexNumber(start)
	case isIdentStart(c):
		return l.lexIdent(start)
	default:
		return token{}, l.errAt(start, fmt.Sprintf("unexpected character %q", c))
	}
}

func (l *lexer) lexIdent(start hcl.Pos) (token, error) {
	var b strings.Builder
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		b.WriteByte(l.advance())
	}
	return token{kind: tokIdent, text: b.String(), pos: start}, nil
}

func (l *lexer) lexNumber(start hcl.Pos) (token, error) {
	var b strings.Builder
	if l.peek() == '-' {
		b.WriteByte(l.advance())
	}
	for l.pos < len(l.src) && isDigit(l.peek()) {
		b.WriteByte(l.advance())
	}
	isInt := true
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isInt = false
		b.WriteByte(l.advance())
		for l.pos < len(l.src) && isDigit(l.peek()) {
			b.WriteByte(l.advance())
		}
	}
	return token{kind: tokNumber, text: b.String(), pos: start, isInt: isInt}, nil
}

func (l *lexer) lexString(start hcl.Pos) (token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token{}, l.errAt(start, "unterminated quoted string")
		}
		c := l.peek()
		if c == '\\' && l.peekAt(1) == '"' {
			l.advance()
			l.advance()
			b.WriteByte('"')
			continue
		}
		if c == '"' {
			l.advance()
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteByte(l.advance())
	}
}

func (l *lexer) errAt(pos hcl.Pos, msg string) error {
	return fmt.Errorf("%s:%d:%d: %s", l.file, pos.Line, pos.Column, msg)
}
