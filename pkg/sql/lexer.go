package sql

import (
	"strings"

	"minidb/pkg/dberr"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol // ( ) , * . = != < <= > >= ;
)

type token struct {
	typ tokenType
	val string
}

// lexer splits a statement into tokens. Identifiers and keywords come out
// as tokIdent with the original spelling preserved; keyword matching is
// case-insensitive and happens in the parser.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// next scans and returns the next token.
func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t' || l.input[l.pos] == '\n' || l.input[l.pos] == '\r') {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{typ: tokEOF}, nil
	}

	c := l.input[l.pos]
	switch {
	case isIdentStart(c):
		start := l.pos
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		return token{typ: tokIdent, val: l.input[start:l.pos]}, nil

	case isDigit(c) || (c == '-' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		start := l.pos
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return token{typ: tokNumber, val: l.input[start:l.pos]}, nil

	case c == '\'':
		l.pos++
		var sb strings.Builder
		for {
			if l.pos >= len(l.input) {
				return token{}, dberr.New(dberr.UnexpectedToken, "unterminated string literal")
			}
			ch := l.input[l.pos]
			if ch == '\'' {
				// Doubled quote escapes a quote inside the literal.
				if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
					sb.WriteByte('\'')
					l.pos += 2
					continue
				}
				l.pos++
				return token{typ: tokString, val: sb.String()}, nil
			}
			sb.WriteByte(ch)
			l.pos++
		}

	case c == '!' || c == '<' || c == '>':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			l.pos += 2
			return token{typ: tokSymbol, val: l.input[l.pos-2 : l.pos]}, nil
		}
		if c == '!' {
			return token{}, dberr.New(dberr.UnexpectedToken, "unexpected character %q", string(c))
		}
		l.pos++
		return token{typ: tokSymbol, val: string(c)}, nil

	case c == '(' || c == ')' || c == ',' || c == '*' || c == '.' || c == '=' || c == ';':
		l.pos++
		return token{typ: tokSymbol, val: string(c)}, nil

	default:
		return token{}, dberr.New(dberr.UnexpectedToken, "unexpected character %q", string(c))
	}
}

// tokenize scans the whole input.
func tokenize(input string) ([]token, error) {
	l := newLexer(input)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.typ == tokEOF {
			return toks, nil
		}
	}
}
