package parse

import (
	"strings"
	"unicode"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// lexer turns query text into tokens. It is a plain rune scanner that
// keeps line and column counters for error positions.
type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

// lex tokenizes the whole input. The returned slice always ends with an
// EOF token carrying the final position.
func (l *lexer) lex() ([]Token, error) {
	var toks []Token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *lexer) here() ast.Pos {
	return ast.Pos{Line: l.line, Col: l.col, Offset: l.pos}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == '-' && l.peekAt(1) == '-':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()
	pos := l.here()
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Pos: pos}, nil
	}

	r := l.peek()
	switch {
	case unicode.IsLetter(r) || r == '_':
		return l.scanWord(pos), nil
	case unicode.IsDigit(r) || r == '.' && unicode.IsDigit(l.peekAt(1)):
		return l.scanNumber(pos), nil
	case r == '\'':
		return l.scanString(pos)
	case r == '"':
		return l.scanDelimited(pos)
	}

	// Operators and punctuation, longest first.
	two := string(r) + string(l.peekAt(1))
	switch two {
	case "<=", ">=", "!=", "<>", "||":
		l.advance()
		l.advance()
		if two == "<>" {
			two = "!="
		}
		return Token{Kind: Operator, Val: two, Pos: pos}, nil
	}
	switch r {
	case '=', '<', '>', '+', '-', '*', '/':
		l.advance()
		return Token{Kind: Operator, Val: string(r), Pos: pos}, nil
	case '(', ')', ',', '.':
		l.advance()
		return Token{Kind: Punct, Val: string(r), Pos: pos}, nil
	}
	return Token{}, sql.ErrSyntax.New(pos.Line, pos.Col, "unexpected character "+string(r))
}

func (l *lexer) scanWord(pos ast.Pos) Token {
	var b strings.Builder
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		b.WriteRune(l.advance())
	}
	return Token{Kind: Identifier, Val: b.String(), Pos: pos}
}

func (l *lexer) scanNumber(pos ast.Pos) Token {
	var b strings.Builder
	digits := func() {
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			b.WriteRune(l.advance())
		}
	}
	digits()
	if l.peek() == '.' {
		b.WriteRune(l.advance())
		digits()
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		if n := l.peekAt(1); unicode.IsDigit(n) ||
			(n == '+' || n == '-') && unicode.IsDigit(l.peekAt(2)) {
			b.WriteRune(l.advance())
			if l.peek() == '+' || l.peek() == '-' {
				b.WriteRune(l.advance())
			}
			digits()
		}
	}
	return Token{Kind: Number, Val: b.String(), Pos: pos}
}

func (l *lexer) scanString(pos ast.Pos) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, sql.ErrSyntax.New(pos.Line, pos.Col, "unterminated string literal")
		}
		r := l.advance()
		if r == '\'' {
			if l.peek() == '\'' {
				l.advance()
				b.WriteRune('\'')
				continue
			}
			return Token{Kind: String, Val: b.String(), Pos: pos}, nil
		}
		b.WriteRune(r)
	}
}

func (l *lexer) scanDelimited(pos ast.Pos) (Token, error) {
	l.advance() // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, sql.ErrSyntax.New(pos.Line, pos.Col, "unterminated delimited identifier")
		}
		r := l.advance()
		if r == '"' {
			if l.peek() == '"' {
				l.advance()
				b.WriteRune('"')
				continue
			}
			return Token{Kind: Delimited, Val: b.String(), Pos: pos}, nil
		}
		b.WriteRune(r)
	}
}
