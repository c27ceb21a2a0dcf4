package parse

import (
	"strings"

	"github.com/astrovo/adql/sql/ast"
)

// TokenKind classifies lexer output.
type TokenKind int

const (
	// EOF marks the end of the input.
	EOF TokenKind = iota
	// Identifier is a regular (unquoted) identifier or keyword.
	Identifier
	// Delimited is a double-quoted identifier, case preserved.
	Delimited
	// Number is a numeric literal.
	Number
	// String is a single-quoted string literal, quotes stripped.
	String
	// Operator is a comparison, arithmetic or concatenation operator.
	Operator
	// Punct is punctuation: parentheses, comma, dot.
	Punct
)

// Token is one lexeme with its position in the query text.
type Token struct {
	Kind TokenKind
	Val  string
	Pos  ast.Pos
}

// keyword reports whether the token is the given keyword, matched case
// insensitively the way the grammar treats all keywords.
func (t Token) keyword(kw string) bool {
	return t.Kind == Identifier && strings.EqualFold(t.Val, kw)
}

// reservedWords are the words the grammar claims for itself. A regular
// identifier may not collide with one of these; a delimited identifier
// always may.
var reservedWords = map[string]bool{
	"ALL": true, "AND": true, "AS": true, "ASC": true, "BETWEEN": true,
	"BY": true, "DESC": true, "DISTINCT": true, "EXCEPT": true,
	"EXISTS": true, "FROM": true, "FULL": true, "GROUP": true,
	"HAVING": true, "IN": true, "INNER": true, "INTERSECT": true,
	"IS": true, "JOIN": true, "LEFT": true, "LIKE": true, "NATURAL": true,
	"NOT": true, "NULL": true, "ON": true, "OR": true, "ORDER": true,
	"OUTER": true, "RIGHT": true, "SELECT": true, "TOP": true,
	"UNION": true, "USING": true, "WHERE": true,
}

func isReserved(word string) bool {
	return reservedWords[strings.ToUpper(word)]
}
