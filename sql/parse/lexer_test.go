package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := newLexer(src).lex()
	require.NoError(t, err)
	return toks
}

func TestLexBasicTokens(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, "SELECT ra, dec FROM stars WHERE mag < 12.5")
	kinds := make([]TokenKind, len(toks))
	vals := make([]string, len(toks))
	for i, tok := range toks {
		kinds[i], vals[i] = tok.Kind, tok.Val
	}

	require.Equal([]string{
		"SELECT", "ra", ",", "dec", "FROM", "stars",
		"WHERE", "mag", "<", "12.5", "",
	}, vals)
	require.Equal(EOF, kinds[len(kinds)-1])
	require.Equal(Number, kinds[9])
}

func TestLexPositions(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, "SELECT\n  ra")
	require.Equal(1, toks[0].Pos.Line)
	require.Equal(1, toks[0].Pos.Col)
	require.Equal(2, toks[1].Pos.Line)
	require.Equal(3, toks[1].Pos.Col)
}

func TestLexComments(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, "SELECT -- the select list\nra")
	require.Len(toks, 3)
	require.Equal("ra", toks[1].Val)
}

func TestLexStrings(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, "'it''s'")
	require.Equal(String, toks[0].Kind)
	require.Equal("it's", toks[0].Val)

	_, err := newLexer("'unterminated").lex()
	require.True(sql.ErrSyntax.Is(err))
}

func TestLexDelimitedIdentifiers(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, `"Mixed""Case"`)
	require.Equal(Delimited, toks[0].Kind)
	require.Equal(`Mixed"Case`, toks[0].Val)
}

func TestLexOperators(t *testing.T) {
	require := require.New(t)

	toks := lexAll(t, "a <= b >= c <> d != e || f")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Val)
		}
	}
	require.Equal([]string{"<=", ">=", "!=", "!=", "||"}, ops)
}

func TestLexNumbers(t *testing.T) {
	require := require.New(t)

	for _, num := range []string{"42", "4.2", ".5", "1e10", "1.5E-3"} {
		toks := lexAll(t, num)
		require.Equal(Number, toks[0].Kind, num)
		require.Equal(num, toks[0].Val)
	}
}

func TestLexBadCharacter(t *testing.T) {
	_, err := newLexer("SELECT #").lex()
	require.True(t, sql.ErrSyntax.Is(err))
}
