package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

func parseQuery(t *testing.T, query string) ast.QueryExpression {
	t.Helper()
	q, err := Parse(sql.NewEmptyContext(), query)
	require.NoError(t, err)
	return q
}

func parseSelect(t *testing.T, query string) *ast.SelectQuery {
	t.Helper()
	q := parseQuery(t, query)
	sel, ok := q.(*ast.SelectQuery)
	require.True(t, ok)
	return sel
}

func TestParseSelectShape(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT DISTINCT TOP 10 ra, dec AS delta FROM stars WHERE mag < 12 ORDER BY 1 DESC")
	require.True(sel.Distinct)
	require.NotNil(sel.Limit)
	require.Equal(uint64(10), *sel.Limit)
	require.Len(sel.Items, 2)
	require.Equal("delta", sel.Items[1].Alias)
	require.NotNil(sel.Where)
	require.Len(sel.OrderBy, 1)
	require.Equal(1, sel.OrderBy[0].Ordinal)
	require.True(sel.OrderBy[0].Desc)
}

func TestParseBareAlias(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT ra alpha FROM stars")
	require.Equal("alpha", sel.Items[0].Alias)
}

func TestParseStars(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT *, s.* FROM stars AS s")
	star, ok := sel.Items[0].Expr.(*ast.Star)
	require.True(ok)
	require.Empty(star.Table)

	qualified, ok := sel.Items[1].Expr.(*ast.Star)
	require.True(ok)
	require.Equal("s", qualified.Table)
}

func TestParseJoins(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT a FROM t1 JOIN t2 ON t1.id = t2.id LEFT OUTER JOIN t3 USING (id)")
	outer, ok := sel.From[0].(*ast.Join)
	require.True(ok)
	require.Equal(ast.JoinLeft, outer.Type)
	require.Equal([]string{"id"}, outer.Using)

	inner, ok := outer.Left.(*ast.Join)
	require.True(ok)
	require.Equal(ast.JoinInner, inner.Type)
	require.NotNil(inner.On)

	sel = parseSelect(t, "SELECT a FROM t1 NATURAL JOIN t2")
	join, ok := sel.From[0].(*ast.Join)
	require.True(ok)
	require.True(join.Natural)
}

func TestParseDerivedTable(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT x FROM (SELECT ra AS x FROM stars) AS sub")
	sub, ok := sel.From[0].(*ast.SubqueryRef)
	require.True(ok)
	require.Equal("sub", sub.Alias)

	_, err := Parse(sql.NewEmptyContext(), "SELECT x FROM (SELECT ra FROM stars)")
	require.True(sql.ErrSyntax.Is(err))
}

func TestParseSetOperations(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "SELECT ra FROM a UNION ALL SELECT ra FROM b EXCEPT SELECT ra FROM c")
	outer, ok := q.(*ast.SetOp)
	require.True(ok)
	require.Equal(ast.Except, outer.Op)
	require.False(outer.All)

	left, ok := outer.Left.(*ast.SetOp)
	require.True(ok)
	require.Equal(ast.Union, left.Op)
	require.True(left.All)
}

func TestParseGeometry(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT POINT('ICRS', ra, dec) FROM stars")
	g, ok := sel.Items[0].Expr.(*ast.Geometry)
	require.True(ok)
	require.Equal(ast.GeomPoint, g.Kind)
	require.Equal("ICRS", g.CoordSys)
	require.Len(g.Args, 2)

	sel = parseSelect(t, "SELECT CIRCLE('ICRS', 10, 20, 0.5) FROM stars")
	g = sel.Items[0].Expr.(*ast.Geometry)
	require.Equal(ast.GeomCircle, g.Kind)
	require.Len(g.Args, 3)

	for _, bad := range []string{
		"SELECT POINT('ICRS', ra) FROM stars",
		"SELECT CIRCLE('ICRS', 10, 20) FROM stars",
		"SELECT POLYGON('ICRS', 1, 2, 3, 4) FROM stars",
		"SELECT POLYGON('ICRS', 1, 2, 3, 4, 5) FROM stars",
	} {
		_, err := Parse(sql.NewEmptyContext(), bad)
		require.True(sql.ErrSyntax.Is(err), bad)
	}
}

func TestParsePredicates(t *testing.T) {
	queries := []string{
		"SELECT a FROM t WHERE a BETWEEN 1 AND 2",
		"SELECT a FROM t WHERE a NOT BETWEEN 1 AND 2",
		"SELECT a FROM t WHERE a IN (1, 2, 3)",
		"SELECT a FROM t WHERE a IN (SELECT b FROM u)",
		"SELECT a FROM t WHERE name LIKE 'M%'",
		"SELECT a FROM t WHERE name NOT LIKE 'M%'",
		"SELECT a FROM t WHERE a IS NULL",
		"SELECT a FROM t WHERE a IS NOT NULL",
		"SELECT a FROM t WHERE EXISTS (SELECT b FROM u)",
		"SELECT a FROM t WHERE NOT (a = 1 OR b = 2) AND c != 3",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			parseQuery(t, q)
		})
	}
}

func TestParseStringConcatenationAdjacency(t *testing.T) {
	require := require.New(t)

	sel := parseSelect(t, "SELECT 'foo' 'bar' FROM t")
	lit, ok := sel.Items[0].Expr.(*ast.Literal)
	require.True(ok)
	require.Equal("foobar", lit.Value)
}

func TestParseReservedWordAsIdentifier(t *testing.T) {
	_, err := Parse(sql.NewEmptyContext(), "SELECT select FROM t")
	require.True(t, sql.ErrSyntax.Is(err))
}

func TestParseMissingSelectList(t *testing.T) {
	require := require.New(t)

	_, err := Parse(sql.NewEmptyContext(), "SELECT FROM t")
	require.True(sql.ErrSyntax.Is(err))
	require.Contains(err.Error(), "1:8")
}

func TestParseRecursionLimit(t *testing.T) {
	require := require.New(t)

	query := "SELECT " + strings.Repeat("(", MaxDepth+1) + "1" +
		strings.Repeat(")", MaxDepth+1) + " FROM t"
	_, err := Parse(sql.NewEmptyContext(), query)
	require.True(sql.ErrRecursionLimit.Is(err))
}

func TestParseTrailingGarbage(t *testing.T) {
	_, err := Parse(sql.NewEmptyContext(), "SELECT a FROM t extra garbage )")
	require.True(t, sql.ErrSyntax.Is(err))
}
