package morph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/analyzer"
	"github.com/astrovo/adql/sql/ast"
	"github.com/astrovo/adql/sql/parse"
)

func testCatalog() *sql.Catalog {
	stars := sql.NewTable("stars",
		&sql.Column{Name: "id", Type: sql.Bigint, PrimaryKey: true},
		&sql.Column{Name: "ra", Type: sql.Double, Unit: "deg", SpatialIndexed: true},
		&sql.Column{Name: "dec", Type: sql.Double, Unit: "deg", SpatialIndexed: true},
		&sql.Column{Name: "mag", Type: sql.Real},
	)
	return sql.NewCatalog("v1", stars)
}

func morphQuery(t *testing.T, query string) (*ast.SelectQuery, error) {
	t.Helper()
	ctx := sql.NewEmptyContext()
	parsed, err := parse.Parse(ctx, query)
	require.NoError(t, err)
	annotated, err := analyzer.New(testCatalog(), sql.Defaults()).Annotate(ctx, parsed)
	require.NoError(t, err)
	morphed, err := New().Morph(ctx, annotated)
	if err != nil {
		return nil, err
	}
	return morphed.(*ast.SelectQuery), nil
}

func mustMorph(t *testing.T, query string) *ast.SelectQuery {
	t.Helper()
	q, err := morphQuery(t, query)
	require.NoError(t, err)
	return q
}

func TestMorphPointConstructor(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT POINT('ICRS', ra, dec) FROM stars")
	call, ok := q.Items[0].Expr.(*ast.Call)
	require.True(ok)
	require.Equal("spoint", call.Name)
	require.Len(call.Args, 2)

	rad, ok := call.Args[0].(*ast.Call)
	require.True(ok)
	require.Equal("radians", rad.Name)
	_, ok = rad.Args[0].(*ast.ColumnRef)
	require.True(ok)
}

func TestMorphConeSearchToQ3C(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 1")
	call, ok := q.Where.(*ast.Call)
	require.True(ok)
	require.Equal("q3c_radial_query", call.Name)
	require.Len(call.Args, 5)

	// Circle arguments stay literal, in degrees.
	lit, ok := call.Args[2].(*ast.Literal)
	require.True(ok)
	require.Equal(float64(10), lit.Value)
}

func TestMorphContainsOperator(t *testing.T) {
	require := require.New(t)

	// A literal point has no use for the q3c index; the operator form
	// survives.
	q := mustMorph(t, "SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', 10.0, 20.0), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 1")
	cmp, ok := q.Where.(*ast.Comparison)
	require.True(ok)
	require.Equal("@", cmp.Op)
	_, ok = cmp.Left.(*ast.Call)
	require.True(ok)
}

func TestMorphIntersectsOperator(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT id FROM stars WHERE INTERSECTS(CIRCLE('ICRS', ra, dec, 1.0), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 1")
	cmp, ok := q.Where.(*ast.Comparison)
	require.True(ok)
	require.Equal("&&", cmp.Op)
}

func TestMorphNegatedPredicate(t *testing.T) {
	require := require.New(t)

	for _, query := range []string{
		"SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 0",
		"SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) != 1",
	} {
		q := mustMorph(t, query)
		_, ok := q.Where.(*ast.Not)
		require.True(ok, query)
	}
}

func TestMorphPseudoBooleanErrors(t *testing.T) {
	cases := []string{
		"SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 2",
		"SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) < 1",
		"SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = mag",
		"SELECT CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) FROM stars",
	}
	for _, query := range cases {
		t.Run(query, func(t *testing.T) {
			_, err := morphQuery(t, query)
			require.True(t, sql.ErrUnsupportedFeature.Is(err), "got %v", err)
		})
	}
}

func TestMorphBoxBecomesPolygon(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT BOX('ICRS', 10.0, 20.0, 2.0, 4.0) FROM stars")
	poly, ok := q.Items[0].Expr.(*ast.Call)
	require.True(ok)
	require.Equal("spoly", poly.Name)
	require.Len(poly.Args, 4)

	// First corner is (cx - w/2, cy - h/2), still in degrees under the
	// radians conversion.
	corner := poly.Args[0].(*ast.Call)
	require.Equal("spoint", corner.Name)
	lon := corner.Args[0].(*ast.Call).Args[0].(*ast.Literal)
	lat := corner.Args[1].(*ast.Call).Args[0].(*ast.Literal)
	require.Equal(float64(9), lon.Value)
	require.Equal(float64(18), lat.Value)
}

func TestMorphRegionString(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT REGION('CIRCLE ICRS 10 20 0.5') FROM stars")
	call, ok := q.Items[0].Expr.(*ast.Call)
	require.True(ok)
	require.Equal("scircle", call.Name)

	_, err := morphQuery(t, "SELECT REGION('UNION ICRS 1 2') FROM stars")
	require.True(sql.ErrUnsupportedFeature.Is(err))
}

func TestMorphGeometryAccessors(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT DISTANCE(POINT('ICRS', ra, dec), POINT('ICRS', 10.0, 20.0)), COORD1(POINT('ICRS', ra, dec)), AREA(CIRCLE('ICRS', 10.0, 20.0, 0.5)) FROM stars")

	dist := q.Items[0].Expr.(*ast.Call)
	require.Equal("degrees", dist.Name)
	inner := dist.Args[0].(*ast.BinaryExpr)
	require.Equal("<->", inner.Op)

	coord := q.Items[1].Expr.(*ast.Call)
	require.Equal("degrees", coord.Name)
	require.Equal("long", coord.Args[0].(*ast.Call).Name)

	area := q.Items[2].Expr.(*ast.Call)
	require.Equal("degrees", area.Name)
}

func TestMorphCoordsysFoldsToLiteral(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT COORDSYS(POINT('ICRS', ra, dec)) FROM stars")
	lit, ok := q.Items[0].Expr.(*ast.Literal)
	require.True(ok)
	require.Equal("ICRS", lit.Value)
}

func TestMorphCrossFrameLiteralConversion(t *testing.T) {
	require := require.New(t)

	// FK5 converts to ICRS through the default registry.
	mustMorph(t, "SELECT DISTANCE(POINT('ICRS', ra, dec), POINT('FK5', 10.0, 20.0)) FROM stars")

	_, err := morphQuery(t, "SELECT DISTANCE(POINT('ICRS', ra, dec), POINT('GALACTIC', 10.0, 20.0)) FROM stars")
	require.True(sql.ErrUnsupportedFeature.Is(err))
}

func TestMorphConstantFolding(t *testing.T) {
	require := require.New(t)

	q := mustMorph(t, "SELECT 1 + 2 * 3, 10.0 / 4, -5, 'a' || 'b' FROM stars")

	require.Equal(int64(7), q.Items[0].Expr.(*ast.Literal).Value)
	require.Equal(2.5, q.Items[1].Expr.(*ast.Literal).Value)
	require.Equal(int64(-5), q.Items[2].Expr.(*ast.Literal).Value)
	require.Equal("ab", q.Items[3].Expr.(*ast.Literal).Value)

	// Column arithmetic stays put.
	q = mustMorph(t, "SELECT mag + 1 FROM stars")
	_, ok := q.Items[0].Expr.(*ast.BinaryExpr)
	require.True(ok)
}

func TestMorphIntegerDivisionFolding(t *testing.T) {
	require := require.New(t)

	// Two integers divide the way the backend divides them, truncating.
	q := mustMorph(t, "SELECT 7 / 2, 7.0 / 2 FROM stars")
	require.Equal(int64(3), q.Items[0].Expr.(*ast.Literal).Value)
	require.Equal(3.5, q.Items[1].Expr.(*ast.Literal).Value)

	// Division by the integer zero stays unfolded too.
	q = mustMorph(t, "SELECT 7 / 0 FROM stars")
	_, ok := q.Items[0].Expr.(*ast.BinaryExpr)
	require.True(ok)
}
