package adql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
)

func testCatalog() *sql.Catalog {
	stars := sql.NewTable("public.stars",
		&sql.Column{Name: "id", Type: sql.Bigint, PrimaryKey: true},
		&sql.Column{Name: "ra", Type: sql.Double, Unit: "deg", UCD: "pos.eq.ra", SpatialIndexed: true},
		&sql.Column{Name: "dec", Type: sql.Double, Unit: "deg", UCD: "pos.eq.dec", SpatialIndexed: true},
		&sql.Column{Name: "mag", Type: sql.Real, UCD: "phot.mag"},
	)
	return sql.NewCatalog("v1", stars)
}

func TestCompileConeSearch(t *testing.T) {
	require := require.New(t)

	c := New(testCatalog())
	result, err := c.Compile(nil, "SELECT TOP 10 id, ra, dec FROM public.stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 44.5, 12.25, 0.5)) = 1 ORDER BY mag")
	require.NoError(err)

	require.Equal(
		"SELECT id, ra, dec FROM public.stars WHERE q3c_radial_query(ra, dec, 44.5, 12.25, 0.5) ORDER BY mag LIMIT 10",
		result.SQL,
	)
	require.Empty(result.Parameters)

	require.Len(result.Columns, 3)
	require.Equal("ra", result.Columns[1].Name)
	require.Equal("deg", result.Columns[1].Unit)
	require.Equal("pos.eq.ra", result.Columns[1].UCD)
}

func TestCompileParameterOrder(t *testing.T) {
	require := require.New(t)

	c := New(testCatalog())
	result, err := c.Compile(nil, "SELECT mag - 25.0 AS absmag FROM public.stars WHERE mag BETWEEN 10 AND 15")
	require.NoError(err)

	require.Equal(
		"SELECT (mag - $1) AS absmag FROM public.stars WHERE mag BETWEEN $2 AND $3",
		result.SQL,
	)
	require.Equal([]interface{}{25.0, int64(10), int64(15)}, result.Parameters)
	require.Equal("absmag", result.Columns[0].Name)
}

func TestCompileSyntaxErrorPosition(t *testing.T) {
	require := require.New(t)

	c := New(testCatalog())
	_, err := c.Compile(nil, "SELECT FROM public.stars")
	require.True(sql.ErrSyntax.Is(err))
	require.Contains(err.Error(), "1:8")
}

func TestCompileUnknownTable(t *testing.T) {
	c := New(testCatalog())
	_, err := c.Compile(nil, "SELECT 1 FROM nebulae")
	require.True(t, sql.ErrUnknownTable.Is(err))
}

func TestCompileUserDefinedFunction(t *testing.T) {
	require := require.New(t)

	registry := sql.Defaults()
	err := registry.LoadYAML([]byte(`
- name: gavo_normal_random
  params: [double precision, double precision]
  returns: double precision
  template: normal_random($1, $2)
`))
	require.NoError(err)

	c := New(testCatalog(), WithFunctions(registry))
	result, err := c.Compile(nil, "SELECT gavo_normal_random(mag, 1.0) FROM public.stars")
	require.NoError(err)
	require.Equal("SELECT normal_random(mag, $1) FROM public.stars", result.SQL)
	require.Equal("expr_1", result.Columns[0].Name)
}

func TestCompileCoordConverter(t *testing.T) {
	require := require.New(t)

	galToIcrs := func(lon, lat float64) (float64, float64) {
		// A placeholder rotation is enough to prove the plumbing.
		return lon + 1, lat + 1
	}
	c := New(testCatalog(), WithCoordConverter("GALACTIC", "ICRS", galToIcrs))

	result, err := c.Compile(nil, "SELECT id FROM public.stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('GALACTIC', 10.0, 20.0, 0.5)) = 1")
	require.NoError(err)
	require.Equal(
		"SELECT id FROM public.stars WHERE q3c_radial_query(ra, dec, 11, 21, 0.5)",
		result.SQL,
	)
}

func TestCompileReusableCompiler(t *testing.T) {
	require := require.New(t)

	c := New(testCatalog())
	for i := 0; i < 3; i++ {
		result, err := c.Compile(nil, "SELECT id FROM public.stars")
		require.NoError(err)
		require.Equal("SELECT id FROM public.stars", result.SQL)
	}
}
