package emit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/analyzer"
	"github.com/astrovo/adql/sql/morph"
	"github.com/astrovo/adql/sql/parse"
)

func testCatalog() *sql.Catalog {
	stars := sql.NewTable("stars",
		&sql.Column{Name: "id", Type: sql.Bigint, PrimaryKey: true},
		&sql.Column{Name: "ra", Type: sql.Double, Unit: "deg", SpatialIndexed: true},
		&sql.Column{Name: "dec", Type: sql.Double, Unit: "deg", SpatialIndexed: true},
		&sql.Column{Name: "mag", Type: sql.Real},
		&sql.Column{Name: "name", Type: sql.Text},
		&sql.Column{Name: "Vmag", Type: sql.Real, CaseSensitive: true},
	)
	return sql.NewCatalog("v1", stars)
}

func render(t *testing.T, query string) (string, []interface{}) {
	t.Helper()
	ctx := sql.NewEmptyContext()
	parsed, err := parse.Parse(ctx, query)
	require.NoError(t, err)
	annotated, err := analyzer.New(testCatalog(), sql.Defaults()).Annotate(ctx, parsed)
	require.NoError(t, err)
	morphed, err := morph.New().Morph(ctx, annotated)
	require.NoError(t, err)
	text, params, err := Emit(ctx, morphed)
	require.NoError(t, err)
	return text, params
}

func TestEmitParameters(t *testing.T) {
	require := require.New(t)

	text, params := render(t, "SELECT mag + 1 FROM stars WHERE mag > 2 AND name = 'Vega'")
	require.Equal("SELECT (mag + $1) FROM stars WHERE mag > $2 AND name = $3", text)
	require.Equal([]interface{}{int64(1), int64(2), "Vega"}, params)
}

func TestEmitDeterminism(t *testing.T) {
	require := require.New(t)

	query := "SELECT TOP 5 id, mag FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 1 ORDER BY 2 DESC"
	first, firstParams := render(t, query)
	second, secondParams := render(t, query)
	require.Equal(first, second)
	require.Equal(firstParams, secondParams)
}

func TestEmitConeSearchInlines(t *testing.T) {
	require := require.New(t)

	text, params := render(t, "SELECT id FROM stars WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', 10.0, 20.0, 0.5)) = 1")
	require.Equal("SELECT id FROM stars WHERE q3c_radial_query(ra, dec, 10, 20, 0.5)", text)
	require.Empty(params)
}

func TestEmitTopBecomesLimit(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT TOP 7 id FROM stars")
	require.Equal("SELECT id FROM stars LIMIT 7", text)
}

func TestEmitTemplates(t *testing.T) {
	require := require.New(t)

	text, params := render(t, "SELECT LOG(mag), ROUND(mag, 2) FROM stars")
	require.Equal("SELECT ln(mag), round((mag)::numeric, $1) FROM stars", text)
	require.Equal([]interface{}{int64(2)}, params)
}

func TestEmitTemplateDropsArgument(t *testing.T) {
	require := require.New(t)

	// The seed of RAND has no placeholder in its template, so it must
	// not leave a bound parameter behind.
	text, params := render(t, "SELECT RAND(5) FROM stars")
	require.Equal("SELECT random() FROM stars", text)
	require.Empty(params)
}

func TestEmitDelimitedIdentifiers(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, `SELECT "Vmag" FROM stars`)
	require.Equal(`SELECT "Vmag" FROM stars`, text)
}

func TestEmitDelimitedTableAlias(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, `SELECT "S".ra FROM stars AS "S"`)
	require.Equal(`SELECT "S".ra FROM stars AS "S"`, text)

	// References render the alias the FROM clause declared, whatever
	// spelling the query used.
	text, _ = render(t, `SELECT s.ra FROM stars AS "S"`)
	require.Equal(`SELECT "S".ra FROM stars AS "S"`, text)
}

func TestEmitOrderByAlias(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT mag AS brightness FROM stars ORDER BY brightness DESC")
	require.Equal("SELECT mag AS brightness FROM stars ORDER BY mag DESC", text)
}

func TestEmitCaseFolding(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT ID, RA FROM STARS")
	require.Equal("SELECT id, ra FROM stars", text)
}

func TestEmitNotEquals(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT id FROM stars WHERE mag <> 1")
	require.Equal("SELECT id FROM stars WHERE mag <> $1", text)
}

func TestEmitAggregatesAndGrouping(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT name, COUNT(*), AVG(mag) FROM stars GROUP BY name HAVING COUNT(*) > 10")
	require.Equal("SELECT name, count(*), avg(mag) FROM stars GROUP BY name HAVING count(*) > $1", text)
}

func TestEmitSetOperation(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT id FROM stars UNION ALL SELECT id FROM stars")
	require.Equal("(SELECT id FROM stars) UNION ALL (SELECT id FROM stars)", text)
}

func TestEmitSubqueryAndExists(t *testing.T) {
	require := require.New(t)

	text, _ := render(t, "SELECT x FROM (SELECT id AS x FROM stars) AS sub WHERE EXISTS (SELECT 1 FROM stars WHERE mag < 3)")
	require.Equal("SELECT x FROM (SELECT id AS x FROM stars) AS sub WHERE EXISTS (SELECT $1 FROM stars WHERE mag < $2)", text)
}

func TestEmitNullHandling(t *testing.T) {
	require := require.New(t)

	text, params := render(t, "SELECT id FROM stars WHERE name IS NOT NULL AND mag = NULL")
	require.Equal("SELECT id FROM stars WHERE name IS NOT NULL AND mag = NULL", text)
	require.Empty(params)
}
