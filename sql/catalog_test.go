package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogLookup(t *testing.T) {
	require := require.New(t)

	c := NewCatalog("v1", NewTable("public.Stars",
		&Column{Name: "ra", Type: Double, Unit: "deg"},
	))

	tbl, err := c.Table("PUBLIC.stars")
	require.NoError(err)
	require.Equal("public.Stars", tbl.Name)
	require.Equal("public.Stars", tbl.Columns[0].Source)

	_, err = c.Table("nebulae")
	require.True(ErrUnknownTable.Is(err))
}

func TestCatalogFingerprint(t *testing.T) {
	require := require.New(t)

	a := NewCatalog("v1", NewTable("stars", &Column{Name: "ra", Type: Double}))
	b := NewCatalog("v1", NewTable("stars", &Column{Name: "ra", Type: Double}))
	c := NewCatalog("v1", NewTable("stars", &Column{Name: "ra", Type: Real}))

	require.Equal(a.Fingerprint(), b.Fingerprint())
	require.NotEqual(a.Fingerprint(), c.Fingerprint())
}

func TestParseCatalog(t *testing.T) {
	require := require.New(t)

	c, err := ParseCatalog([]byte(`
version: "2024-01"
tables:
  - name: public.stars
    columns:
      - name: id
        type: bigint
        primary_key: true
      - name: ra
        type: double precision
        unit: deg
        ucd: pos.eq.ra
        spatial_index: true
      - name: Vmag
        type: real
        nullable: true
        case_sensitive: true
`))
	require.NoError(err)
	require.Equal("2024-01", c.Version())

	tbl, err := c.Table("public.stars")
	require.NoError(err)
	require.Len(tbl.Columns, 3)
	require.Equal(Bigint, tbl.Columns[0].Type)
	require.True(tbl.Columns[0].PrimaryKey)
	require.Equal("pos.eq.ra", tbl.Columns[1].UCD)
	require.True(tbl.Columns[1].SpatialIndexed)
	require.True(tbl.Columns[2].CaseSensitive)
	require.Len(tbl.PrimaryKey(), 1)
}

func TestParseCatalogBadType(t *testing.T) {
	_, err := ParseCatalog([]byte(`
version: v1
tables:
  - name: t
    columns:
      - name: c
        type: blob
`))
	require.Error(t, err)
}
