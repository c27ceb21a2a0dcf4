package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineMultiplicative(t *testing.T) {
	require := require.New(t)

	ra := &FieldInfo{Type: Double, Unit: "deg", UCD: "pos.eq.ra"}
	flux := &FieldInfo{Type: Real, Unit: "Jy", UCD: "phot.flux"}
	scalar := &FieldInfo{Type: Integer}

	fi := CombineMultiplicative("*", ra, flux)
	require.Equal("deg*Jy", fi.Unit)
	require.Empty(fi.UCD)
	require.Equal(Double, fi.Type)
	require.True(fi.Tainted)

	fi = CombineMultiplicative("/", ra, flux)
	require.Equal("deg/(Jy)", fi.Unit)

	// A dimensionless factor keeps the other side's metadata.
	fi = CombineMultiplicative("*", ra, scalar)
	require.Equal("deg", fi.Unit)
	require.Equal("pos.eq.ra", fi.UCD)
	require.True(fi.Tainted)
}

func TestCombineAdditive(t *testing.T) {
	require := require.New(t)

	ra := &FieldInfo{Type: Double, Unit: "deg", UCD: "pos.eq.ra"}
	dec := &FieldInfo{Type: Double, Unit: "deg", UCD: "pos.eq.dec"}
	flux := &FieldInfo{Type: Real, Unit: "Jy", UCD: "phot.flux"}

	fi := CombineAdditive(ra, dec)
	require.Equal("deg", fi.Unit)
	require.Empty(fi.UCD)

	fi = CombineAdditive(ra, flux)
	require.Empty(fi.Unit)
	require.Empty(fi.UCD)
	require.Equal(Double, fi.Type)

	fi = CombineAdditive(ra, ra)
	require.Equal("pos.eq.ra", fi.UCD)
}
