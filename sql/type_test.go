package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubsume(t *testing.T) {
	require := require.New(t)

	require.Equal(Integer, Subsume(Smallint, Integer))
	require.Equal(Double, Subsume(Real, Double))
	require.Equal(Double, Subsume(Bigint, Double))
	require.Equal(Real, Subsume(Real, Real))
	require.Equal(Integer, Subsume(Null, Integer))
	require.Equal(Integer, Subsume(Integer, Null))
	require.Equal(Text, Subsume(Integer, Text))
	require.Equal(Text, Subsume(Timestamp, Double))
}

func TestAcceptsArg(t *testing.T) {
	require := require.New(t)

	require.True(AcceptsArg(Double, Smallint))
	require.True(AcceptsArg(Integer, Double))
	require.True(AcceptsArg(Double, Null))
	require.True(AcceptsArg(Geometry, Point))
	require.True(AcceptsArg(Geometry, Polygon))
	require.False(AcceptsArg(Geometry, Text))
	require.False(AcceptsArg(Double, Text))
	require.False(AcceptsArg(Point, Circle))
}

func TestComparable(t *testing.T) {
	require := require.New(t)

	require.True(Comparable(Smallint, Double))
	require.True(Comparable(Text, Text))
	require.True(Comparable(Null, Point))
	require.False(Comparable(Text, Double))
	require.False(Comparable(Point, Circle))
}

func TestTypeFromName(t *testing.T) {
	require := require.New(t)

	cases := map[string]Type{
		"double precision": Double,
		"DOUBLE":           Double,
		"varchar":          Text,
		"char":             Text,
		"int":              Integer,
		"spoint":           Point,
	}
	for name, want := range cases {
		got, ok := TypeFromName(name)
		require.True(ok, name)
		require.Equal(want, got, name)
	}

	_, ok := TypeFromName("blob")
	require.False(ok)
}

func TestConvert(t *testing.T) {
	require := require.New(t)

	v, err := Integer.Convert("42")
	require.NoError(err)
	require.Equal(int32(42), v)

	v, err = Double.Convert("4.25")
	require.NoError(err)
	require.Equal(4.25, v)

	_, err = Integer.Convert("not a number")
	require.Error(err)
}
