package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFunctionLookup(t *testing.T) {
	require := require.New(t)
	r := Defaults()

	sig, err := r.Function("sqrt", []Type{Real})
	require.NoError(err)
	require.Equal("SQRT", sig.Name)
	require.Equal(Double, sig.Return)

	// Overloads resolve by arity.
	sig, err = r.Function("ROUND", []Type{Double, Integer})
	require.NoError(err)
	require.Equal("round(($1)::numeric, $2)", sig.Template)

	sig, err = r.Function("CONTAINS", []Type{Point, Circle})
	require.NoError(err)
	require.Equal(Integer, sig.Return)
}

func TestFunctionLookupErrors(t *testing.T) {
	require := require.New(t)
	r := Defaults()

	_, err := r.Function("FROBNICATE", []Type{Double})
	require.True(ErrUnsupportedFunction.Is(err))

	_, err = r.Function("SQRT", []Type{Double, Double})
	require.True(ErrArityMismatch.Is(err))

	_, err = r.Function("SQRT", []Type{Text})
	require.True(ErrTypeMismatch.Is(err))

	_, err = r.Function("DISTANCE", []Type{Point, Circle})
	require.True(ErrTypeMismatch.Is(err))
}

func TestFunctionLoadYAML(t *testing.T) {
	require := require.New(t)
	r := Defaults()

	err := r.LoadYAML([]byte(`
- name: ivo_healpix_index
  params: [integer, double precision, double precision]
  returns: bigint
  template: healpix_nest($1, spoint(radians($2), radians($3)))
  ucd: pos.healpix
`))
	require.NoError(err)

	sig, err := r.Function("ivo_healpix_index", []Type{Integer, Double, Double})
	require.NoError(err)
	require.Equal(Bigint, sig.Return)
	require.Equal("pos.healpix", sig.UCD)

	err = r.LoadYAML([]byte(`
- name: broken
  params: [blob]
  returns: text
`))
	require.True(ErrTypeMismatch.Is(err))
}
