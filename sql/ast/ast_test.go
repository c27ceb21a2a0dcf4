package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrovo/adql/sql"
)

func TestTransformExprIdentity(t *testing.T) {
	require := require.New(t)

	e := NewBinaryExpr(Pos{}, "+",
		NewColumnRef(Pos{}, "", "ra", false),
		NewLiteral(Pos{}, int64(1), sql.Integer),
	)

	out, same, err := TransformExpr(e, func(e Expr) (Expr, TreeIdentity, error) {
		return e, SameTree, nil
	})
	require.NoError(err)
	require.True(bool(same))
	require.Equal(e, out)
}

func TestTransformExprRewrite(t *testing.T) {
	require := require.New(t)

	e := NewBinaryExpr(Pos{}, "+",
		NewColumnRef(Pos{}, "", "ra", false),
		NewColumnRef(Pos{}, "", "dec", false),
	)

	out, same, err := TransformExpr(e, func(e Expr) (Expr, TreeIdentity, error) {
		if ref, ok := e.(*ColumnRef); ok && ref.Name == "dec" {
			return NewLiteral(ref.Position(), float64(0), sql.Double), NewTree, nil
		}
		return e, SameTree, nil
	})
	require.NoError(err)
	require.False(bool(same))

	bin := out.(*BinaryExpr)
	_, ok := bin.Right.(*Literal)
	require.True(ok)

	// The original tree is untouched.
	_, ok = e.Right.(*ColumnRef)
	require.True(ok)
}

func TestWithChildrenArity(t *testing.T) {
	require := require.New(t)

	e := NewNot(Pos{}, NewColumnRef(Pos{}, "", "flag", false))
	_, err := e.WithChildren()
	require.True(sql.ErrInvalidChildrenNumber.Is(err))
}

func TestInspectExprStops(t *testing.T) {
	require := require.New(t)

	e := NewAnd(Pos{},
		NewColumnRef(Pos{}, "", "a", false),
		NewColumnRef(Pos{}, "", "b", false),
	)

	var seen []string
	stopped := InspectExpr(e, func(e Expr) bool {
		if ref, ok := e.(*ColumnRef); ok {
			seen = append(seen, ref.Name)
			return ref.Name == "a"
		}
		return false
	})
	require.True(stopped)
	require.Equal([]string{"a"}, seen)
}
