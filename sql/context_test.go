package sql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextCompilationId(t *testing.T) {
	require := require.New(t)

	a := NewContext(context.Background())
	b := NewContext(context.Background())
	require.NotEmpty(a.Id())
	require.NotEmpty(b.Id())
	require.NotEqual(a.Id(), b.Id())
}

func TestContextQuery(t *testing.T) {
	require := require.New(t)

	ctx := NewContext(context.Background(), WithQuery("SELECT 1"))
	require.Equal("SELECT 1", ctx.Query())
	require.NotNil(ctx.Logger())
}
