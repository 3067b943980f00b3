package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	inner := &StaticEmbedder{
		Vectors: map[string][]float32{
			"hello there": {0.1, 0.2, 0.3},
		},
	}
	cached, err := NewCachedEmbedder(inner, 16)
	require.NoError(t, err)

	v1, err := cached.Embed(ctx, "hello there")
	require.NoError(t, err)
	v2, err := cached.Embed(ctx, "hello there")
	require.NoError(t, err)

	assert.Equal(v1, v2)
	assert.Equal(1, inner.Calls())

	// errors are not cached
	_, err = cached.Embed(ctx, "unknown text")
	assert.Error(err)
	_, err = cached.Embed(ctx, "unknown text")
	assert.Error(err)
	assert.Equal(3, inner.Calls())
}
