package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestEmbedFixedDimensionAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	v, err := e.Embed(context.Background(), "Refunds are processed within five business days")
	require.NoError(t, err)
	require.Len(t, v, 64)
	assert.InDelta(t, 1.0, math.Sqrt(cosine(v, v)), 1e-5)
}

func TestEmbedDefaultDimension(t *testing.T) {
	assert.Equal(t, 1536, NewEmbedder(0).Dimension())
}

func TestEmbedDeterministic(t *testing.T) {
	a, err := NewEmbedder(128).Embed(context.Background(), "store hours on sunday")
	require.NoError(t, err)
	b, err := NewEmbedder(128).Embed(context.Background(), "store hours on sunday")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbedRanksOverlapHigher(t *testing.T) {
	e := NewEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "what are the opening hours")
	near, _ := e.Embed(ctx, "Opening hours are nine to five on weekdays")
	far, _ := e.Embed(ctx, "Shipping costs depend on parcel weight")
	assert.Greater(t, cosine(q, near), cosine(q, far))
}

func TestEmbedOnlyStopwordsIsZeroVector(t *testing.T) {
	v, err := NewEmbedder(16).Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	e := NewEmbedder(32)
	ctx := context.Background()
	batch, err := e.EmbedBatch(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	alpha, _ := e.Embed(ctx, "alpha")
	assert.Equal(t, alpha, batch[0])
}

func TestEmbedCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbedder(8).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
