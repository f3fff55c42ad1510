// Package embedding defines the text-to-vector boundary and the throttled
// batch behavior shared by every provider.
package embedding

import (
	"context"
	"fmt"

	"voicerag/internal/domain"
)

// DefaultDimension is the vector length produced for every stored passage.
const DefaultDimension = 1536

// Embedder converts free text into a fixed-length vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Single is the minimal per-text capability a provider has to offer.
type Single interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedEach embeds texts one at a time, in order. The first failure aborts
// the batch.
func EmbedEach(ctx context.Context, e Single, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed text %d of %d: %w", i+1, len(texts), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// CheckDimension verifies a provider response has the expected length.
func CheckDimension(v []float32, dim int) error {
	if len(v) == 0 {
		return domain.ErrEmptyEmbedding
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("got %d values, want %d: %w", len(v), dim, domain.ErrDimensionMismatch)
	}
	return nil
}
