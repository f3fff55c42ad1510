// Package vectorstore persists passages with their vectors and answers
// nearest-neighbour queries for one named collection.
package vectorstore

import (
	"context"

	"voicerag/internal/domain"
)

// Index is the contract a storage backend fulfils for a single collection.
// Backends get-or-create their collection when opened and re-create it on
// the next Add after Drop. Records are never updated in place.
type Index interface {
	Collection() string
	Location() string
	Add(ctx context.Context, records []domain.Record) error
	Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Drop(ctx context.Context) error
	Close() error
}
