package memory

import (
	"context"
	"fmt"
	"sync"

	"voicerag/internal/domain"
	"voicerag/internal/vectorstore"
)

// Storage is an in-memory collection ranked by brute-force cosine similarity.
// Contents are lost when the process exits.
type Storage struct {
	mu         sync.RWMutex
	collection string
	dimension  int
	records    []domain.Record
	ids        map[string]struct{}
}

func NewStorage(collection string, dimension int) (*Storage, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension %d: %w", dimension, domain.ErrInvalidArgument)
	}
	return &Storage{collection: collection, dimension: dimension, ids: map[string]struct{}{}}, nil
}

func (s *Storage) Collection() string { return s.collection }
func (s *Storage) Location() string   { return "memory" }

func (s *Storage) Add(_ context.Context, records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make(map[string]struct{}, len(records))
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("record %s: %w", r.ID, domain.ErrDimensionMismatch)
		}
		_, dup := s.ids[r.ID]
		_, dupBatch := batch[r.ID]
		if dup || dupBatch {
			return fmt.Errorf("record %s already exists: %w", r.ID, domain.ErrInvalidArgument)
		}
		batch[r.ID] = struct{}{}
	}
	for _, r := range records {
		s.ids[r.ID] = struct{}{}
		s.records = append(s.records, r)
	}
	return nil
}

func (s *Storage) Query(_ context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	scores := make([]float64, len(s.records))
	for i := range s.records {
		scores[i] = vectorstore.Cosine(s.records[i].Vector, vector)
	}
	idxs := vectorstore.TopK(scores, k)
	results := make([]domain.SearchResult, 0, len(idxs))
	for _, j := range idxs {
		r := s.records[j]
		results = append(results, domain.SearchResult{ID: r.ID, Content: r.Text, Score: scores[j], Metadata: r.Metadata})
	}
	return results, nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *Storage) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.ids = map[string]struct{}{}
	return nil
}

func (s *Storage) Close() error { return nil }
