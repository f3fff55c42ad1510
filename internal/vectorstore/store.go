package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"voicerag/internal/domain"
	"voicerag/internal/embedding"
	"voicerag/internal/logger"
)

// ErrNoEmbeddings is reported when the embedder produced nothing to store.
var ErrNoEmbeddings = errors.New("no embeddings produced")

// InsertOutcome reports the result of Store.Insert.
type InsertOutcome struct {
	OK    bool
	Added int
	Err   error
}

// QueryOutcome reports the result of Store.Query. A failed query has an
// empty Results slice and a non-nil Err; an empty collection is not a failure.
type QueryOutcome struct {
	Results []domain.SearchResult
	Err     error
}

// OK reports whether the query reached the index.
func (o QueryOutcome) OK() bool { return o.Err == nil }

// Store couples an embedder with an index. Insert and Query never return
// errors; failures are logged and surfaced through their outcome values.
type Store struct {
	index    Index
	embedder embedding.Embedder
	log      *logrus.Entry
}

// New creates a Store over an opened index.
func New(index Index, embedder embedding.Embedder, log *logrus.Entry) *Store {
	return &Store{index: index, embedder: embedder, log: logger.OrDiscard(log)}
}

// Insert embeds texts and adds them to the collection. Missing ids default to
// "doc_<i>" and missing metadata to {"source": "document_<i>"}.
func (s *Store) Insert(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) InsertOutcome {
	if err := s.insert(ctx, texts, metadatas, ids); err != nil {
		s.log.WithError(err).WithField("texts", len(texts)).Error("adding documents failed")
		return InsertOutcome{Err: err}
	}
	s.log.WithField("added", len(texts)).Info("documents added")
	return InsertOutcome{OK: true, Added: len(texts)}
}

func (s *Store) insert(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) error {
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return ErrNoEmbeddings
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("got %d embeddings for %d texts: %w", len(vectors), len(texts), domain.ErrInvalidArgument)
	}
	if len(ids) == 0 {
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = fmt.Sprintf("doc_%d", i)
		}
	}
	if len(metadatas) == 0 {
		metadatas = make([]map[string]any, len(texts))
		for i := range metadatas {
			metadatas[i] = map[string]any{"source": fmt.Sprintf("document_%d", i)}
		}
	}
	if len(ids) != len(texts) || len(metadatas) != len(texts) {
		return fmt.Errorf("texts, ids and metadatas length mismatch: %w", domain.ErrInvalidArgument)
	}
	records := make([]domain.Record, len(texts))
	for i := range texts {
		if len(vectors[i]) != s.embedder.Dimension() {
			return fmt.Errorf("record %s has %d values, want %d: %w", ids[i], len(vectors[i]), s.embedder.Dimension(), domain.ErrDimensionMismatch)
		}
		records[i] = domain.Record{ID: ids[i], Vector: vectors[i], Text: texts[i], Metadata: metadatas[i]}
	}
	return s.index.Add(ctx, records)
}

// Query returns up to k stored passages closest to text.
func (s *Store) Query(ctx context.Context, text string, k int) QueryOutcome {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.log.WithError(err).Error("embedding query failed")
		return QueryOutcome{Results: []domain.SearchResult{}, Err: err}
	}
	if len(vec) == 0 || k <= 0 {
		return QueryOutcome{Results: []domain.SearchResult{}}
	}
	results, err := s.index.Query(ctx, vec, k)
	if err != nil {
		s.log.WithError(err).Error("searching collection failed")
		return QueryOutcome{Results: []domain.SearchResult{}, Err: err}
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	s.log.WithFields(logrus.Fields{"k": k, "hits": len(results)}).Debug("query served")
	return QueryOutcome{Results: results}
}

// DeleteCollection removes the collection and everything in it.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if err := s.index.Drop(ctx); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.index.Collection(), err)
	}
	s.log.WithField("collection", s.index.Collection()).Info("collection deleted")
	return nil
}

// Info describes the collection.
func (s *Store) Info(ctx context.Context) (domain.CollectionInfo, error) {
	n, err := s.index.Count(ctx)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("count collection %s: %w", s.index.Collection(), err)
	}
	return domain.CollectionInfo{
		Name:          s.index.Collection(),
		DocumentCount: n,
		Location:      s.index.Location(),
	}, nil
}

// Close releases the index.
func (s *Store) Close() error {
	return s.index.Close()
}
