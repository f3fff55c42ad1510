// Package retrieval answers knowledge-base lookups for the conversation layer.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"voicerag/internal/domain"
	"voicerag/internal/logger"
	"voicerag/internal/vectorstore"
)

const (
	// DefaultTopK is the number of passages returned when callers pass no limit.
	DefaultTopK = 6

	NoResults   = "No relevant information found in the knowledge base."
	Unavailable = "I’m having trouble accessing the knowledge base right now."
)

// Searcher is the read side of the vector store.
type Searcher interface {
	Query(ctx context.Context, text string, k int) vectorstore.QueryOutcome
}

// Service formats nearest passages as a context block for a language model.
type Service struct {
	store Searcher
	log   *logrus.Entry
}

func New(store Searcher, log *logrus.Entry) *Service {
	return &Service{store: store, log: logger.OrDiscard(log)}
}

// Search returns the raw outcome, distinguishing "no results" from "store unavailable".
func (s *Service) Search(ctx context.Context, query string, topK int) vectorstore.QueryOutcome {
	if topK <= 0 {
		topK = DefaultTopK
	}
	s.log.WithFields(logrus.Fields{"query": query, "top_k": topK}).Debug("knowledge base query")
	return s.store.Query(ctx, query, topK)
}

// Retrieve returns the formatted context for query. It never fails: a store
// failure yields Unavailable and an empty result yields NoResults.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) string {
	out := s.Search(ctx, query, topK)
	if !out.OK() {
		s.log.WithError(out.Err).Error("knowledge base lookup failed")
		return Unavailable
	}
	return Format(out.Results)
}

// Format renders results as numbered reference blocks.
func Format(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoResults
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Reference %d:\n%s\n", i+1, r.Content)
	}
	return strings.Join(parts, "\n")
}
