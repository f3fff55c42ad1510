package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/internal/domain"
)

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("VOICERAG_TEST_GEMINI_KEY", "")
	_, err := NewClient(context.Background(), Config{APIKeyEnv: "VOICERAG_TEST_GEMINI_KEY"})
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestEmbedRequestsTaskAndDimension(t *testing.T) {
	t.Setenv("VOICERAG_TEST_GEMINI_KEY", "test-key")

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-embedding-001:batchEmbedContents"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[0.5,0.25,0.125,0]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{
		APIKeyEnv: "VOICERAG_TEST_GEMINI_KEY",
		Dimension: 4,
		BaseURL:   srv.URL,
	})
	require.NoError(t, err)

	v, err := c.Embed(context.Background(), "When is the store open?")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25, 0.125, 0}, v)

	requests, ok := body["requests"].([]any)
	require.True(t, ok, "batch request body: %v", body)
	require.Len(t, requests, 1)
	req := requests[0].(map[string]any)
	assert.Equal(t, "QUESTION_ANSWERING", req["taskType"])
	assert.EqualValues(t, 4, req["outputDimensionality"])
}

func TestEmbedDimensionMismatch(t *testing.T) {
	t.Setenv("VOICERAG_TEST_GEMINI_KEY", "test-key")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,2]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{APIKeyEnv: "VOICERAG_TEST_GEMINI_KEY", Dimension: 4, BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}
