package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/internal/domain"
)

// setupTestStore opens a store in a temporary directory.
func setupTestStore(t *testing.T, dir string, dim int) *Store {
	t.Helper()
	s, err := Open(context.Background(), dir, "documents_collection", dim)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func sampleRecords() []domain.Record {
	return []domain.Record{
		{ID: "a-0", Vector: []float32{1, 0, 0}, Text: "refund policy", Metadata: map[string]any{"source": "a.txt", "chunk_index": 0}},
		{ID: "a-1", Vector: []float32{0, 1, 0}, Text: "shipping times", Metadata: map[string]any{"source": "a.txt", "chunk_index": 1}},
		{ID: "b-0", Vector: []float32{0.9, 0.1, 0}, Text: "returns and refunds", Metadata: map[string]any{"source": "b.md", "score": 0.5}},
	}
}

func TestAddQueryCount(t *testing.T) {
	s := setupTestStore(t, t.TempDir(), 3)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, sampleRecords()))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "refund policy", res[0].Content)
	assert.Equal(t, "returns and refunds", res[1].Content)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, int64(0), res[0].Metadata["chunk_index"])
	assert.Equal(t, 0.5, res[1].Metadata["score"])
}

func TestQueryEmptyCollection(t *testing.T) {
	s := setupTestStore(t, t.TempDir(), 3)
	res, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(ctx, dir, "documents_collection", 3)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, sampleRecords()))
	require.NoError(t, first.Close())

	second := setupTestStore(t, dir, 3)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, dir, second.Location())
}

func TestReopenWithOtherDimensionFails(t *testing.T) {
	dir := t.TempDir()
	setupTestStore(t, dir, 3)

	_, err := Open(context.Background(), dir, "documents_collection", 4)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollectionsAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	a := setupTestStore(t, dir, 3)
	b, err := Open(ctx, dir, "other", 3)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Add(ctx, sampleRecords()))
	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDuplicateIDFailsWholeBatch(t *testing.T) {
	s := setupTestStore(t, t.TempDir(), 3)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, sampleRecords()[:1]))

	err := s.Add(ctx, sampleRecords())
	require.Error(t, err)
	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestAddRejectsWrongDimension(t *testing.T) {
	s := setupTestStore(t, t.TempDir(), 3)
	err := s.Add(context.Background(), []domain.Record{{ID: "x", Vector: []float32{1, 2}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDropThenReuse(t *testing.T) {
	s := setupTestStore(t, t.TempDir(), 3)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, sampleRecords()))
	require.NoError(t, s.Drop(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Add(ctx, sampleRecords()))
	n, _ = s.Count(ctx)
	assert.Equal(t, 3, n)
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
