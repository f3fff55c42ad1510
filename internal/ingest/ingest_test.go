package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/internal/chunker"
	"voicerag/internal/domain"
	"voicerag/internal/embedding/hashing"
	"voicerag/internal/extract"
	"voicerag/internal/vectorstore"
	"voicerag/internal/vectorstore/memory"
)

func setupIngestor(t *testing.T, overlap int, opts ...extract.Option) (*Ingestor, *memory.Storage) {
	t.Helper()
	idx, err := memory.NewStorage("documents_collection", 128)
	require.NoError(t, err)
	store := vectorstore.New(idx, hashing.NewEmbedder(128), nil)
	return New(extract.New(opts...), chunker.New(overlap, nil), store, nil), idx
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func nWords(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "word" + strconv.Itoa(i)
	}
	return strings.Join(w, " ")
}

func TestIngestSplitsIntoTwoChunks(t *testing.T) {
	ing, idx := setupIngestor(t, 0)
	path := writeFile(t, t.TempDir(), "Notes.TXT", nWords(60))

	res, err := ing.Ingest(context.Background(), path, 50)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 2, res.Added)
	require.NotNil(t, res.Info)
	assert.Equal(t, 2, res.Info.DocumentCount)
	assert.Equal(t, "documents_collection", res.Info.Name)

	all, err := idx.Query(context.Background(), make([]float32, 128), 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	byIndex := map[any]domain.SearchResult{}
	for _, r := range all {
		byIndex[r.Metadata["chunk_index"]] = r
	}
	second := byIndex[1]
	assert.Len(t, strings.Fields(second.Content), 10)

	abs, _ := filepath.Abs(path)
	assert.Equal(t, "Notes.TXT", second.Metadata["source"])
	assert.Equal(t, 2, second.Metadata["total_chunks"])
	assert.Equal(t, abs, second.Metadata["path"])
	assert.Equal(t, ".txt", second.Metadata["ext"])
	assert.Regexp(t, `^Notes-[0-9a-f]{8}-1$`, second.ID)
	first := byIndex[0]
	assert.Equal(t, strings.TrimSuffix(second.ID, "-1"), strings.TrimSuffix(first.ID, "-0"))
}

func TestIngestUsesOverlap(t *testing.T) {
	ing, _ := setupIngestor(t, chunker.DefaultOverlap)
	path := writeFile(t, t.TempDir(), "long.md", nWords(2500))

	res, err := ing.Ingest(context.Background(), path, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
}

func TestIngestEmptyFile(t *testing.T) {
	ing, idx := setupIngestor(t, 0)
	path := writeFile(t, t.TempDir(), "blank.txt", " \n\t\n")

	res, err := ing.Ingest(context.Background(), path, 50)
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 0, Message: MsgNoText}, res)
	n, _ := idx.Count(context.Background())
	assert.Zero(t, n)
}

func TestIngestMissingFile(t *testing.T) {
	ing, _ := setupIngestor(t, 0)
	_, err := ing.Ingest(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngestInvalidChunkSize(t *testing.T) {
	ing, _ := setupIngestor(t, 0)
	path := writeFile(t, t.TempDir(), "a.txt", "some words")
	_, err := ing.Ingest(context.Background(), path, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

type noChunks struct{}

func (noChunks) Split(string, int) ([]string, error) { return nil, nil }

func TestIngestNoChunks(t *testing.T) {
	idx, _ := memory.NewStorage("c", 8)
	ing := New(extract.New(), noChunks{}, vectorstore.New(idx, hashing.NewEmbedder(8), nil), nil)
	path := writeFile(t, t.TempDir(), "a.txt", "some words")

	res, err := ing.Ingest(context.Background(), path, 10)
	require.NoError(t, err)
	assert.Equal(t, MsgNoChunks, res.Message)
	assert.Zero(t, res.Added)
}

func TestIngestDirTalliesFailures(t *testing.T) {
	ing, idx := setupIngestor(t, 0, extract.Without(extract.FormatPDF))
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "opening hours are nine to five")
	writeFile(t, dir, "b.md", "# Returns\nrefunds take five days")
	writeFile(t, dir, "c.pdf", "%PDF-1.4 placeholder")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested"), "skipped.txt", "not visited")

	sum, err := ing.IngestDir(context.Background(), dir, DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Files, 3)
	assert.ErrorIs(t, sum.Files[2].Err, extract.ErrMissingCapability)

	n, _ := idx.Count(context.Background())
	assert.Equal(t, 2, n)
}

func TestIngestDirRejectsFile(t *testing.T) {
	ing, _ := setupIngestor(t, 0)
	path := writeFile(t, t.TempDir(), "a.txt", "x")
	_, err := ing.IngestDir(context.Background(), path, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = ing.IngestDir(context.Background(), filepath.Join(t.TempDir(), "missing"), 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
