package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Embedder.Type)
	assert.Equal(t, 1536, cfg.Embedder.Dimension)
	assert.Equal(t, "QUESTION_ANSWERING", cfg.Embedder.Gemini.TaskType)
	assert.Equal(t, "GOOGLE_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
	assert.Equal(t, 2000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
	assert.Equal(t, "./vector_db", cfg.VectorStore.Path)
	assert.Equal(t, "documents_collection", cfg.VectorStore.Collection)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.Equal(t, 4, cfg.Retrieval.ConversationTopK)
	require.NoError(t, cfg.Validate())

	d, err := cfg.Embedder.Interval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: openai
  batch_interval: 250ms
chunker:
  chunk_size: 500
extract:
  disabled_formats: [pdf]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, []string{"pdf"}, cfg.Extract.DisabledFormats)
	d, err := cfg.Embedder.Interval()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.VectorStore.Collection = "faq"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("VECTOR_DB_PATH", "/data/vectors")
	t.Setenv("COLLECTION_NAME", "support")
	t.Setenv("GEMINI_EMBED_MODEL", "text-embedding-004")
	t.Setenv("VOICERAG_EMBED_DIMENSION", "768")
	t.Setenv("QDRANT_URL", "http://localhost:6333")

	cfg := defaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "/data/vectors", cfg.VectorStore.Path)
	assert.Equal(t, "support", cfg.VectorStore.Collection)
	assert.Equal(t, "text-embedding-004", cfg.Embedder.Gemini.Model)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "sqlite", cfg.VectorStore.Type)
}

func TestApplyEnvRejectsBadNumber(t *testing.T) {
	t.Setenv("EMBED_DIMENSION", "lots")
	assert.Error(t, ApplyEnv(defaultConfig()))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"embedder":  func(c *AppConfig) { c.Embedder.Type = "word2vec" },
		"store":     func(c *AppConfig) { c.VectorStore.Type = "chroma" },
		"qdrant":    func(c *AppConfig) { c.VectorStore.Type = "qdrant" },
		"dimension": func(c *AppConfig) { c.Embedder.Dimension = -1 },
		"chunk":     func(c *AppConfig) { c.Chunker.ChunkSize = -5 },
		"interval":  func(c *AppConfig) { c.Embedder.BatchInterval = "soon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
