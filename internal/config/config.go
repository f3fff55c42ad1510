package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// GeminiEmbedderConfig holds configuration for the Gemini embedder.
type GeminiEmbedderConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TaskType    string `yaml:"task_type"`
	BaseURL     string `yaml:"base_url,omitempty"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type          string                `yaml:"type"`
	Dimension     int                   `yaml:"dimension"`
	BatchInterval string                `yaml:"batch_interval"`
	Gemini        *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI        *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// Interval parses BatchInterval. Empty means the default of five seconds.
func (e EmbedderConfig) Interval() (time.Duration, error) {
	if e.BatchInterval == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(e.BatchInterval)
}

// ChunkerConfig configures how documents are split into word windows.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Path       string        `yaml:"path"`
	Collection string        `yaml:"collection"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ExtractConfig lists formats whose handlers are switched off.
type ExtractConfig struct {
	DisabledFormats []string `yaml:"disabled_formats,omitempty"`
}

// RetrievalConfig sets how many passages are returned.
type RetrievalConfig struct {
	TopK             int `yaml:"top_k"`
	ConversationTopK int `yaml:"conversation_top_k"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Extract     ExtractConfig     `yaml:"extract"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/voicerag/config.yaml.
// If neither exists, it writes defaults to ~/.config/voicerag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// envOverrides are read with an optional VOICERAG_ prefix, e.g. both
// VOICERAG_VECTOR_DB_PATH and VECTOR_DB_PATH are honored.
type envOverrides struct {
	VectorDBPath   string `envconfig:"VECTOR_DB_PATH"`
	CollectionName string `envconfig:"COLLECTION_NAME"`
	VectorStore    string `envconfig:"VECTOR_STORE"`
	Embedder       string `envconfig:"EMBEDDER"`
	GeminiModel    string `envconfig:"GEMINI_EMBED_MODEL"`
	EmbedDimension int    `envconfig:"EMBED_DIMENSION"`
	BatchInterval  string `envconfig:"EMBED_BATCH_INTERVAL"`
	QdrantURL      string `envconfig:"QDRANT_URL"`
	QdrantAPIKey   string `envconfig:"QDRANT_API_KEY"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
}

// ApplyEnv overlays environment variables on cfg. Unset variables leave the
// file values untouched.
func ApplyEnv(cfg *AppConfig) error {
	var env envOverrides
	if err := envconfig.Process("VOICERAG", &env); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	if env.VectorDBPath != "" {
		cfg.VectorStore.Path = env.VectorDBPath
	}
	if env.CollectionName != "" {
		cfg.VectorStore.Collection = env.CollectionName
	}
	if env.VectorStore != "" {
		cfg.VectorStore.Type = env.VectorStore
	}
	if env.Embedder != "" {
		cfg.Embedder.Type = env.Embedder
	}
	if env.GeminiModel != "" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		cfg.Embedder.Gemini.Model = env.GeminiModel
	}
	if env.EmbedDimension > 0 {
		cfg.Embedder.Dimension = env.EmbedDimension
	}
	if env.BatchInterval != "" {
		cfg.Embedder.BatchInterval = env.BatchInterval
	}
	if env.QdrantURL != "" || env.QdrantAPIKey != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if env.QdrantURL != "" {
			cfg.VectorStore.Qdrant.URL = env.QdrantURL
		}
		if env.QdrantAPIKey != "" {
			cfg.VectorStore.Qdrant.APIKey = env.QdrantAPIKey
		}
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	applyConfigDefaults(cfg)
	return nil
}

// Validate reports settings that would fail later at construction time.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "gemini", "openai", "hashing":
	default:
		return fmt.Errorf("unknown embedder: %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "sqlite", "memory", "qdrant":
	default:
		return fmt.Errorf("unknown vector store: %q", c.VectorStore.Type)
	}
	if c.VectorStore.Type == "qdrant" && (c.VectorStore.Qdrant == nil || c.VectorStore.Qdrant.URL == "") {
		return errors.New("qdrant vector store needs vector_store.qdrant.url")
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder dimension must be positive, got %d", c.Embedder.Dimension)
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if _, err := c.Embedder.Interval(); err != nil {
		return fmt.Errorf("embedder batch_interval: %w", err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "voicerag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type:          "gemini",
			Dimension:     1536,
			BatchInterval: "5s",
			Gemini:        &GeminiEmbedderConfig{},
		},
		Chunker:     ChunkerConfig{ChunkSize: 2000, Overlap: 100},
		VectorStore: VectorStoreConfig{Type: "sqlite", Path: "./vector_db", Collection: "documents_collection"},
		Retrieval:   RetrievalConfig{TopK: 6, ConversationTopK: 4},
		Log:         LogConfig{Level: "info", Format: "text"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 1536
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 2000
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "./vector_db"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "documents_collection"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 6
	}
	if cfg.Retrieval.ConversationTopK == 0 {
		cfg.Retrieval.ConversationTopK = 4
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Embedder.Type == "gemini" {
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		if cfg.Embedder.Gemini.APIKeyEnv == "" {
			cfg.Embedder.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "gemini-embedding-001"
		}
		if cfg.Embedder.Gemini.TaskType == "" {
			cfg.Embedder.Gemini.TaskType = "QUESTION_ANSWERING"
		}
		if cfg.Embedder.Gemini.TimeoutSecs == 0 {
			cfg.Embedder.Gemini.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}
}
