package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voicerag/internal/chunker"
	"voicerag/internal/config"
	"voicerag/internal/embedding"
	"voicerag/internal/embedding/gemini"
	"voicerag/internal/embedding/hashing"
	"voicerag/internal/embedding/openai"
	"voicerag/internal/extract"
	"voicerag/internal/ingest"
	"voicerag/internal/logger"
	"voicerag/internal/retrieval"
	"voicerag/internal/vectorstore"
	"voicerag/internal/vectorstore/memory"
	"voicerag/internal/vectorstore/qdrant"
	"voicerag/internal/vectorstore/sqlite"
)

// app holds the components shared by every command. One store is opened
// per process and injected into ingestion and retrieval.
type app struct {
	cfg       *config.AppConfig
	store     *vectorstore.Store
	ingestor  *ingest.Ingestor
	retrieval *retrieval.Service
}

// loadConfig resolves the config file, environment overrides and logging.
func loadConfig(cmd *cobra.Command, logOut io.Writer) (*config.AppConfig, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Log.Format, logOut); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return cfg, nil
}

func openApp(ctx context.Context, cfg *config.AppConfig) (*app, error) {
	emb, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	index, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ext, err := buildExtractor(cfg)
	if err != nil {
		index.Close()
		return nil, err
	}

	store := vectorstore.New(index, emb, logger.For("vectorstore"))
	return &app{
		cfg:       cfg,
		store:     store,
		ingestor:  ingest.New(ext, chunker.New(cfg.Chunker.Overlap, logger.For("chunker")), store, logger.For("ingest")),
		retrieval: retrieval.New(store, logger.For("retrieval")),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig) (embedding.Embedder, error) {
	interval, err := cfg.Embedder.Interval()
	if err != nil {
		return nil, err
	}
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "gemini":
		g := cfg.Embedder.Gemini
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKeyEnv: g.APIKeyEnv,
			Model:     g.Model,
			TaskType:  g.TaskType,
			Dimension: cfg.Embedder.Dimension,
			BaseURL:   g.BaseURL,
			Timeout:   time.Duration(g.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder init failed: %w", err)
		}
		emb = client
	case "openai":
		o := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Dimension: cfg.Embedder.Dimension,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "hashing":
		emb = hashing.NewEmbedder(cfg.Embedder.Dimension)
		interval = 0
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
	return embedding.NewThrottled(emb, interval, logger.For("embedding")), nil
}

func openIndex(ctx context.Context, cfg *config.AppConfig) (vectorstore.Index, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "sqlite":
		return sqlite.Open(ctx, vs.Path, vs.Collection, cfg.Embedder.Dimension)
	case "memory":
		return memory.NewStorage(vs.Collection, cfg.Embedder.Dimension)
	case "qdrant":
		if vs.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.Open(ctx, qdrant.Config{
			URL:        vs.Qdrant.URL,
			APIKey:     vs.Qdrant.APIKey,
			Collection: vs.Collection,
			Dimension:  cfg.Embedder.Dimension,
			Timeout:    time.Duration(vs.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
	}
}

func buildExtractor(cfg *config.AppConfig) (*extract.Extractor, error) {
	var disabled []extract.Format
	for _, name := range cfg.Extract.DisabledFormats {
		f := extract.Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case extract.FormatText, extract.FormatPDF, extract.FormatDOCX, extract.FormatXLSX,
			extract.FormatCSV, extract.FormatHTML, extract.FormatJSON:
			disabled = append(disabled, f)
		default:
			return nil, fmt.Errorf("unknown format in extract.disabled_formats: %q", name)
		}
	}
	return extract.New(extract.Without(disabled...), extract.WithLogger(logger.For("extract"))), nil
}
