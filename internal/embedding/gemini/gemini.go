// Package gemini embeds text with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"

	"voicerag/internal/domain"
	"voicerag/internal/embedding"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-embedding-001"
	// TaskQuestionAnswering tunes embeddings for question/passage matching.
	TaskQuestionAnswering = "QUESTION_ANSWERING"
)

// Config configures the Gemini embedder.
type Config struct {
	APIKeyEnv string
	Model     string
	TaskType  string
	Dimension int
	BaseURL   string
	Timeout   time.Duration
}

// Client implements embedding.Embedder on top of the genai SDK.
type Client struct {
	models    *genai.Models
	model     string
	taskType  string
	dimension int
}

// NewClient builds a Gemini embedder. It fails when the API key variable is empty.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GOOGLE_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("env %s is empty: %w", cfg.APIKeyEnv, domain.ErrMissingCredentials)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.TaskType == "" {
		cfg.TaskType = TaskQuestionAnswering
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = embedding.DefaultDimension
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		models:    client.Models,
		model:     cfg.Model,
		taskType:  cfg.TaskType,
		dimension: cfg.Dimension,
	}, nil
}

func (c *Client) Name() string   { return "gemini" }
func (c *Client) Dimension() int { return c.dimension }

// Embed returns the vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             c.taskType,
		OutputDimensionality: genai.Ptr(int32(c.dimension)),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, domain.ErrEmptyEmbedding
	}
	v := resp.Embeddings[0].Values
	if err := embedding.CheckDimension(v, c.dimension); err != nil {
		return nil, err
	}
	return v, nil
}

// EmbedBatch embeds texts one call at a time. Pacing is left to embedding.Throttled.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedding.EmbedEach(ctx, c, texts)
}
