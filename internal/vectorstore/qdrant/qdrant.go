package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"voicerag/internal/domain"
)

// payload keys written next to each point
const (
	keyID       = "record_id"
	keyText     = "text"
	keyMetadata = "metadata"
)

// Storage is a minimal REST client to Qdrant bound to one collection.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

// Open connects to Qdrant and gets or creates the collection.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("dimension %d: %w", cfg.Dimension, domain.ErrInvalidArgument)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) Collection() string { return s.collection }
func (s *Storage) Location() string   { return s.url }

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, url.PathEscape(s.collection), suffix)
}

func (s *Storage) ensureCollection(ctx context.Context) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, &info)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	if status == http.StatusOK {
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != s.dimension {
			return fmt.Errorf("collection %s stores %d-dimensional vectors, embedder produces %d: %w",
				s.collection, size, s.dimension, domain.ErrDimensionMismatch)
		}
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	_, err = s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
	return err
}

// pointID maps a record id onto the UUID space Qdrant accepts.
func pointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}

func (s *Storage) Add(ctx context.Context, records []domain.Record) error {
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}
	points := make([]map[string]any, len(records))
	ids := make([]string, len(records))
	byPoint := make(map[string]string, len(records))
	for i, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("record %s: %w", r.ID, domain.ErrDimensionMismatch)
		}
		ids[i] = pointID(r.ID)
		if _, dup := byPoint[ids[i]]; dup {
			return fmt.Errorf("record %s already exists: %w", r.ID, domain.ErrInvalidArgument)
		}
		byPoint[ids[i]] = r.ID
		points[i] = map[string]any{
			"id":     ids[i],
			"vector": r.Vector,
			"payload": map[string]any{
				keyID:       r.ID,
				keyText:     r.Text,
				keyMetadata: r.Metadata,
			},
		}
	}
	// PUT /points upserts, so existing ids are rejected up front.
	existing, err := s.existing(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("record %s already exists: %w", byPoint[existing[0]], domain.ErrInvalidArgument)
	}
	_, err = s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

// existing returns which of the given point ids are already stored.
func (s *Storage) existing(ctx context.Context, ids []string) ([]string, error) {
	req := map[string]any{
		"ids":          ids,
		"with_payload": false,
		"with_vector":  false,
	}
	var resp struct {
		Result []struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points"), req, &resp); err != nil {
		return nil, fmt.Errorf("lookup points: %w", err)
	}
	out := make([]string, 0, len(resp.Result))
	for _, p := range resp.Result {
		out = append(out, p.ID)
	}
	return out, nil
}

func (s *Storage) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := domain.SearchResult{Score: r.Score}
		if v, ok := r.Payload[keyID].(string); ok {
			res.ID = v
		}
		if v, ok := r.Payload[keyText].(string); ok {
			res.Content = v
		}
		if v, ok := r.Payload[keyMetadata].(map[string]any); ok {
			res.Metadata = v
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Storage) Drop(ctx context.Context) error {
	status, err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	return err
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes the JSON response into out when given.
// The returned status is 0 when no response was received.
func (s *Storage) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}
