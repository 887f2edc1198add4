// Package embedding talks to an OpenAI-compatible embeddings endpoint
// (LM Studio, Ollama, vLLM and the like).
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client communicates with an OpenAI-compatible API.
type Client struct {
	baseURL    string // e.g. http://127.0.0.1:1234/v1
	model      string // preferred model; empty means auto-detect
	httpClient *http.Client
}

func NewClient(baseURL string, timeout float64, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout * float64(time.Second)),
		},
	}
}

// BaseURL returns the endpoint root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

type Model struct {
	ID     string `json:"id"`
	Object string `json:"object"`
}

type modelsResponse struct {
	Data []Model `json:"data"`
}

type embeddingItem struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data []embeddingItem `json:"data"`
}

// HealthCheck returns true if the server lists at least one model.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return len(c.ListModels(ctx)) > 0
}

// ListModels returns all loaded models, or nil when the server is unreachable.
func (c *Client) ListModels(ctx context.Context) []Model {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("Embedding server health check failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	var result modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Warn("Failed to decode models response", "error", err)
		return nil
	}
	return result.Data
}

var embedKeywords = []string{"embed", "e5", "bge", "gte", "nomic"}

// EmbeddingModel returns the configured model, else the first embedding-like
// model, else the first model listed.
func (c *Client) EmbeddingModel(ctx context.Context) *string {
	if c.model != "" {
		m := c.model
		return &m
	}
	models := c.ListModels(ctx)
	for _, m := range models {
		lower := strings.ToLower(m.ID)
		for _, kw := range embedKeywords {
			if strings.Contains(lower, kw) {
				return &m.ID
			}
		}
	}
	if len(models) > 0 {
		return &models[0].ID
	}
	return nil
}

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string, model *string) ([][]float64, error) {
	if model == nil {
		model = c.EmbeddingModel(ctx)
	}
	if model == nil {
		return nil, fmt.Errorf("no embedding model available at %s", c.baseURL)
	}

	payload, err := json.Marshal(map[string]any{
		"model": *model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embed failed (status %d): %s", resp.StatusCode, string(b))
	}

	var result embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("embed returned %d vectors for %d texts", len(result.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range result.Data {
		idx := item.Index
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("embed returned index %d for %d texts", idx, len(texts))
		}
		if vectors[idx] != nil {
			return nil, fmt.Errorf("embed returned index %d twice", idx)
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("embed returned an empty vector at index %d", idx)
		}
		vectors[idx] = item.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embed returned no vector for text %d", i)
		}
	}
	return vectors, nil
}
