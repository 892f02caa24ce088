package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/strideloop/fitadvisor-backend/pkg/config"
)

// EmbeddingClient calls the OpenAI embeddings API. It implements
// providers.EmbeddingProvider. Unlike the chat client, construction without a
// credential is not an error here; the caller decides whether retrieval is
// enabled at all.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewEmbeddingClient creates a new embeddings client, or nil when no
// credential is configured.
func NewEmbeddingClient(cfg *config.EmbeddingsConfig) *EmbeddingClient {
	if cfg == nil || cfg.APIKey == "" {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &EmbeddingClient{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingEnvelope struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordModelMetric(ctx, c.model, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("openai embeddings request failed with status %d", resp.StatusCode)
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	var envelope embeddingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	if len(envelope.Data) == 0 || len(envelope.Data[0].Embedding) == 0 {
		err := errors.New("openai embeddings response missing vector")
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return envelope.Data[0].Embedding, nil
}
