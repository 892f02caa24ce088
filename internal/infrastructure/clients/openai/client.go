package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client invokes the OpenAI chat completions API. It implements
// providers.ModelProvider.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
}

// NewClient creates a new OpenAI chat client. A missing API key is a
// deployment defect, surfaced immediately rather than at call time.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}, nil
}

// Model returns the configured chat model name.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatEnvelope struct {
	Choices []chatChoice `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate sends the bound prompt to the chat completions endpoint and
// returns the trimmed response text. Quota and rate-limit failures are
// classified as providers.ErrQuotaExceeded; everything else propagates as-is.
func (c *Client) Generate(ctx context.Context, req providers.ModelRequest) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordModelMetric(ctx, c.model, 0, 0, err)
			return "", err
		}
		recordModelRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		recordModelMetric(ctx, c.model, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		classified := classifyAPIError(resp.StatusCode, raw)
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), classified)
		return "", classified
	}

	var envelope chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	if len(envelope.Choices) == 0 || strings.TrimSpace(envelope.Choices[0].Message.Content) == "" {
		err := errors.New("openai response missing message content")
		recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	recordModelMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return strings.TrimSpace(envelope.Choices[0].Message.Content), nil
}

// classifyAPIError maps provider failures onto the pipeline's sentinel
// errors. Only quota/rate-limit conditions are survivable downstream.
func classifyAPIError(statusCode int, body []byte) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	if statusCode == http.StatusTooManyRequests || isQuotaCode(parsed.Error.Type) || isQuotaCode(parsed.Error.Code) {
		return fmt.Errorf("%w: status %d: %s", providers.ErrQuotaExceeded, statusCode, parsed.Error.Message)
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", providers.ErrModelUnauthorized, statusCode)
	}
	if parsed.Error.Message != "" {
		return fmt.Errorf("openai request failed with status %d: %s", statusCode, parsed.Error.Message)
	}
	return fmt.Errorf("openai request failed with status %d", statusCode)
}

func isQuotaCode(code string) bool {
	switch code {
	case "insufficient_quota", "rate_limit_exceeded", "quota_exceeded":
		return true
	}
	return false
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}
