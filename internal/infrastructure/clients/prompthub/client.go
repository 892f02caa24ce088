package prompthub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/pkg/config"
)

// Client talks to the remote prompt registry over HTTP. It implements
// providers.PromptProvider. The registry is an optional dependency: callers
// treat every failure here as a cue to fall back to embedded defaults.
type Client struct {
	baseURL     string
	apiKey      string
	environment string
	httpClient  *http.Client
}

// NewClient creates a prompt registry client, or an error when no registry
// endpoint is configured.
func NewClient(cfg *config.PromptHubConfig, environment string) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("prompt registry url is not configured")
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		environment: environment,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

type promptEnvelope struct {
	ID       string `json:"id"`
	Version  int    `json:"version"`
	Template string `json:"template"`
}

// GetPrompt fetches the current template body for a logical prompt id.
func (c *Client) GetPrompt(ctx context.Context, promptID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/prompts/%s", c.baseURL, url.PathEscape(promptID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prompt registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("prompt registry returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope promptEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to decode prompt registry response: %w", err)
	}

	if strings.TrimSpace(envelope.Template) == "" {
		return "", errors.New("prompt registry returned an empty template")
	}

	return envelope.Template, nil
}

// TrackInvocation posts a model-invocation record to the registry's tracking
// endpoint. Callers issue this fire-and-forget; the error return exists for
// logging only.
func (c *Client) TrackInvocation(ctx context.Context, event *providers.PromptInvocation) error {
	if event == nil {
		return errors.New("invocation event is nil")
	}

	if event.Environment == "" {
		event.Environment = c.environment
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/invocations", bytes.NewReader(body))
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracking endpoint returned status %d", resp.StatusCode)
	}

	return nil
}
