package providers

import "context"

// PromptProvider fetches versioned prompt templates from a remote registry
// and records model invocations against them.
type PromptProvider interface {
	// GetPrompt returns the template body for a logical prompt id.
	GetPrompt(ctx context.Context, promptID string) (string, error)

	// TrackInvocation records a model call for observability. Callers issue
	// this fire-and-forget; failures must never affect the pipeline result.
	TrackInvocation(ctx context.Context, event *PromptInvocation) error
}

// PromptInvocation describes one model call for prompt analytics.
type PromptInvocation struct {
	PromptID     string                 `json:"prompt_id"`
	Variables    map[string]string      `json:"variables"`
	Environment  string                 `json:"environment"`
	FromRegistry bool                   `json:"from_registry"`
	ChunkCount   int                    `json:"chunk_count"`
	Model        string                 `json:"model"`
	Temperature  float64                `json:"temperature"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}
