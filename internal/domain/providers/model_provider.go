package providers

import (
	"context"
	"errors"
)

// ErrQuotaExceeded signals the model provider reported rate/quota exhaustion.
// It is the only model error the pipeline recovers from (via the degradation
// fallback); every other error propagates to the caller.
var ErrQuotaExceeded = errors.New("model provider quota exceeded")

// ErrModelUnauthorized signals a rejected provider credential.
var ErrModelUnauthorized = errors.New("model provider rejected credentials")

// ModelRequest is a single bound prompt ready for the model provider.
type ModelRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// ModelProvider invokes the LLM and returns trimmed plain text.
type ModelProvider interface {
	Generate(ctx context.Context, req ModelRequest) (string, error)
	Model() string
}
