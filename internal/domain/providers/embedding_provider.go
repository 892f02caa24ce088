package providers

import "context"

// EmbeddingProvider turns text into a vector for similarity search.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
