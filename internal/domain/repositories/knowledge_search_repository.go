package repositories

import (
	"context"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
)

// KnowledgeSearchRepository is the query surface of the vector-similarity
// store. Indexing and ingestion happen elsewhere; this pipeline only reads.
type KnowledgeSearchRepository interface {
	// SearchByVector returns up to k chunks nearest to the query vector,
	// ranked by similarity score descending.
	SearchByVector(ctx context.Context, vector []float32, k int) ([]*entities.KnowledgeChunk, error)
}
