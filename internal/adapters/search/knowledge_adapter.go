package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
	tsclient "github.com/strideloop/fitadvisor-backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const collectionName = tsclient.KnowledgeCollection

// KnowledgeAdapter implements knowledge chunk similarity search using
// Typesense. Ingestion of the collection is handled by a separate pipeline;
// this adapter only queries it.
type KnowledgeAdapter struct {
	client *tsclient.Client
}

// Ensure KnowledgeAdapter implements KnowledgeSearchRepository
var _ repositories.KnowledgeSearchRepository = (*KnowledgeAdapter)(nil)

// NewKnowledgeAdapter creates a new Typesense knowledge adapter.
func NewKnowledgeAdapter(client *tsclient.Client) *KnowledgeAdapter {
	return &KnowledgeAdapter{client: client}
}

// embeddingDims matches the text-embedding-3-small output width.
const embeddingDims = 1536

// InitSchema creates the knowledge chunk collection if it doesn't exist
func (a *KnowledgeAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "name", Type: "string"},
			{Name: "content", Type: "string"},
			{Name: "embedding", Type: "float[]", NumDim: pointer.Int(embeddingDims)},
		},
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create knowledge collection: %w", err)
	}

	return nil
}

// IndexChunk adds or updates a knowledge chunk document with its embedding.
func (a *KnowledgeAdapter) IndexChunk(ctx context.Context, chunk *entities.KnowledgeChunk, embedding []float32) error {
	if chunk == nil || chunk.ChunkID == "" {
		return fmt.Errorf("chunk id is required")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("chunk embedding is required")
	}

	document := map[string]interface{}{
		"id":        chunk.ChunkID,
		"name":      chunk.Name,
		"content":   chunk.Content,
		"embedding": embedding,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index knowledge chunk %s: %w", chunk.ChunkID, err)
	}

	return nil
}

// SearchByVector returns up to k chunks nearest to the query vector, ranked
// by similarity score descending.
func (a *KnowledgeAdapter) SearchByVector(ctx context.Context, vector []float32, k int) ([]*entities.KnowledgeChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if k <= 0 {
		k = 5
	}

	searchParams := &api.SearchCollectionParams{
		Q:           pointer.String("*"),
		QueryBy:     pointer.String("content"),
		VectorQuery: pointer.String(fmt.Sprintf("embedding:(%s, k:%d)", formatVector(vector), k)),
		PerPage:     pointer.Int(k),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge chunks: %w", err)
	}

	chunks := []*entities.KnowledgeChunk{}
	if result.Hits == nil {
		return chunks, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document

		chunk := &entities.KnowledgeChunk{}
		if val, ok := doc["id"].(string); ok {
			chunk.ChunkID = val
		}
		if val, ok := doc["name"].(string); ok {
			chunk.Name = val
		}
		if val, ok := doc["content"].(string); ok {
			chunk.Content = val
		}
		if meta, ok := doc["metadata"].(map[string]interface{}); ok {
			chunk.Metadata = make(map[string]string, len(meta))
			for key, value := range meta {
				if str, ok := value.(string); ok {
					chunk.Metadata[key] = str
				}
			}
		}
		if hit.VectorDistance != nil {
			// Typesense reports cosine distance; invert so larger is closer.
			chunk.Score = 1 - float64(*hit.VectorDistance)
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func formatVector(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
