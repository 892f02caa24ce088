package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/strideloop/fitadvisor-backend/internal/domain/providers"
	"github.com/strideloop/fitadvisor-backend/internal/domain/repositories"
)

// DefaultRetrievalK bounds the number of knowledge chunks retrieved per
// generation.
const DefaultRetrievalK = 5

// ContextHeading delimits retrieved knowledge from the authoritative survey
// facts inside the bound prompt.
const ContextHeading = "CONTEXT (optional, use only if relevant):"

// ContextRetrievalService embeds the normalized survey text and queries the
// vector store for nearby knowledge chunks. It is built for total isolation:
// a missing embedding credential, an embedding failure, or a store failure
// all degrade to "no context" rather than failing the pipeline.
type ContextRetrievalService struct {
	embedder providers.EmbeddingProvider
	store    repositories.KnowledgeSearchRepository
}

// NewContextRetrievalService creates a new retrieval service. Either
// dependency may be nil, which disables retrieval entirely.
func NewContextRetrievalService(embedder providers.EmbeddingProvider, store repositories.KnowledgeSearchRepository) *ContextRetrievalService {
	return &ContextRetrievalService{
		embedder: embedder,
		store:    store,
	}
}

// Retrieve returns up to k knowledge chunks relevant to the survey text,
// ranked by score descending. It never returns an error; every failure is
// logged and swallowed into an empty result.
func (s *ContextRetrievalService) Retrieve(ctx context.Context, surveyText string, k int) []*entities.KnowledgeChunk {
	if s == nil || s.embedder == nil || s.store == nil {
		return nil
	}
	if strings.TrimSpace(surveyText) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultRetrievalK
	}

	vector, err := s.embedder.Embed(ctx, surveyText)
	if err != nil {
		log.Warn().Err(err).Msg("context retrieval: embedding failed, proceeding without context")
		return nil
	}

	chunks, err := s.store.SearchByVector(ctx, vector, k)
	if err != nil {
		log.Warn().Err(err).Msg("context retrieval: vector search failed, proceeding without context")
		return nil
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	return chunks
}

// FormatAsContext renders chunks as a bulleted "name: content" list, or an
// empty string for zero chunks.
func FormatAsContext(chunks []*entities.KnowledgeChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var b strings.Builder
	for _, chunk := range chunks {
		if chunk == nil || strings.TrimSpace(chunk.Content) == "" {
			continue
		}
		name := strings.TrimSpace(chunk.Name)
		if name == "" {
			name = chunk.ChunkID
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", name, strings.TrimSpace(chunk.Content)))
	}

	return strings.TrimRight(b.String(), "\n")
}

// AppendContext attaches the formatted context block to the survey text
// under the delimiting heading. With no usable chunks the survey text is
// returned unchanged.
func AppendContext(surveyText string, chunks []*entities.KnowledgeChunk) string {
	formatted := FormatAsContext(chunks)
	if formatted == "" {
		return surveyText
	}
	return surveyText + "\n\n" + ContextHeading + "\n" + formatted
}
