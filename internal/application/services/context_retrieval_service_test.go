package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/strideloop/fitadvisor-backend/internal/application/services"
	"github.com/strideloop/fitadvisor-backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vector, nil
}

type stubKnowledgeStore struct {
	chunks []*entities.KnowledgeChunk
	err    error
	calls  int
}

func (s *stubKnowledgeStore) SearchByVector(_ context.Context, _ []float32, _ int) ([]*entities.KnowledgeChunk, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

func TestContextRetrieval_DisabledWithoutEmbedder(t *testing.T) {
	store := &stubKnowledgeStore{}
	svc := services.NewContextRetrievalService(nil, store)

	chunks := svc.Retrieve(context.Background(), "Primary goal: lose weight", 5)

	assert.Nil(t, chunks)
	assert.Zero(t, store.calls)
}

func TestContextRetrieval_DisabledWithoutStore(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1}}
	svc := services.NewContextRetrievalService(embedder, nil)

	chunks := svc.Retrieve(context.Background(), "Primary goal: lose weight", 5)

	assert.Nil(t, chunks)
	assert.Zero(t, embedder.calls)
}

func TestContextRetrieval_EmbeddingFailureSwallowed(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedding api down")}
	store := &stubKnowledgeStore{}
	svc := services.NewContextRetrievalService(embedder, store)

	chunks := svc.Retrieve(context.Background(), "Primary goal: lose weight", 5)

	assert.Nil(t, chunks)
	assert.Zero(t, store.calls)
}

func TestContextRetrieval_SearchFailureSwallowed(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	store := &stubKnowledgeStore{err: errors.New("search down")}
	svc := services.NewContextRetrievalService(embedder, store)

	chunks := svc.Retrieve(context.Background(), "Primary goal: lose weight", 5)

	assert.Nil(t, chunks)
}

func TestContextRetrieval_SortsByScoreDescending(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{0.1, 0.2}}
	store := &stubKnowledgeStore{chunks: []*entities.KnowledgeChunk{
		{ChunkID: "a", Content: "low", Score: 0.2},
		{ChunkID: "b", Content: "high", Score: 0.9},
		{ChunkID: "c", Content: "mid", Score: 0.5},
	}}
	svc := services.NewContextRetrievalService(embedder, store)

	chunks := svc.Retrieve(context.Background(), "Primary goal: lose weight", 5)

	assert.Len(t, chunks, 3)
	assert.Equal(t, "b", chunks[0].ChunkID)
	assert.Equal(t, "c", chunks[1].ChunkID)
	assert.Equal(t, "a", chunks[2].ChunkID)
}

func TestFormatAsContext(t *testing.T) {
	chunks := []*entities.KnowledgeChunk{
		{Name: "Progressive overload", Content: "Increase load gradually."},
		{ChunkID: "chunk-2", Content: "Rest days matter."},
		{Name: "Empty", Content: "   "},
	}

	out := services.FormatAsContext(chunks)

	assert.Equal(t, "- Progressive overload: Increase load gradually.\n- chunk-2: Rest days matter.", out)
}

func TestAppendContext(t *testing.T) {
	survey := "Primary goal: lose weight"

	assert.Equal(t, survey, services.AppendContext(survey, nil))

	withChunks := services.AppendContext(survey, []*entities.KnowledgeChunk{
		{Name: "Walking", Content: "Daily walks are a strong start."},
	})
	assert.Contains(t, withChunks, survey)
	assert.Contains(t, withChunks, services.ContextHeading)
	assert.Contains(t, withChunks, "- Walking: Daily walks are a strong start.")
}
