package entities

// KnowledgeChunk is a retrieved snippet of coaching knowledge used to augment
// generation input. Chunks are transient: produced by the context retriever,
// consumed within a single pipeline invocation, never persisted by it.
type KnowledgeChunk struct {
	ChunkID  string            `json:"chunk_id"`
	Name     string            `json:"name"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}
