package model

import (
	"fmt"
	"time"
)

// Chunk is the atomic unit of stored document text with its structural
// metadata and embedding. Key is the stable upsert id, built from the source
// document name and the chunk index.
type Chunk struct {
	ID         int           `json:"id"`
	Key        string        `json:"key"`
	Source     string        `json:"source"`
	Text       string        `json:"text"`
	ChunkIndex int           `json:"chunk_index"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
	// Result fields, only set on retrieval
	Distance float64 `json:"distance,omitempty"`
}

// UpsertKey builds the stable store id for a chunk of the given source.
// Re-ingesting the same source overwrites the same keys.
func UpsertKey(source string, chunkIndex int) string {
	if source == "" {
		source = "doc"
	}
	return fmt.Sprintf("%s_%d", source, chunkIndex)
}
