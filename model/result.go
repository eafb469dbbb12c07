package model

import "time"

// RetrievalHit is a chunk returned by nearest-neighbor search.
// Distance is a dissimilarity score, lower means more similar.
type RetrievalHit struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Distance float64       `json:"distance"`
}

// ContextBundle is the concatenation of retrieved chunk texts under a
// character budget, paired with the metadata of the nearest contributing
// chunk for citation.
type ContextBundle struct {
	Text       string        `json:"text"`
	Metadata   ChunkMetadata `json:"metadata"`
	ChunkCount int           `json:"chunk_count"`
}

// IngestionReport summarizes a completed (or truncated) document ingestion
type IngestionReport struct {
	Source     string        `json:"source"`
	ChunkCount int           `json:"chunk_count"`
	Warnings   []string      `json:"warnings,omitempty"`
	Truncated  bool          `json:"truncated"`
	Elapsed    time.Duration `json:"elapsed"`
}
