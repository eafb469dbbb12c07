package model

import "time"

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Vector search parameters
	TopK int `json:"top_k"`

	// Context assembly parameters
	MaxContextChars int `json:"max_context_chars"`

	// Wall-clock budget for embedding plus store calls. Exceeding it degrades
	// to an empty result instead of hanging the caller.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:            5,
		MaxContextChars: 3000,
		Timeout:         30 * time.Second,
	}
}
