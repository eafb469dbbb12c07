package retrieval

import (
	"context"
	"log/slog"

	"github.com/siherrmann/lexrag/database"
	"github.com/siherrmann/lexrag/model"
)

// Engine performs nearest neighbor retrieval over the chunk store
type Engine struct {
	chunks *database.ChunksDBHandler
	logger *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(chunks *database.ChunksDBHandler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		chunks: chunks,
		logger: logger,
	}
}

// VectorRetrieve performs vector similarity search and returns hits ordered
// ascending by distance, nearest first. A store failure degrades to an empty
// result with a warning instead of aborting the caller's response.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalHit, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}

	chunks, err := e.chunks.SelectChunksByDistance(ctx, embedding, config.TopK)
	if err != nil {
		e.logger.Warn("Vector retrieval failed, returning empty result",
			slog.String("error", err.Error()))
		return []*model.RetrievalHit{}, nil
	}

	hits := make([]*model.RetrievalHit, len(chunks))
	for i, chunk := range chunks {
		hits[i] = &model.RetrievalHit{
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
			Distance: chunk.Distance,
		}
	}

	return hits, nil
}
