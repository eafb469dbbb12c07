package pipeline

import (
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/lexrag/helper"
)

// EmbeddingModelName is the sentence transformer backing the default embedder
const EmbeddingModelName = "sentence-transformers/all-MiniLM-L6-v2"

// EmbeddingDimension is the vector dimension produced by the default model
const EmbeddingDimension = 384

// The hugot session and pipeline are constructed once per process and reused.
// Construction downloads the model on first run, so it is expensive; a failed
// construction is retried on the next access.
var (
	defaultEmbedderMu    sync.Mutex
	defaultEmbedFunc     EmbedFunc
	defaultEmbedBatch    EmbedBatchFunc
)

// DefaultEmbedder returns the memoized single-text embedder backed by the
// all-MiniLM-L6-v2 sentence transformer (384 dimensions).
func DefaultEmbedder() (EmbedFunc, error) {
	defaultEmbedderMu.Lock()
	defer defaultEmbedderMu.Unlock()

	if err := initDefaultEmbedderLocked(); err != nil {
		return nil, err
	}
	return defaultEmbedFunc, nil
}

// DefaultBatchEmbedder returns the memoized batch embedder sharing the same
// model session as DefaultEmbedder
func DefaultBatchEmbedder() (EmbedBatchFunc, error) {
	defaultEmbedderMu.Lock()
	defer defaultEmbedderMu.Unlock()

	if err := initDefaultEmbedderLocked(); err != nil {
		return nil, err
	}
	return defaultEmbedBatch, nil
}

func initDefaultEmbedderLocked() error {
	if defaultEmbedFunc != nil {
		return nil
	}

	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(EmbeddingModelName)
	if err != nil {
		return err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	defaultEmbedBatch = func(texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}
		result, err := sentencePipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(result.Embeddings) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(result.Embeddings), len(texts))
		}
		return result.Embeddings, nil
	}

	defaultEmbedFunc = func(text string) ([]float32, error) {
		embeddings, err := defaultEmbedBatch([]string{text})
		if err != nil {
			return nil, err
		}
		if len(embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return embeddings[0], nil
	}

	return nil
}

// EmbedBatch embeds texts one by one with a single-text embedder.
// Useful when only an EmbedFunc is available.
func EmbedBatch(embed EmbedFunc, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding, err := embed(text)
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, embedding)
	}
	return embeddings, nil
}
