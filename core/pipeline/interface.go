package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/siherrmann/lexrag/model"
)

// EmbedFunc is a function that generates an embedding for a single text
type EmbedFunc func(text string) ([]float32, error)

// EmbedBatchFunc is a function that generates embeddings for a batch of texts
type EmbedBatchFunc func(texts []string) ([][]float32, error)

// ProgressFunc is called as embedding progresses through a document
type ProgressFunc func(done int, total int)

// Pipeline runs extracted document text through repair, structural
// segmentation, section optimization, splitting and embedding.
type Pipeline struct {
	Repair    RepairFunc
	Segmenter *Segmenter
	Optimizer *Optimizer
	Splitter  *Splitter
	Embedder  EmbedFunc
	// OnProgress is optional, called after every embedded chunk
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// NewPipeline creates a processing pipeline from its stages.
// Nil stages other than the embedder fall back to defaults.
func NewPipeline(segmenter *Segmenter, optimizer *Optimizer, splitter *Splitter, embedder EmbedFunc, logger *slog.Logger) *Pipeline {
	if segmenter == nil {
		segmenter = NewSegmenter(nil)
	}
	if optimizer == nil {
		optimizer = NewOptimizer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if splitter == nil {
		splitter = NewSplitter(nil, nil, logger)
	}
	return &Pipeline{
		Repair:    Repair,
		Segmenter: segmenter,
		Optimizer: optimizer,
		Splitter:  splitter,
		Embedder:  embedder,
		Logger:    logger,
	}
}

// Process turns document text into embedded chunks.
// Chunks carry sequential indexes and the ingestion timestamp in emission
// order. When the context deadline hits during embedding, the chunks embedded
// so far are returned with truncated set to true instead of an error.
func (p *Pipeline) Process(ctx context.Context, text string, source string) (chunks []*model.Chunk, truncated bool, err error) {
	repaired := p.Repair(text)

	sections := p.Segmenter.Segment(repaired)
	if len(sections) < 2 {
		p.Logger.Warn("Few structural sections detected, falling back to fixed sectioning",
			slog.String("source", source),
			slog.Int("sections", len(sections)))
		sections = p.Optimizer.SplitIntoLargeSections(repaired)
	}

	sections = p.Optimizer.CombineSmallSections(sections)
	chunks = p.Splitter.SplitSections(sections)

	p.Logger.Info("Document split into chunks",
		slog.String("source", source),
		slog.Int("sections", len(sections)),
		slog.Int("chunks", len(chunks)))

	ingestionDate := time.Now().UTC()
	embedded := 0

	for i, chunk := range chunks {
		select {
		case <-ctx.Done():
			p.Logger.Warn("Embedding interrupted by context, returning partial result",
				slog.String("source", source),
				slog.Int("embedded", embedded),
				slog.Int("total", len(chunks)))
			return chunks[:embedded], true, nil
		default:
		}

		embedding, err := p.Embedder(chunk.Text)
		if err != nil {
			return nil, false, err
		}

		chunk.Embedding = embedding
		chunk.Source = source
		chunk.ChunkIndex = i
		chunk.Key = model.UpsertKey(source, i)
		chunk.Metadata.IngestionDate = ingestionDate
		embedded++

		if p.OnProgress != nil {
			p.OnProgress(embedded, len(chunks))
		}
		if embedded%25 == 0 {
			p.Logger.Info("Embedding progress",
				slog.String("source", source),
				slog.Int("embedded", embedded),
				slog.Int("total", len(chunks)))
		}
	}

	return chunks, false, nil
}
