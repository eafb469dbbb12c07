package lexrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/lexrag/core/pipeline"
	"github.com/siherrmann/lexrag/core/retrieval"
	"github.com/siherrmann/lexrag/database"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// Queries longer than this are clamped before embedding. The embedding model
// truncates input anyway, so the tail would only cost tokenizer time.
const maxQueryLength = 1000

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// LexRAG provides a unified interface to the document store, the ingestion
// pipeline and the retrieval engine.
type LexRAG struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Pipeline  *pipeline.Pipeline // Optional ingestion pipeline
	Engine    *retrieval.Engine  // Retrieval engine for vector search
	// Logging
	log          *slog.Logger
	embeddingDim int
}

// Stats describes the current state of the store and the embedding setup
type Stats struct {
	ChunkCount     int    `json:"chunk_count"`
	DocumentCount  int    `json:"document_count"`
	EmbeddingModel string `json:"embedding_model"`
	EmbeddingDim   int    `json:"embedding_dim"`
}

// New creates a new LexRAG instance with all handlers initialized.
// It fails fast: a bad configuration or a store whose SQL functions cannot be
// verified is returned as an error before any document is accepted.
func New(config *helper.DatabaseConfiguration, embeddingDim int) (*LexRAG, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("lexrag", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then chunks)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	// Create retrieval engine over the chunk store
	engine := retrieval.NewEngine(chunks, logger)

	return &LexRAG{
		DB:           db,
		Chunks:       chunks,
		Documents:    documents,
		Engine:       engine,
		log:          logger,
		embeddingDim: embeddingDim,
	}, nil
}

// Close closes the database connection
func (l *LexRAG) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the ingestion pipeline for document processing
func (l *LexRAG) SetPipeline(pipeline *pipeline.Pipeline) {
	l.Pipeline = pipeline
}

// UseDefaultPipeline sets up the default ingestion pipeline: text repair,
// the hierarchical legal segmenter, the section optimizer, the semantic
// splitter with deterministic fallback, and the all-MiniLM-L6-v2 embedder
// (384 dimensions). The model is downloaded on first use and memoized for
// the process lifetime.
func (l *LexRAG) UseDefaultPipeline() error {
	if l.embeddingDim != pipeline.EmbeddingDimension {
		return helper.NewError("create default pipeline", fmt.Errorf(
			"store dimension %d does not match model dimension %d", l.embeddingDim, pipeline.EmbeddingDimension))
	}

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	embedBatch, err := pipeline.DefaultBatchEmbedder()
	if err != nil {
		return helper.NewError("create default batch embedder", err)
	}

	splitter := pipeline.NewSplitter(nil, embedBatch, l.log)
	l.Pipeline = pipeline.NewPipeline(nil, nil, splitter, embedder, l.log)
	return nil
}

// Ingest processes a document and stores its embedded chunks.
// With clear=true the whole chunk store is emptied first; otherwise only the
// rows of the same source are replaced, so re-ingesting a document never
// duplicates it. An empty document is not an error: it yields a report with
// a warning and, when clear=false, leaves the store untouched. A context
// deadline during embedding keeps the chunks embedded so far and marks the
// report as truncated.
func (l *LexRAG) Ingest(ctx context.Context, doc *model.Document, clear bool) (*model.IngestionReport, error) {
	if l.Pipeline == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if doc == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("document is nil"))
	}

	start := time.Now()
	report := &model.IngestionReport{Source: doc.Source}

	if clear {
		if err := l.Chunks.Clear(ctx); err != nil {
			return nil, helper.NewError("clear chunk store", err)
		}
		l.log.Info("Cleared chunk store before ingestion")
	}

	text, warnings := l.documentText(doc)
	report.Warnings = warnings

	if strings.TrimSpace(text) == "" {
		report.Warnings = append(report.Warnings, "empty document")
		report.Elapsed = time.Since(start)
		l.log.Warn("Skipping empty document", slog.String("source", doc.Source))
		return report, nil
	}

	if !clear {
		deleted, err := l.Chunks.DeleteChunksBySource(ctx, doc.Source)
		if err != nil {
			return nil, helper.NewError("replace existing chunks", err)
		}
		if deleted > 0 {
			l.log.Info("Replacing previously ingested source",
				slog.String("source", doc.Source), slog.Int("deleted", deleted))
		}
	}

	chunks, truncated, err := l.Pipeline.Process(ctx, text, doc.Source)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	if err := l.Chunks.UpsertChunks(ctx, chunks); err != nil {
		return nil, helper.NewError("upsert chunks", err)
	}

	// Registry row for the source document
	if doc.RID == uuid.Nil {
		doc.RID = uuid.New()
	}
	doc.PageCount = len(doc.Pages)
	doc.ChunkCount = len(chunks)
	if err := l.Documents.UpsertDocument(ctx, doc); err != nil {
		return nil, helper.NewError("upsert document", err)
	}

	report.ChunkCount = len(chunks)
	report.Truncated = truncated
	report.Elapsed = time.Since(start)

	l.log.Info("Ingested document",
		slog.String("source", doc.Source),
		slog.Int("chunks", report.ChunkCount),
		slog.Bool("truncated", report.Truncated),
		slog.Duration("elapsed", report.Elapsed))

	return report, nil
}

// documentText folds per-page texts into a single string with page markers
// the segmenter recognizes. When no pages are given the plain Text is used.
// Blank pages are skipped with a warning rather than failing the ingestion.
func (l *LexRAG) documentText(doc *model.Document) (string, []string) {
	if len(doc.Pages) == 0 {
		return doc.Text, nil
	}

	var warnings []string
	var text strings.Builder
	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) == "" {
			warnings = append(warnings, fmt.Sprintf("page %d has no extractable text", page.Number))
			continue
		}
		fmt.Fprintf(&text, "--- Página %d ---\n", page.Number)
		text.WriteString(page.Text)
		if !strings.HasSuffix(page.Text, "\n") {
			text.WriteString("\n")
		}
	}
	return text.String(), warnings
}

// Search embeds the query and performs nearest neighbor search over the
// chunk store. Store failures degrade to an empty result with a warning log.
func (l *LexRAG) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalHit, error) {
	if l.Engine == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("retrieval engine not initialized"))
	}
	if l.Pipeline == nil || l.Pipeline.Embedder == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}

	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	cleaned := NormalizeQuery(query)
	if cleaned == "" {
		return []*model.RetrievalHit{}, nil
	}

	// Generate embedding from query
	embedding, err := l.Pipeline.Embedder(cleaned)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return l.Engine.VectorRetrieve(ctx, embedding, config)
}

// ContextForQuery retrieves the nearest chunks for the query and assembles
// them into a single context text under config.MaxContextChars.
func (l *LexRAG) ContextForQuery(ctx context.Context, query string, config *model.QueryConfig) (*model.ContextBundle, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}

	hits, err := l.Search(ctx, query, config)
	if err != nil {
		return nil, err
	}

	return retrieval.AssembleContext(hits, config.MaxContextChars), nil
}

// Stats reports the store row counts and the embedding configuration
func (l *LexRAG) Stats(ctx context.Context) (*Stats, error) {
	chunkCount, err := l.Chunks.Count(ctx)
	if err != nil {
		return nil, helper.NewError("count chunks", err)
	}

	documents, err := l.Documents.SelectAllDocuments(ctx)
	if err != nil {
		return nil, helper.NewError("select documents", err)
	}

	return &Stats{
		ChunkCount:     chunkCount,
		DocumentCount:  len(documents),
		EmbeddingModel: pipeline.EmbeddingModelName,
		EmbeddingDim:   l.embeddingDim,
	}, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *LexRAG) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return l.Chunks.ChangeIndexType(ctx, indexType, params)
}

// NormalizeQuery prepares raw user input for embedding: control characters
// are stripped, whitespace runs collapse to single spaces and over-long
// queries are clamped at a word boundary where possible.
func NormalizeQuery(query string) string {
	cleaned := controlChars.ReplaceAllString(query, " ")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) <= maxQueryLength {
		return cleaned
	}

	clamped := string(runes[:maxQueryLength])
	if idx := strings.LastIndex(clamped, " "); idx > maxQueryLength/2 {
		clamped = clamped[:idx]
	}
	return strings.TrimSpace(clamped)
}
