package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for chunk database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunks(ctx context.Context, chunks []*model.Chunk) error
	SelectChunksByDistance(ctx context.Context, embedding []float32, limit int) ([]*model.Chunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	DeleteChunksBySource(ctx context.Context, source string) (int, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It loads and verifies the chunk-related SQL functions and creates the table
// with the given embedding dimension. A dimension mismatch against an existing
// table is returned as an error, never silently migrated.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it checks the embedding dimension instead.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		return helper.NewError("init chunks table", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunks writes a batch of chunks in a single transaction.
// Either the whole batch lands or none of it does.
func (h *ChunksDBHandler) UpsertChunks(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range chunks {
		if chunk.Key == "" {
			chunk.Key = model.UpsertKey(chunk.Source, chunk.ChunkIndex)
		}

		embeddingVector := pgvector.NewVector(chunk.Embedding)
		row := tx.QueryRowContext(
			ctx,
			`SELECT id, key, source, chunk_index, text, metadata, created_at FROM upsert_chunk($1, $2, $3, $4, $5, $6)`,
			chunk.Key,
			chunk.Source,
			chunk.ChunkIndex,
			embeddingVector,
			chunk.Text,
			chunk.Metadata,
		)

		err := row.Scan(
			&chunk.ID,
			&chunk.Key,
			&chunk.Source,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return helper.NewError("scan", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectChunksByDistance performs nearest neighbor search over the stored
// embeddings. Results are ordered ascending by distance, ties broken by id.
func (h *ChunksDBHandler) SelectChunksByDistance(ctx context.Context, embedding []float32, limit int) ([]*model.Chunk, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_distance($1, $2)`,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.Key,
			&chunk.Source,
			&chunk.ChunkIndex,
			&chunk.Text,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Distance,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// Count returns the number of stored chunks
func (h *ChunksDBHandler) Count(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// Clear removes all stored chunks
func (h *ChunksDBHandler) Clear(ctx context.Context) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT clear_chunks()`)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteChunksBySource removes all chunks of one source document and returns
// the number of deleted rows. Used before re-ingesting a single source.
func (h *ChunksDBHandler) DeleteChunksBySource(ctx context.Context, source string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_chunks_by_source($1)`, source).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return deleted, nil
}
