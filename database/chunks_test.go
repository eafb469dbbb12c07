package database

import (
	"context"
	"testing"
	"time"

	"github.com/siherrmann/lexrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db, "Expected NewChunksDBHandler to have a non-nil database instance")
		require.NotNil(t, chunksDbHandler.db.Instance, "Expected NewChunksDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, 384, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewChunksDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewChunksDBHandler(database, 0, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with zero dimension")
	})

	t.Run("Invalid call NewChunksDBHandler with mismatched dimension", func(t *testing.T) {
		_, err := NewChunksDBHandler(database, 384, true)
		require.NoError(t, err, "Expected handler with matching dimension to initialize")

		_, err = NewChunksDBHandler(database, 512, true)
		assert.Error(t, err, "Expected error when table dimension does not match configuration")
		assert.Contains(t, err.Error(), "dimension mismatch", "Expected dimension mismatch error")
	})
}

func TestChunksUpsert(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
	require.NoError(t, chunksDbHandler.Clear(ctx))

	t.Run("Upsert batch of chunks", func(t *testing.T) {
		chunks := []*model.Chunk{
			{
				Source:     "ley.txt",
				ChunkIndex: 0,
				Text:       "TÍTULO I derechos fundamentales",
				Embedding:  testEmbedding(384, 0),
				Metadata:   model.ChunkMetadata{Title: "TÍTULO I", Article: "ARTÍCULO 1", IngestionDate: time.Now()},
			},
			{
				Source:     "ley.txt",
				ChunkIndex: 1,
				Text:       "ARTÍCULO 2 del debido proceso",
				Embedding:  testEmbedding(384, 1),
				Metadata:   model.ChunkMetadata{Title: "TÍTULO I", Article: "ARTÍCULO 2"},
			},
		}

		err := chunksDbHandler.UpsertChunks(ctx, chunks)
		assert.NoError(t, err, "Expected UpsertChunks to not return an error")
		assert.NotEmpty(t, chunks[0].ID, "Expected upserted chunk to have an ID")
		assert.Equal(t, "ley.txt_0", chunks[0].Key, "Expected key built from source and index")
		assert.WithinDuration(t, chunks[0].CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		count, err := chunksDbHandler.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count, "Expected both chunks to be stored")
	})

	t.Run("Upsert same keys overwrites instead of duplicating", func(t *testing.T) {
		chunks := []*model.Chunk{
			{
				Source:     "ley.txt",
				ChunkIndex: 0,
				Text:       "TÍTULO I texto corregido",
				Embedding:  testEmbedding(384, 2),
				Metadata:   model.ChunkMetadata{Title: "TÍTULO I"},
			},
		}

		err := chunksDbHandler.UpsertChunks(ctx, chunks)
		assert.NoError(t, err, "Expected UpsertChunks to not return an error")

		count, err := chunksDbHandler.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count, "Expected row count unchanged after re-upsert")
	})

	t.Run("Upsert empty batch is a no-op", func(t *testing.T) {
		err := chunksDbHandler.UpsertChunks(ctx, nil)
		assert.NoError(t, err, "Expected empty batch to not return an error")
	})

	t.Run("Upsert with wrong dimension rolls back whole batch", func(t *testing.T) {
		require.NoError(t, chunksDbHandler.Clear(ctx))

		chunks := []*model.Chunk{
			{Source: "bad.txt", ChunkIndex: 0, Text: "valid", Embedding: testEmbedding(384, 0)},
			{Source: "bad.txt", ChunkIndex: 1, Text: "invalid", Embedding: testEmbedding(128, 0)},
		}

		err := chunksDbHandler.UpsertChunks(ctx, chunks)
		assert.Error(t, err, "Expected dimension mismatch to fail the batch")

		count, err := chunksDbHandler.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "Expected no rows from a failed batch")
	})
}

func TestChunksSelectByDistance(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
	require.NoError(t, chunksDbHandler.Clear(ctx))

	near := testEmbedding(384, 0)
	far := testEmbedding(384, 10)

	chunks := []*model.Chunk{
		{Source: "ley.txt", ChunkIndex: 0, Text: "cercano", Embedding: near, Metadata: model.ChunkMetadata{Article: "ARTÍCULO 1"}},
		{Source: "ley.txt", ChunkIndex: 1, Text: "lejano", Embedding: far, Metadata: model.ChunkMetadata{Article: "ARTÍCULO 2"}},
	}
	require.NoError(t, chunksDbHandler.UpsertChunks(ctx, chunks))

	t.Run("Results ordered ascending by distance", func(t *testing.T) {
		results, err := chunksDbHandler.SelectChunksByDistance(ctx, near, 10)
		assert.NoError(t, err, "Expected SelectChunksByDistance to not return an error")
		require.Len(t, results, 2, "Expected both chunks returned")
		assert.Equal(t, "cercano", results[0].Text, "Expected nearest chunk first")
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance, "Expected ascending distance order")
		assert.GreaterOrEqual(t, results[0].Distance, 0.0, "Expected non-negative distance")
		assert.Equal(t, "ARTÍCULO 1", results[0].Metadata.Article, "Expected metadata round-trip")
	})

	t.Run("Limit caps result count", func(t *testing.T) {
		results, err := chunksDbHandler.SelectChunksByDistance(ctx, near, 1)
		assert.NoError(t, err)
		assert.Len(t, results, 1, "Expected a single result with limit 1")
	})

	t.Run("Empty store returns empty result", func(t *testing.T) {
		require.NoError(t, chunksDbHandler.Clear(ctx))

		results, err := chunksDbHandler.SelectChunksByDistance(ctx, near, 10)
		assert.NoError(t, err, "Expected empty store query to not return an error")
		assert.Empty(t, results, "Expected no results from an empty store")
	})
}

func TestChunksDeleteBySource(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
	require.NoError(t, chunksDbHandler.Clear(ctx))

	chunks := []*model.Chunk{
		{Source: "a.txt", ChunkIndex: 0, Text: "a0", Embedding: testEmbedding(384, 0)},
		{Source: "a.txt", ChunkIndex: 1, Text: "a1", Embedding: testEmbedding(384, 1)},
		{Source: "b.txt", ChunkIndex: 0, Text: "b0", Embedding: testEmbedding(384, 2)},
	}
	require.NoError(t, chunksDbHandler.UpsertChunks(ctx, chunks))

	t.Run("Delete only the given source", func(t *testing.T) {
		deleted, err := chunksDbHandler.DeleteChunksBySource(ctx, "a.txt")
		assert.NoError(t, err, "Expected DeleteChunksBySource to not return an error")
		assert.Equal(t, 2, deleted, "Expected both rows of the source to be deleted")

		count, err := chunksDbHandler.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "Expected other sources untouched")
	})

	t.Run("Delete unknown source deletes nothing", func(t *testing.T) {
		deleted, err := chunksDbHandler.DeleteChunksBySource(ctx, "missing.txt")
		assert.NoError(t, err)
		assert.Equal(t, 0, deleted, "Expected zero deletions for an unknown source")
	})
}
