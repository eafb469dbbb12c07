package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeIndexType(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	chunksDbHandler, err := NewChunksDBHandler(database, 384, true)
	require.NoError(t, err, "Expected NewChunksDBHandler to not return an error")

	t.Run("Change to HNSW index with defaults", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "hnsw", nil)
		assert.NoError(t, err, "Expected HNSW index creation to not return an error")
	})

	t.Run("Change to HNSW index with custom params", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "hnsw", map[string]interface{}{
			"m":               32,
			"ef_construction": 128,
		})
		assert.NoError(t, err, "Expected HNSW index creation with params to not return an error")
	})

	t.Run("Change to IVFFlat index", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{
			"lists": 50,
		})
		assert.NoError(t, err, "Expected IVFFlat index creation to not return an error")
	})

	t.Run("Unsupported index type returns error", func(t *testing.T) {
		err := chunksDbHandler.ChangeIndexType(ctx, "btree", nil)
		assert.Error(t, err, "Expected error for unsupported index type")
		assert.Contains(t, err.Error(), "unsupported index type", "Expected specific error message")
	})
}
