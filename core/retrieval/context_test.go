package retrieval

import (
	"strings"
	"testing"

	"github.com/siherrmann/lexrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(text, article string) *model.RetrievalHit {
	return &model.RetrievalHit{
		Text:     text,
		Metadata: model.ChunkMetadata{Article: article},
	}
}

func TestAssembleContext(t *testing.T) {
	t.Run("No hits yields an empty bundle", func(t *testing.T) {
		bundle := AssembleContext(nil, 3000)
		assert.Empty(t, bundle.Text)
		assert.Equal(t, 0, bundle.ChunkCount)
	})

	t.Run("Hits are joined by blank lines in rank order", func(t *testing.T) {
		hits := []*model.RetrievalHit{
			hit("Primer fragmento.", "ARTÍCULO 1"),
			hit("Segundo fragmento.", "ARTÍCULO 2"),
		}

		bundle := AssembleContext(hits, 3000)
		assert.Equal(t, "Primer fragmento.\n\nSegundo fragmento.", bundle.Text)
		assert.Equal(t, 2, bundle.ChunkCount)
	})

	t.Run("Bundle carries the first hit's metadata", func(t *testing.T) {
		hits := []*model.RetrievalHit{
			hit("Primero.", "ARTÍCULO 7"),
			hit("Segundo.", "ARTÍCULO 9"),
		}

		bundle := AssembleContext(hits, 3000)
		assert.Equal(t, "ARTÍCULO 7", bundle.Metadata.Article)
	})

	t.Run("Oversized first hit is cut to exactly the budget", func(t *testing.T) {
		hits := []*model.RetrievalHit{hit(strings.Repeat("a", 150), "ARTÍCULO 1")}

		bundle := AssembleContext(hits, 100)
		require.Len(t, bundle.Text, 100, "Context must be exactly the truncated prefix")
		assert.Equal(t, strings.Repeat("a", 100), bundle.Text)
		assert.Equal(t, 1, bundle.ChunkCount)
	})

	t.Run("Never exceeds the budget across multiple hits", func(t *testing.T) {
		hits := []*model.RetrievalHit{
			hit(strings.Repeat("a", 60), "ARTÍCULO 1"),
			hit(strings.Repeat("b", 60), "ARTÍCULO 2"),
			hit(strings.Repeat("c", 60), "ARTÍCULO 3"),
		}

		bundle := AssembleContext(hits, 100)
		assert.LessOrEqual(t, len(bundle.Text), 100)
		assert.Equal(t, 2, bundle.ChunkCount, "Third hit no longer fits")
	})

	t.Run("Zero budget yields an empty bundle", func(t *testing.T) {
		bundle := AssembleContext([]*model.RetrievalHit{hit("texto", "A")}, 0)
		assert.Empty(t, bundle.Text)
	})

	t.Run("Empty hit texts are skipped", func(t *testing.T) {
		hits := []*model.RetrievalHit{
			hit("", "ARTÍCULO 1"),
			hit("Con contenido.", "ARTÍCULO 2"),
		}

		bundle := AssembleContext(hits, 3000)
		assert.Equal(t, "Con contenido.", bundle.Text)
		assert.Equal(t, "ARTÍCULO 2", bundle.Metadata.Article, "Metadata comes from the first contributing hit")
		assert.Equal(t, 1, bundle.ChunkCount)
	})
}
