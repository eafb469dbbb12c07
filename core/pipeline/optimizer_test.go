package pipeline

import (
	"strings"
	"testing"

	"github.com/siherrmann/lexrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(article string, size int) model.Section {
	return model.Section{
		Article: article,
		Text:    strings.Repeat("x", size),
	}
}

func TestCombineSmallSections(t *testing.T) {
	optimizer := NewOptimizer(nil)

	t.Run("Empty input stays empty", func(t *testing.T) {
		assert.Empty(t, optimizer.CombineSmallSections(nil))
	})

	t.Run("Small sections are combined", func(t *testing.T) {
		sections := []model.Section{
			section("ARTÍCULO 1", 2000),
			section("ARTÍCULO 2", 2000),
			section("ARTÍCULO 3", 2000),
		}

		combined := optimizer.CombineSmallSections(sections)
		require.Len(t, combined, 1, "Expected the three small sections to merge")
		assert.Equal(t, "ARTÍCULO 1", combined[0].Article, "Merged section keeps the first section's tag")
	})

	t.Run("Combination stops near 1.5x the minimum", func(t *testing.T) {
		sections := []model.Section{
			section("ARTÍCULO 1", 4000),
			section("ARTÍCULO 2", 4000),
			section("ARTÍCULO 3", 4000),
		}

		combined := optimizer.CombineSmallSections(sections)
		require.Len(t, combined, 3, "Adding any section would pass 1.5x the minimum")
		for i, s := range combined {
			assert.LessOrEqual(t, s.Size(), 7500, "Combined section %d too large", i)
		}
	})

	t.Run("Very large section is emitted standalone", func(t *testing.T) {
		sections := []model.Section{
			section("ARTÍCULO 1", 1000),
			section("ARTÍCULO 2", 12000),
			section("ARTÍCULO 3", 1000),
		}

		combined := optimizer.CombineSmallSections(sections)
		require.Len(t, combined, 3)
		assert.Equal(t, 12000, combined[1].Size(), "Large section must not be merged")
		assert.Equal(t, "ARTÍCULO 2", combined[1].Article)
	})

	t.Run("No text content is lost", func(t *testing.T) {
		sections := []model.Section{
			section("ARTÍCULO 1", 100),
			section("ARTÍCULO 2", 200),
			section("ARTÍCULO 3", 300),
		}

		combined := optimizer.CombineSmallSections(sections)

		totalIn := 0
		for _, s := range sections {
			totalIn += s.Size()
		}
		totalOut := 0
		for _, s := range combined {
			totalOut += len(strings.ReplaceAll(s.Text, "\n", ""))
		}
		assert.Equal(t, totalIn, totalOut, "Combining must preserve all content modulo whitespace")
	})
}

func TestSplitIntoLargeSections(t *testing.T) {
	t.Run("Short text yields a single section", func(t *testing.T) {
		optimizer := NewOptimizer(nil)
		sections := optimizer.SplitIntoLargeSections("Un párrafo con suficiente contenido para superar el umbral mínimo de la sección.")
		require.Len(t, sections, 1)
	})

	t.Run("Text is cut at paragraph boundaries with overlap", func(t *testing.T) {
		config := DefaultOptimizerConfig()
		config.FallbackMaxSectionSize = 300
		config.FallbackOverlap = 50
		optimizer := NewOptimizer(config)

		paragraphs := make([]string, 8)
		for i := range paragraphs {
			paragraphs[i] = strings.Repeat("palabra ", 12)
		}
		text := strings.Join(paragraphs, "\n\n")

		sections := optimizer.SplitIntoLargeSections(text)
		require.Greater(t, len(sections), 1, "Expected multiple fallback sections")

		for i := 1; i < len(sections); i++ {
			previous := sections[i-1].Text
			overlap := previous[len(previous)-50:]
			assert.True(t, strings.HasPrefix(sections[i].Text, strings.TrimSpace(overlap)),
				"Section %d must start with the previous section's trailing overlap", i)
		}
	})

	t.Run("Degenerate fragments are dropped", func(t *testing.T) {
		optimizer := NewOptimizer(nil)
		sections := optimizer.SplitIntoLargeSections("ab\n\ncd\n\nef")
		assert.Empty(t, sections, "Fragments under the minimum paragraph size are skipped")
	})
}
