package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/siherrmann/lexrag/model"
)

// SplitterConfig holds the chunk sizing parameters, all in characters
type SplitterConfig struct {
	// ChunkSize is the soft target for a single chunk
	ChunkSize int
	// ChunkOverlap is the trailing slice of the previous chunk prepended to
	// the next one to preserve context across the cut
	ChunkOverlap int
	// LargeSectionSize is the threshold at or above which the semantic
	// strategy is attempted instead of plain packing
	LargeSectionSize int
	// MinChunkSize drops noise fragments after cleaning
	MinChunkSize int
	// SimilarityThreshold is the cosine similarity below which the semantic
	// strategy opens a new chunk
	SimilarityThreshold float32
}

// DefaultSplitterConfig returns the chunk sizing used for legal documents
func DefaultSplitterConfig() *SplitterConfig {
	return &SplitterConfig{
		ChunkSize:           800,
		ChunkOverlap:        100,
		LargeSectionSize:    15000,
		MinChunkSize:        50,
		SimilarityThreshold: 0.5,
	}
}

// SplitStrategy is one way of cutting a section into chunk texts.
// Strategies are tried in priority order; a failing strategy hands the
// section to the next one instead of aborting the run.
type SplitStrategy struct {
	Name  string
	Split func(section model.Section) ([]string, error)
}

// Splitter turns optimized sections into chunks. Small and medium sections
// are packed deterministically; large sections go through the strategy list,
// semantic boundary detection first, deterministic packing as the safety net.
type Splitter struct {
	config     *SplitterConfig
	strategies []SplitStrategy
	logger     *slog.Logger
}

// NewSplitter creates a splitter. When embedBatch is non-nil, a semantic
// strategy backed by it leads the strategy list for large sections.
func NewSplitter(config *SplitterConfig, embedBatch EmbedBatchFunc, logger *slog.Logger) *Splitter {
	if config == nil {
		config = DefaultSplitterConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Splitter{
		config: config,
		logger: logger,
	}

	if embedBatch != nil {
		s.strategies = append(s.strategies, SplitStrategy{
			Name:  "semantic",
			Split: s.semanticSplit(embedBatch),
		})
	}
	s.strategies = append(s.strategies, SplitStrategy{
		Name: "deterministic",
		Split: func(section model.Section) ([]string, error) {
			return s.packSection(section.Text), nil
		},
	})

	return s
}

// SplitSections cuts every section into chunks carrying the section's
// structural metadata. Chunk order follows section order and is deterministic
// for the deterministic strategies.
func (s *Splitter) SplitSections(sections []model.Section) []*model.Chunk {
	var chunks []*model.Chunk

	for _, section := range sections {
		var texts []string

		if section.Size() < s.config.LargeSectionSize {
			texts = s.packSection(section.Text)
		} else {
			texts = s.splitLargeSection(section)
		}

		paragraph := 0
		for _, text := range texts {
			text = cleanChunkText(text)
			if len(text) < s.config.MinChunkSize {
				continue
			}
			paragraph++

			article := section.Article
			if article == "" {
				article = extractArticle(text)
			}

			chunks = append(chunks, &model.Chunk{
				Text: text,
				Metadata: model.ChunkMetadata{
					Title:     section.Title,
					Chapter:   section.Chapter,
					Article:   article,
					Page:      section.Page,
					Paragraph: paragraph,
				},
			})
		}
	}

	return chunks
}

// splitLargeSection tries the strategies in priority order and logs the winner
func (s *Splitter) splitLargeSection(section model.Section) []string {
	for _, strategy := range s.strategies {
		texts, err := strategy.Split(section)
		if err != nil {
			s.logger.Warn("Split strategy failed, trying next",
				slog.String("strategy", strategy.Name),
				slog.String("error", err.Error()))
			continue
		}
		s.logger.Info("Split large section",
			slog.String("strategy", strategy.Name),
			slog.Int("sectionSize", section.Size()),
			slog.Int("chunks", len(texts)))
		return texts
	}
	// The deterministic strategy never errors, so this is unreachable
	// unless the strategy list was emptied by hand.
	return s.packSection(section.Text)
}

// packSection greedily packs paragraphs into chunks around ChunkSize,
// prepending the trailing ChunkOverlap characters of the previous chunk.
// A paragraph far over the budget is cut at line boundaries first.
func (s *Splitter) packSection(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}

	var chunks []string
	current := ""

	appendPiece := func(piece, separator string) {
		if len(current)+len(piece)+len(separator) > s.config.ChunkSize && current != "" {
			chunks = append(chunks, current)
			overlap := tailChars(current, s.config.ChunkOverlap)
			if overlap != "" {
				current = overlap + separator + piece
			} else {
				current = piece
			}
			return
		}
		if current == "" {
			current = piece
		} else {
			current = current + separator + piece
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" || len(paragraph) < 10 {
			continue
		}

		if len(paragraph) > s.config.ChunkSize*2 {
			for _, line := range strings.Split(paragraph, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				appendPiece(line, "\n")
			}
			continue
		}

		appendPiece(paragraph, "\n\n")
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// semanticSplit groups sentences into chunks at embedding similarity
// breakpoints: a sentence starts a new chunk when its similarity to the
// running average of the current chunk drops below the threshold, or when
// the chunk would outgrow ChunkSize.
func (s *Splitter) semanticSplit(embedBatch EmbedBatchFunc) func(section model.Section) ([]string, error) {
	return func(section model.Section) ([]string, error) {
		sentences := splitSentences(section.Text)
		if len(sentences) == 0 {
			return nil, fmt.Errorf("no sentences found in section")
		}

		embeddings, err := embedBatch(sentences)
		if err != nil {
			return nil, fmt.Errorf("failed to embed sentences: %w", err)
		}
		if len(embeddings) != len(sentences) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d sentences", len(embeddings), len(sentences))
		}

		var chunks []string
		var current []string
		var currentEmbeddings [][]float32
		currentLength := 0

		flush := func() {
			if len(current) == 0 {
				return
			}
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			currentEmbeddings = nil
			currentLength = 0
		}

		for i, sentence := range sentences {
			if len(current) > 0 {
				similarity := cosineSimilarity(averageEmbedding(currentEmbeddings), embeddings[i])
				if similarity < s.config.SimilarityThreshold || currentLength+len(sentence) > s.config.ChunkSize {
					flush()
				}
			}
			current = append(current, sentence)
			currentEmbeddings = append(currentEmbeddings, embeddings[i])
			currentLength += len(sentence)
		}
		flush()

		return chunks, nil
	}
}

var articleExtractPattern = regexp.MustCompile(`(?i)(ARTÍCULO|ARTICULO)\s*\d+`)

// extractArticle re-extracts an article id from chunk text when the owning
// section carried none
func extractArticle(text string) string {
	return articleExtractPattern.FindString(text)
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func cleanChunkText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")

	var sentences []string
	for _, sentence := range strings.Split(text, "|") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

func averageEmbedding(embeddings [][]float32) []float32 {
	avg := make([]float32, len(embeddings[0]))
	for _, embedding := range embeddings {
		for i := range embedding {
			avg[i] += embedding[i]
		}
	}
	for i := range avg {
		avg[i] /= float32(len(embeddings))
	}
	return avg
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
