package pipeline

import (
	"strings"

	"github.com/siherrmann/lexrag/model"
)

// OptimizerConfig holds the size thresholds for section optimization,
// all in characters.
type OptimizerConfig struct {
	// MinSectionSize is the target below which adjacent sections are combined
	MinSectionSize int
	// FallbackMaxSectionSize bounds the fixed sections built when the
	// document carries no usable structural markers
	FallbackMaxSectionSize int
	// FallbackOverlap is the trailing text carried into the next fallback
	// section to preserve context across the cut
	FallbackOverlap int
	// MinParagraphSize drops degenerate fragments during fallback splitting
	MinParagraphSize int
	// MinSectionContent drops fallback sections without meaningful content
	MinSectionContent int
}

// DefaultOptimizerConfig mirrors the sizes that work well for legal documents
// in the 50 to 500 page range.
func DefaultOptimizerConfig() *OptimizerConfig {
	return &OptimizerConfig{
		MinSectionSize:         5000,
		FallbackMaxSectionSize: 100000,
		FallbackOverlap:        500,
		MinParagraphSize:       10,
		MinSectionContent:      50,
	}
}

// Optimizer merges small adjacent sections and provides the fixed-size
// fallback sectioning used when structural segmentation finds nothing.
type Optimizer struct {
	config *OptimizerConfig
}

// NewOptimizer creates an optimizer, falling back to the default config on nil
func NewOptimizer(config *OptimizerConfig) *Optimizer {
	if config == nil {
		config = DefaultOptimizerConfig()
	}
	return &Optimizer{config: config}
}

// CombineSmallSections merges runs of sections below MinSectionSize until the
// combined size approaches 1.5x the minimum. A section at or above 2x the
// minimum is emitted standalone, never combined. The combined section keeps
// the tags of the first section in its group.
func (o *Optimizer) CombineSmallSections(sections []model.Section) []model.Section {
	if len(sections) == 0 {
		return sections
	}

	minSize := o.config.MinSectionSize
	var optimized []model.Section
	var group []model.Section
	groupSize := 0

	flushGroup := func() {
		if len(group) == 0 {
			return
		}
		combined := group[0]
		if len(group) > 1 {
			texts := make([]string, 0, len(group))
			for _, s := range group {
				texts = append(texts, s.Text)
			}
			combined.Text = strings.TrimSpace(strings.Join(texts, "\n\n"))
		}
		optimized = append(optimized, combined)
		group = nil
		groupSize = 0
	}

	for _, section := range sections {
		size := section.Size()

		if size >= minSize*2 {
			flushGroup()
			optimized = append(optimized, section)
			continue
		}

		if groupSize+size >= minSize*3/2 {
			flushGroup()
		}
		group = append(group, section)
		groupSize += size
	}
	flushGroup()

	return optimized
}

// SplitIntoLargeSections is the global fallback for documents without
// structural markers: the text is cut into fixed sections at paragraph
// boundaries, carrying the trailing FallbackOverlap characters of each
// section into the next one. The overlap text is literally repeated, so
// boundary fragments can appear in two sections.
func (o *Optimizer) SplitIntoLargeSections(text string) []model.Section {
	var sections []model.Section

	emit := func(parts []string) string {
		sectionText := strings.TrimSpace(strings.Join(parts, "\n\n"))
		if len(sectionText) <= o.config.MinSectionContent {
			return ""
		}
		sections = append(sections, model.Section{Text: sectionText})
		return sectionText
	}

	var current []string
	currentSize := 0

	for _, paragraph := range splitParagraphs(text) {
		if len(paragraph) < o.config.MinParagraphSize {
			continue
		}

		if currentSize+len(paragraph) > o.config.FallbackMaxSectionSize && len(current) > 0 {
			sectionText := emit(current)

			overlap := tailChars(sectionText, o.config.FallbackOverlap)
			if overlap != "" {
				current = []string{overlap, paragraph}
				currentSize = len(overlap) + len(paragraph)
			} else {
				current = []string{paragraph}
				currentSize = len(paragraph)
			}
			continue
		}

		current = append(current, paragraph)
		currentSize += len(paragraph) + 2
	}
	if len(current) > 0 {
		emit(current)
	}

	return sections
}

// tailChars returns the last n characters of s, cut at a rune boundary
func tailChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
