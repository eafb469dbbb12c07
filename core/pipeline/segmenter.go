package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/siherrmann/lexrag/model"
)

// SegmenterConfig holds the structural marker patterns and the token budget
// for a single section. Markers are matched case-insensitively at line start;
// an article marker must be followed by a numeric identifier.
type SegmenterConfig struct {
	TitlePattern      *regexp.Regexp
	ChapterPattern    *regexp.Regexp
	ArticlePattern    *regexp.Regexp
	PagePattern       *regexp.Regexp
	MaxTokensPerChunk int
}

// DefaultSegmenterConfig returns markers for Spanish legal documents
// (TÍTULO/CAPÍTULO/ARTÍCULO hierarchy) with a 1600 token section budget.
func DefaultSegmenterConfig() *SegmenterConfig {
	return &SegmenterConfig{
		TitlePattern:      regexp.MustCompile(`(?i)^(TÍTULO|TITULO)\b`),
		ChapterPattern:    regexp.MustCompile(`(?i)^(CAPÍTULO|CAPITULO)\b`),
		ArticlePattern:    regexp.MustCompile(`(?i)^(ARTÍCULO|ARTICULO)\s*\d+`),
		PagePattern:       regexp.MustCompile(`^--- Página (\d+) ---$`),
		MaxTokensPerChunk: 1600,
	}
}

// segmenterState tracks which structural level the accumulator is inside
type segmenterState int

const (
	stateNoSection segmenterState = iota
	stateInTitle
	stateInChapter
	stateInArticle
)

// lineClass is the classification of a single input line
type lineClass int

const (
	classText lineClass = iota
	classBlank
	classTitle
	classChapter
	classArticle
	classPage
)

// Segmenter splits full document text into structural sections.
// It is an explicit state machine over classified lines: every marker line
// flushes the current accumulator and opens a new section, keeping the
// hierarchy tags of the enclosing levels.
type Segmenter struct {
	config *SegmenterConfig
}

// NewSegmenter creates a segmenter, falling back to the default config on nil
func NewSegmenter(config *SegmenterConfig) *Segmenter {
	if config == nil {
		config = DefaultSegmenterConfig()
	}
	return &Segmenter{config: config}
}

// accumulator is the section under construction
type accumulator struct {
	title     string
	chapter   string
	article   string
	page      int
	startLine int
	lines     []string
}

// Segment splits text into sections along the structural markers.
// It never fails: empty or marker-free input yields zero or one section.
// Emission order is deterministic and follows the input text.
func (s *Segmenter) Segment(text string) []model.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sections []model.Section
	state := stateNoSection
	current := &accumulator{}

	flush := func() {
		sections = append(sections, s.flushSections(current)...)
	}

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch s.classify(trimmed) {
		case classBlank:
			current.lines = append(current.lines, "")
		case classPage:
			pageMatch := s.config.PagePattern.FindStringSubmatch(trimmed)
			current.page, _ = strconv.Atoi(pageMatch[1])
		case classTitle:
			flush()
			current = &accumulator{title: trimmed, page: current.page, startLine: i, lines: []string{trimmed}}
			state = stateInTitle
		case classChapter:
			flush()
			current = &accumulator{title: current.title, chapter: trimmed, page: current.page, startLine: i, lines: []string{trimmed}}
			state = stateInChapter
		case classArticle:
			flush()
			current = &accumulator{title: current.title, chapter: current.chapter, article: trimmed, page: current.page, startLine: i, lines: []string{trimmed}}
			state = stateInArticle
		case classText:
			if state == stateNoSection && len(current.lines) == 0 {
				current.startLine = i
			}
			current.lines = append(current.lines, trimmed)
		}
	}
	flush()

	return sections
}

func (s *Segmenter) classify(line string) lineClass {
	switch {
	case line == "":
		return classBlank
	case s.config.PagePattern.MatchString(line):
		return classPage
	case s.config.TitlePattern.MatchString(line):
		return classTitle
	case s.config.ChapterPattern.MatchString(line):
		return classChapter
	case s.config.ArticlePattern.MatchString(line):
		return classArticle
	default:
		return classText
	}
}

// flushSections turns the accumulator into zero or more sections.
// Whitespace-only accumulators are discarded silently. A section over the
// token budget is split at blank-line paragraph boundaries, greedily packing
// paragraphs under the budget; every part keeps the same hierarchy tags.
// A single paragraph over the budget is emitted whole, not split further.
func (s *Segmenter) flushSections(current *accumulator) []model.Section {
	text := strings.TrimSpace(strings.Join(current.lines, "\n"))
	if text == "" {
		return nil
	}

	section := model.Section{
		Title:     current.title,
		Chapter:   current.chapter,
		Article:   current.article,
		Page:      current.page,
		StartLine: current.startLine,
	}

	if ApproxTokens(text) <= s.config.MaxTokensPerChunk {
		section.Text = text
		return []model.Section{section}
	}

	var sections []model.Section
	emit := func(part string) {
		if part == "" {
			return
		}
		packed := section
		packed.Text = part
		sections = append(sections, packed)
	}

	var packed string
	for _, paragraph := range splitParagraphs(text) {
		joined := strings.TrimSpace(packed + "\n\n" + paragraph)
		if packed != "" && ApproxTokens(joined) > s.config.MaxTokensPerChunk {
			emit(packed)
			packed = paragraph
			continue
		}
		packed = joined
	}
	emit(packed)

	return sections
}

var paragraphPattern = regexp.MustCompile(`\n\s*\n+`)

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, paragraph := range paragraphPattern.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	return paragraphs
}
