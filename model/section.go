package model

// Section is an intermediate structural grouping produced by the hierarchical
// segmenter, keyed by the last seen title, chapter and article markers.
// Sections are merged and re-split by the optimizer before becoming chunks.
type Section struct {
	Text      string `json:"text"`
	Title     string `json:"title,omitempty"`
	Chapter   string `json:"chapter,omitempty"`
	Article   string `json:"article,omitempty"`
	Page      int    `json:"page,omitempty"`
	StartLine int    `json:"start_line"`
}

// Size returns the section text length in characters
func (s *Section) Size() int {
	return len(s.Text)
}
