package retrieval

import (
	"strings"

	"github.com/siherrmann/lexrag/model"
)

// AssembleContext concatenates hit texts in rank order under maxChars.
// Hits are joined by blank lines; a hit that would cross the budget is cut
// to the remaining prefix. The bundle carries the metadata of the first
// contributing hit for citation. The result never exceeds maxChars.
func AssembleContext(hits []*model.RetrievalHit, maxChars int) *model.ContextBundle {
	bundle := &model.ContextBundle{}
	if len(hits) == 0 || maxChars <= 0 {
		return bundle
	}

	var builder strings.Builder
	for _, hit := range hits {
		if hit.Text == "" {
			continue
		}

		separator := ""
		if builder.Len() > 0 {
			separator = "\n\n"
		}

		remaining := maxChars - builder.Len() - len(separator)
		if remaining <= 0 {
			break
		}

		text := hit.Text
		if len(text) > remaining {
			text = text[:remaining]
		}

		builder.WriteString(separator)
		builder.WriteString(text)
		if bundle.ChunkCount == 0 {
			bundle.Metadata = hit.Metadata
		}
		bundle.ChunkCount++
	}

	bundle.Text = builder.String()
	return bundle
}
