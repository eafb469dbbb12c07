package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Page is a single extracted page of a source document
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Document represents a source document submitted for ingestion.
// Text holds the full extracted text; Pages is optional per-page text from
// the external extraction collaborator.
type Document struct {
	ID     int       `json:"id"`
	RID    uuid.UUID `json:"rid"`
	Title  string    `json:"title"`
	Source string    `json:"source"`
	Text   string    `json:"text,omitempty"`
	Pages  []Page    `json:"pages,omitempty"`
	// Registry fields, set by the store
	PageCount  int       `json:"page_count,omitempty"`
	ChunkCount int       `json:"chunk_count,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// NewDocumentFromFile reads a plain text file and creates a Document.
// The title defaults to the filename without extension, source to the base name.
func NewDocumentFromFile(filePath string) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Document{
		RID:    uuid.New(),
		Title:  title,
		Source: filename,
		Text:   string(content),
	}, nil
}
