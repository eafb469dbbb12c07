package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/siherrmann/lexrag/helper"
)

// ChunkMetadata is the structural metadata attached to every chunk.
// It is a fixed record rather than an open map so downstream formatting
// can be exhaustive. Stored as JSONB in PostgreSQL.
type ChunkMetadata struct {
	Title         string    `json:"title,omitempty"`
	Chapter       string    `json:"chapter,omitempty"`
	Article       string    `json:"article,omitempty"`
	Page          int       `json:"page,omitempty"`
	Paragraph     int       `json:"paragraph,omitempty"`
	IngestionDate time.Time `json:"ingestion_date"`
}

// Value implements the driver.Valuer interface for database storage
func (m ChunkMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *ChunkMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ChunkMetadata{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}
