package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// DocumentsDBHandlerFunctions defines the interface for document registry operations.
type DocumentsDBHandlerFunctions interface {
	UpsertDocument(ctx context.Context, doc *model.Document) error
	SelectDocument(ctx context.Context, source string) (*model.Document, error)
	SelectAllDocuments(ctx context.Context) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, source string) error
}

// DocumentsDBHandler handles the source document registry.
// The registry holds extraction metadata per source, the text itself
// lives in the chunks table.
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		return helper.NewError("init documents table", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// UpsertDocument inserts or updates a registry row, keyed by source
func (h *DocumentsDBHandler) UpsertDocument(ctx context.Context, doc *model.Document) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_document($1, $2, $3, $4, $5)`,
		doc.RID,
		doc.Title,
		doc.Source,
		doc.PageCount,
		doc.ChunkCount,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Source,
		&doc.PageCount,
		&doc.ChunkCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a registry row by source.
// Returns nil without error when the source is unknown.
func (h *DocumentsDBHandler) SelectDocument(ctx context.Context, source string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_document($1)`,
		source,
	)

	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Source,
		&doc.PageCount,
		&doc.ChunkCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all registry rows ordered by creation time
func (h *DocumentsDBHandler) SelectAllDocuments(ctx context.Context) ([]*model.Document, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.RID,
			&doc.Title,
			&doc.Source,
			&doc.PageCount,
			&doc.ChunkCount,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a registry row by source
func (h *DocumentsDBHandler) DeleteDocument(ctx context.Context, source string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_document($1)`,
		source,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
