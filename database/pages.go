package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	loadSql "github.com/siherrmann/inscriber/sql"
)

// PagesDBHandlerFunctions defines the interface for Pages database operations.
type PagesDBHandlerFunctions interface {
	UpsertPage(page *model.PageRecord) error
	SelectPage(rid uuid.UUID) (*model.PageRecord, error)
	SelectPagesByContainer(containerRID uuid.UUID) ([]*model.PageRecord, error)
	SelectPagesBySimilarity(embedding []float32, config model.QueryConfig) ([]*model.SearchResult, error)
	DeletePage(rid uuid.UUID) error
}

// PagesDBHandler handles page-related database operations
type PagesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewPagesDBHandler creates a new pages database handler.
// The containers table must exist. If force is true, it will reload the SQL
// functions even if they already exist.
func NewPagesDBHandler(db *helper.Database, embeddingDim int, force bool) (*PagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	pagesDbHandler := &PagesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadPagesSql(pagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load pages sql", err)
	}

	err = pagesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PagesDBHandler")

	return pagesDbHandler, nil
}

// CreateTable creates the 'pages' table with an embedding column of the
// configured dimension and its vector index.
func (h *PagesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_pages($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init pages", err)
	}

	h.db.Logger.Info("Checked/created table pages")

	return nil
}

// UpsertPage inserts a page or replaces the stored page of the same canvas in the same container
func (h *PagesDBHandler) UpsertPage(page *model.PageRecord) error {
	if len(page.Embedding) > 0 && len(page.Embedding) != h.embeddingDim {
		return helper.NewError("embedding validation", fmt.Errorf("expected embedding dimension %d, got %d", h.embeddingDim, len(page.Embedding)))
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_page($1, $2, $3, $4, $5, $6, $7, $8)`,
		page.ContainerRID,
		page.CanvasID,
		page.PageKey,
		page.Position,
		page.Text,
		page.Threshold,
		toVector(page.Embedding),
		page.Metadata,
	)

	err := scanPage(row, page)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectPage retrieves a page by RID
func (h *PagesDBHandler) SelectPage(rid uuid.UUID) (*model.PageRecord, error) {
	page := &model.PageRecord{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_page($1)`,
		rid,
	)

	err := scanPage(row, page)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return page, nil
}

// SelectPagesByContainer retrieves the pages of a container in manifest order
func (h *PagesDBHandler) SelectPagesByContainer(containerRID uuid.UUID) ([]*model.PageRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_pages_by_container($1)`,
		containerRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var pages []*model.PageRecord
	for rows.Next() {
		page := &model.PageRecord{}
		err := scanPage(rows, page)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		pages = append(pages, page)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return pages, nil
}

// SelectPagesBySimilarity performs vector similarity search.
// If config.ContainerRIDs is empty, all containers are searched.
func (h *PagesDBHandler) SelectPagesBySimilarity(embedding []float32, config model.QueryConfig) ([]*model.SearchResult, error) {
	embeddingVector := pgvector.NewVector(embedding)

	var containerRIDsParam interface{}
	if len(config.ContainerRIDs) > 0 {
		containerRIDsParam = pq.Array(config.ContainerRIDs)
	}
	var entityTypeParam interface{}
	if config.EntityType != "" {
		entityTypeParam = config.EntityType
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_pages_by_similarity($1, $2, $3, $4, $5)`,
		embeddingVector,
		config.TopK,
		config.SimilarityThreshold,
		containerRIDsParam,
		entityTypeParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.SearchResult
	for rows.Next() {
		page := &model.PageRecord{}
		result := &model.SearchResult{Page: page}
		var stored *pgvector.Vector
		err := rows.Scan(
			&page.ID,
			&page.RID,
			&page.ContainerID,
			&page.ContainerRID,
			&page.CanvasID,
			&page.PageKey,
			&page.Position,
			&page.Text,
			&page.Threshold,
			&stored,
			&page.Metadata,
			&page.CreatedAt,
			&page.Similarity,
			&result.ContainerLabel,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if stored != nil {
			page.Embedding = stored.Slice()
		}
		page.Distance = 1 - page.Similarity
		result.Score = page.Similarity

		results = append(results, result)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// DeletePage deletes a page and its inscriptions
func (h *PagesDBHandler) DeletePage(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_page($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// toVector returns nil for an empty embedding so the column stays NULL.
func toVector(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func scanPage(row scanner, page *model.PageRecord) error {
	var embedding *pgvector.Vector
	err := row.Scan(
		&page.ID,
		&page.RID,
		&page.ContainerID,
		&page.ContainerRID,
		&page.CanvasID,
		&page.PageKey,
		&page.Position,
		&page.Text,
		&page.Threshold,
		&embedding,
		&page.Metadata,
		&page.CreatedAt,
	)
	if err != nil {
		return err
	}
	page.Embedding = nil
	if embedding != nil {
		page.Embedding = embedding.Slice()
	}
	return nil
}
