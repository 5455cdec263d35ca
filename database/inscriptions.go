package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/siherrmann/inscriber/sql"
)

// InscriptionsDBHandlerFunctions defines the interface for Inscriptions database operations.
type InscriptionsDBHandlerFunctions interface {
	InsertInscription(inscription *model.Inscription) error
	ReplacePageInscriptions(pageID int, inscriptions []model.Inscription) ([]model.Inscription, error)
	SelectInscriptionsByPage(pageID int) ([]model.Inscription, error)
	SelectInscriptionsByType(entityType string, limit int) ([]model.Inscription, error)
	SelectInscriptionsBySearch(searchTerm string, entityType *string, limit int) ([]model.Inscription, error)
	DeleteInscriptionsByPage(pageID int) (int, error)
}

// InscriptionsDBHandler handles inscription-related database operations
type InscriptionsDBHandler struct {
	db *helper.Database
}

// NewInscriptionsDBHandler creates a new inscriptions database handler.
// The pages table must exist. If force is true, it will reload the SQL
// functions even if they already exist.
func NewInscriptionsDBHandler(db *helper.Database, force bool) (*InscriptionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	inscriptionsDbHandler := &InscriptionsDBHandler{
		db: db,
	}

	err := sql.LoadInscriptionsSql(inscriptionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load inscriptions sql", err)
	}

	err = inscriptionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized InscriptionsDBHandler")

	return inscriptionsDbHandler, nil
}

// CreateTable creates the 'inscriptions' table in the database.
func (h *InscriptionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_inscriptions();`)
	if err != nil {
		return helper.NewError("init inscriptions", err)
	}

	h.db.Logger.Info("Checked/created table inscriptions")

	return nil
}

// InsertInscription inserts an inscription, updating the one with the same IRI
func (h *InscriptionsDBHandler) InsertInscription(inscription *model.Inscription) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_inscription($1, $2, $3, $4, $5)`,
		inscription.PageID,
		inscription.IRI,
		inscription.CanvasID,
		inscription.Text,
		inscription.EntityType,
	)

	err := scanInscription(row, inscription)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// ReplacePageInscriptions replaces all inscriptions of a page in one transaction.
func (h *InscriptionsDBHandler) ReplacePageInscriptions(pageID int, inscriptions []model.Inscription) ([]model.Inscription, error) {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return nil, helper.NewError("begin", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`SELECT delete_inscriptions_by_page($1)`, pageID)
	if err != nil {
		return nil, helper.NewError("exec", err)
	}

	out := make([]model.Inscription, 0, len(inscriptions))
	for _, inscription := range inscriptions {
		inscription.PageID = pageID
		row := tx.QueryRow(
			`SELECT * FROM insert_inscription($1, $2, $3, $4, $5)`,
			inscription.PageID,
			inscription.IRI,
			inscription.CanvasID,
			inscription.Text,
			inscription.EntityType,
		)
		err := scanInscription(row, &inscription)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		out = append(out, inscription)
	}

	err = tx.Commit()
	if err != nil {
		return nil, helper.NewError("commit", err)
	}
	return out, nil
}

// SelectInscriptionsByPage retrieves the inscriptions of a page
func (h *InscriptionsDBHandler) SelectInscriptionsByPage(pageID int) ([]model.Inscription, error) {
	return h.query(`SELECT * FROM select_inscriptions_by_page($1)`, pageID)
}

// SelectInscriptionsByType retrieves inscriptions of one entity type
func (h *InscriptionsDBHandler) SelectInscriptionsByType(entityType string, limit int) ([]model.Inscription, error) {
	return h.query(`SELECT * FROM select_inscriptions_by_type($1, $2)`, entityType, limit)
}

// SelectInscriptionsBySearch searches inscription texts, optionally within one entity type
func (h *InscriptionsDBHandler) SelectInscriptionsBySearch(searchTerm string, entityType *string, limit int) ([]model.Inscription, error) {
	return h.query(`SELECT * FROM search_inscriptions($1, $2, $3)`, searchTerm, entityType, limit)
}

// DeleteInscriptionsByPage deletes the inscriptions of a page and returns how many were removed
func (h *InscriptionsDBHandler) DeleteInscriptionsByPage(pageID int) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRow(`SELECT delete_inscriptions_by_page($1)`, pageID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("exec", err)
	}
	return deleted, nil
}

func (h *InscriptionsDBHandler) query(query string, args ...interface{}) ([]model.Inscription, error) {
	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	inscriptions := []model.Inscription{}
	for rows.Next() {
		inscription := model.Inscription{}
		err := scanInscription(rows, &inscription)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		inscriptions = append(inscriptions, inscription)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return inscriptions, nil
}

func scanInscription(row scanner, inscription *model.Inscription) error {
	return row.Scan(
		&inscription.ID,
		&inscription.IRI,
		&inscription.PageID,
		&inscription.CanvasID,
		&inscription.Text,
		&inscription.EntityType,
		&inscription.CreatedAt,
	)
}
