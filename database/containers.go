package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/siherrmann/inscriber/sql"
)

// ContainersDBHandlerFunctions defines the interface for Containers database operations.
type ContainersDBHandlerFunctions interface {
	UpsertContainer(container *model.ContainerRecord) error
	SelectContainer(rid uuid.UUID) (*model.ContainerRecord, error)
	SelectContainerByURI(manifestURI string) (*model.ContainerRecord, error)
	SelectAllContainers(lastCreatedAt *time.Time, limit int) ([]*model.ContainerRecord, error)
	DeleteContainer(rid uuid.UUID) error
}

// ContainersDBHandler handles container-related database operations
type ContainersDBHandler struct {
	db *helper.Database
}

// NewContainersDBHandler creates a new containers database handler.
// It loads the container SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewContainersDBHandler(db *helper.Database, force bool) (*ContainersDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	containersDbHandler := &ContainersDBHandler{
		db: db,
	}

	err := sql.LoadContainersSql(containersDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load containers sql", err)
	}

	err = containersDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ContainersDBHandler")

	return containersDbHandler, nil
}

// CreateTable creates the 'containers' table in the database.
// If the table already exists, it does not create it again.
func (h *ContainersDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_containers();`)
	if err != nil {
		return helper.NewError("init containers", err)
	}

	h.db.Logger.Info("Checked/created table containers")

	return nil
}

// UpsertContainer inserts a container or updates the one with the same manifest URI
func (h *ContainersDBHandler) UpsertContainer(container *model.ContainerRecord) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_container($1, $2, $3, $4)`,
		container.Label,
		container.ManifestID,
		container.ManifestURI,
		container.Metadata,
	)

	err := scanContainer(row, container)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectContainer retrieves a container by RID
func (h *ContainersDBHandler) SelectContainer(rid uuid.UUID) (*model.ContainerRecord, error) {
	container := &model.ContainerRecord{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_container($1)`,
		rid,
	)

	err := scanContainer(row, container)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return container, nil
}

// SelectContainerByURI retrieves a container by manifest URI
func (h *ContainersDBHandler) SelectContainerByURI(manifestURI string) (*model.ContainerRecord, error) {
	container := &model.ContainerRecord{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_container_by_uri($1)`,
		manifestURI,
	)

	err := scanContainer(row, container)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return container, nil
}

// SelectAllContainers retrieves containers newest first, paginated by creation time
func (h *ContainersDBHandler) SelectAllContainers(lastCreatedAt *time.Time, limit int) ([]*model.ContainerRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_containers($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var containers []*model.ContainerRecord
	for rows.Next() {
		container := &model.ContainerRecord{}
		err := scanContainer(rows, container)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		containers = append(containers, container)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return containers, nil
}

// DeleteContainer deletes a container and, by cascade, its pages and inscriptions
func (h *ContainersDBHandler) DeleteContainer(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_container($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanContainer(row scanner, container *model.ContainerRecord) error {
	return row.Scan(
		&container.ID,
		&container.RID,
		&container.Label,
		&container.ManifestID,
		&container.ManifestURI,
		&container.Metadata,
		&container.CreatedAt,
		&container.UpdatedAt,
	)
}
