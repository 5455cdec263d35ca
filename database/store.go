package database

import (
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// Store bundles the handlers needed to persist dumped containers.
type Store struct {
	Containers   *ContainersDBHandler
	Pages        *PagesDBHandler
	Inscriptions *InscriptionsDBHandler
}

// NewStore creates all handlers in dependency order.
func NewStore(db *helper.Database, embeddingDim int, force bool) (*Store, error) {
	containers, err := NewContainersDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("containers handler", err)
	}
	pages, err := NewPagesDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, helper.NewError("pages handler", err)
	}
	inscriptions, err := NewInscriptionsDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("inscriptions handler", err)
	}

	return &Store{
		Containers:   containers,
		Pages:        pages,
		Inscriptions: inscriptions,
	}, nil
}

// UpsertContainer inserts or updates a container by manifest URI.
func (s *Store) UpsertContainer(container *model.ContainerRecord) error {
	return s.Containers.UpsertContainer(container)
}

// SavePage upserts a page and replaces its inscriptions.
func (s *Store) SavePage(page *model.PageRecord, inscriptions []model.Inscription) ([]model.Inscription, error) {
	err := s.Pages.UpsertPage(page)
	if err != nil {
		return nil, helper.NewError("upsert page", err)
	}

	saved, err := s.Inscriptions.ReplacePageInscriptions(page.ID, inscriptions)
	if err != nil {
		return nil, helper.NewError("replace inscriptions", err)
	}
	return saved, nil
}

// Search runs a similarity search and attaches the inscriptions of every hit.
func (s *Store) Search(embedding []float32, config model.QueryConfig) ([]*model.SearchResult, error) {
	results, err := s.Pages.SelectPagesBySimilarity(embedding, config)
	if err != nil {
		return nil, helper.NewError("select pages", err)
	}

	for _, result := range results {
		inscriptions, err := s.Inscriptions.SelectInscriptionsByPage(result.Page.ID)
		if err != nil {
			return nil, helper.NewError("select inscriptions", err)
		}
		result.Inscriptions = inscriptions
	}
	return results, nil
}
