package model

import (
	"time"

	"github.com/google/uuid"
)

// Inscription is one recognized entity attributed to a canvas.
// IRI is the minted subject used in the graph.
type Inscription struct {
	ID         uuid.UUID `json:"id"`
	IRI        string    `json:"iri"`
	PageID     int       `json:"page_id,omitempty"`
	CanvasID   string    `json:"canvas_id"`
	Text       string    `json:"text"`
	EntityType string    `json:"entity_type"`
	CreatedAt  time.Time `json:"created_at"`
}
