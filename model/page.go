package model

import (
	"time"

	"github.com/google/uuid"
)

// PageRecord is the stored text of one canvas
type PageRecord struct {
	ID           int       `json:"id"`
	RID          uuid.UUID `json:"rid"`
	ContainerID  int64     `json:"container_id"`
	ContainerRID uuid.UUID `json:"container_rid"`
	CanvasID     string    `json:"canvas_id"`
	PageKey      string    `json:"page_key"`
	Position     int       `json:"position"`
	Text         string    `json:"text"`
	Threshold    int       `json:"threshold"`
	Embedding    []float32 `json:"embedding,omitempty"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}
