package model

import (
	"time"

	"github.com/google/uuid"
)

// ContainerRecord is a dumped container as stored in the database
type ContainerRecord struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	Label       string    `json:"label"`
	ManifestID  string    `json:"manifest_id"`
	ManifestURI string    `json:"manifest_uri"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
