package model

import "github.com/google/uuid"

// QueryConfig represents configuration for a page search
type QueryConfig struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Container filtering
	ContainerRIDs []uuid.UUID `json:"container_rids,omitempty"`

	// Restrict to pages carrying an inscription of this type
	EntityType string `json:"entity_type,omitempty"`
}

// DefaultQueryConfig returns the default search configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0.3,
	}
}
