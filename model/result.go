package model

// SearchResult is a page returned by a search together with its inscriptions
type SearchResult struct {
	Page           *PageRecord   `json:"page"`
	ContainerLabel string        `json:"container_label"`
	Score          float64       `json:"score"`
	Inscriptions   []Inscription `json:"inscriptions,omitempty"`
}
