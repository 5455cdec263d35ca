package model

// Entity types produced by the NER models.
const (
	EntityPerson = "PERSON"
	EntityOrg    = "ORG"
	EntityLoc    = "LOC"
	EntityGPE    = "GPE"
	EntityMisc   = "MISC"
)

// NamedEntity is a recognized span of text. Entities are never mutated after creation.
type NamedEntity struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float32 `json:"score,omitempty"`
}

// Sentence is a span of the annotated text.
type Sentence struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Document is the result of annotating one text.
type Document struct {
	Text      string        `json:"text"`
	Sentences []Sentence    `json:"sentences"`
	Entities  []NamedEntity `json:"entities"`
}

// EntitiesOfType returns the entities whose type equals entityType, in recognition order.
func (d *Document) EntitiesOfType(entityType string) []NamedEntity {
	if d == nil {
		return nil
	}
	out := []NamedEntity{}
	for _, e := range d.Entities {
		if e.Type == entityType {
			out = append(out, e)
		}
	}
	return out
}
