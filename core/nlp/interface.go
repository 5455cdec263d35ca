package nlp

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// Annotator recognizes sentences and named entities in a text.
type Annotator interface {
	// Name identifies the model. Pages drop their caches when it changes.
	Name() string
	Annotate(ctx context.Context, text string) (*model.Document, error)
}

// EntityExtractFunc extracts entities from text. Offsets refer to text.
type EntityExtractFunc func(text string) ([]model.NamedEntity, error)

// EmbedFunc generates an embedding for text
type EmbedFunc func(text string) ([]float32, error)

// SentenceSplitFunc splits text into sentences
type SentenceSplitFunc func(text string) []model.Sentence

// FuncAnnotator builds an Annotator from plain functions.
type FuncAnnotator struct {
	name    string
	Extract EntityExtractFunc
	Split   SentenceSplitFunc
}

// NewFuncAnnotator creates an annotator splitting with SplitSentences.
func NewFuncAnnotator(name string, extract EntityExtractFunc) *FuncAnnotator {
	return &FuncAnnotator{
		name:    name,
		Extract: extract,
		Split:   SplitSentences,
	}
}

func (a *FuncAnnotator) Name() string { return a.name }

// Annotate splits text into sentences and runs the extractor once over the whole text.
func (a *FuncAnnotator) Annotate(ctx context.Context, text string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	split := a.Split
	if split == nil {
		split = SplitSentences
	}
	doc := &model.Document{
		Text:      text,
		Sentences: split(text),
		Entities:  []model.NamedEntity{},
	}

	if a.Extract != nil && strings.TrimSpace(text) != "" {
		entities, err := a.Extract(text)
		if err != nil {
			return nil, helper.Kind(helper.ErrNlpFailure, a.name, err)
		}
		doc.Entities = withIDs(entities)
	}
	return doc, nil
}

// withIDs assigns a fresh id to every entity missing one.
func withIDs(entities []model.NamedEntity) []model.NamedEntity {
	out := make([]model.NamedEntity, 0, len(entities))
	for _, e := range entities {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		out = append(out, e)
	}
	return out
}
