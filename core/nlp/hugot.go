package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// DefaultNERModel is a distilbert model fine-tuned on CoNLL-2003.
const DefaultNERModel = "KnightsAnalytics/distilbert-NER"

// HugotAnnotator runs a hugot token classification pipeline sentence by sentence.
type HugotAnnotator struct {
	modelName string
	session   *hugot.Session
	pipeline  *pipelines.TokenClassificationPipeline
}

// NewHugotAnnotator downloads the model into modelDir if needed and creates the NER pipeline.
// Detects PERSON, ORG, LOC and MISC entities.
func NewHugotAnnotator(modelDir string, modelName string) (*HugotAnnotator, error) {
	if modelName == "" {
		modelName = DefaultNERModel
	}
	modelPath, err := helper.PrepareModelIn(modelDir, modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return &HugotAnnotator{
		modelName: modelName,
		session:   session,
		pipeline:  nerPipeline,
	}, nil
}

func (a *HugotAnnotator) Name() string { return a.modelName }

// Annotate splits text into sentences and classifies all sentences in one batch.
// Entity offsets are translated back into text.
func (a *HugotAnnotator) Annotate(ctx context.Context, text string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentences := SplitSentences(text)
	doc := &model.Document{
		Text:      text,
		Sentences: sentences,
		Entities:  []model.NamedEntity{},
	}
	if len(sentences) == 0 {
		return doc, nil
	}

	inputs := make([]string, len(sentences))
	for i, s := range sentences {
		inputs[i] = s.Text
	}

	result, err := a.pipeline.RunPipeline(inputs)
	if err != nil {
		return nil, helper.Kind(helper.ErrNlpFailure, a.modelName, err)
	}

	var entities []model.NamedEntity
	for i, sentenceEntities := range result.Entities {
		if i >= len(sentences) {
			break
		}
		offset := sentences[i].Start
		for _, entity := range sentenceEntities {
			word := strings.TrimSpace(entity.Word)
			if word == "" {
				continue
			}
			entities = append(entities, model.NamedEntity{
				Text:  word,
				Type:  NormalizeEntityType(entity.Entity),
				Start: offset + int(entity.Start),
				End:   offset + int(entity.End),
				Score: float32(entity.Score),
			})
		}
	}
	doc.Entities = withIDs(entities)
	return doc, nil
}

// Close releases the hugot session.
func (a *HugotAnnotator) Close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Destroy()
}

// NormalizeEntityType removes BIO prefixes and maps CoNLL labels onto the
// entity type vocabulary, e.g. "B-PER" becomes "PERSON".
func NormalizeEntityType(label string) string {
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")
	switch strings.ToUpper(label) {
	case "PER", "PERSON":
		return model.EntityPerson
	case "ORG", "ORGANIZATION":
		return model.EntityOrg
	case "LOC", "LOCATION":
		return model.EntityLoc
	case "MISC":
		return model.EntityMisc
	}
	return strings.ToUpper(label)
}
