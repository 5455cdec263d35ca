package nlp

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncAnnotator(t *testing.T) {
	ctx := context.Background()

	t.Run("Annotate collects sentences and entities", func(t *testing.T) {
		calls := 0
		annotator := NewFuncAnnotator("fake", func(text string) ([]model.NamedEntity, error) {
			calls++
			return []model.NamedEntity{{Text: "Barney Rubble", Type: model.EntityPerson}}, nil
		})

		doc, err := annotator.Annotate(ctx, "Barney Rubble called. He left.")

		require.NoError(t, err)
		assert.Equal(t, "fake", annotator.Name())
		assert.Len(t, doc.Sentences, 2)
		require.Len(t, doc.Entities, 1)
		assert.NotEmpty(t, doc.Entities[0].ID, "Expected an id to be assigned")
		assert.Equal(t, 1, calls, "Expected a single extractor call")
	})

	t.Run("Entity ids are fresh per annotation", func(t *testing.T) {
		annotator := NewFuncAnnotator("fake", func(text string) ([]model.NamedEntity, error) {
			return []model.NamedEntity{{Text: "Bedrock", Type: model.EntityLoc}}, nil
		})

		first, err := annotator.Annotate(ctx, "Bedrock.")
		require.NoError(t, err)
		second, err := annotator.Annotate(ctx, "Bedrock.")
		require.NoError(t, err)

		assert.NotEqual(t, first.Entities[0].ID, second.Entities[0].ID)
	})

	t.Run("Extractor errors are NLP failures", func(t *testing.T) {
		annotator := NewFuncAnnotator("broken", func(text string) ([]model.NamedEntity, error) {
			return nil, errors.New("model missing")
		})

		_, err := annotator.Annotate(ctx, "Some text.")

		require.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrNlpFailure)
	})

	t.Run("Blank text skips extraction", func(t *testing.T) {
		annotator := NewFuncAnnotator("fake", func(text string) ([]model.NamedEntity, error) {
			return nil, errors.New("should not be called")
		})

		doc, err := annotator.Annotate(ctx, "   ")

		require.NoError(t, err)
		assert.Empty(t, doc.Entities)
		assert.Empty(t, doc.Sentences)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewFuncAnnotator("fake", nil).Annotate(cctx, "text")

		assert.ErrorIs(t, err, context.Canceled)
	})
}
