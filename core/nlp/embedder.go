package nlp

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/inscriber/helper"
)

// DefaultEmbeddingModel produces 384-dimensional embeddings.
const DefaultEmbeddingModel = "sentence-transformers/all-MiniLM-L6-v2"

// Embedder wraps a hugot feature extraction pipeline.
type Embedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
}

// NewEmbedder downloads the model into modelDir if needed and creates the pipeline.
func NewEmbedder(modelDir string, modelName string) (*Embedder, error) {
	if modelName == "" {
		modelName = DefaultEmbeddingModel
	}
	modelPath, err := helper.PrepareModelIn(modelDir, modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &Embedder{session: session, pipeline: sentencePipeline}, nil
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(text string) ([]float32, error) {
	result, err := e.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}
	return result.Embeddings[0], nil
}

// Func returns Embed as an EmbedFunc.
func (e *Embedder) Func() EmbedFunc {
	return e.Embed
}

// Close releases the hugot session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
