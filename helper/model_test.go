package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModelIn(t *testing.T) {
	t.Run("Existing model directory is returned without download", func(t *testing.T) {
		modelDir := t.TempDir()
		expected := filepath.Join(modelDir, "KnightsAnalytics_distilbert-NER")
		require.NoError(t, os.MkdirAll(expected, 0750), "Expected directory creation to succeed")

		path, err := PrepareModelIn(modelDir, "KnightsAnalytics/distilbert-NER", "")

		assert.NoError(t, err, "Expected PrepareModelIn to not return an error for an existing model")
		assert.Equal(t, expected, path)
	})

	t.Run("Organization and name are joined with an underscore", func(t *testing.T) {
		modelDir := t.TempDir()
		expected := filepath.Join(modelDir, "sentence-transformers_all-MiniLM-L6-v2")
		require.NoError(t, os.MkdirAll(expected, 0750))

		path, err := PrepareModelIn(modelDir, "sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		assert.NoError(t, err)
		assert.Equal(t, expected, path, "Expected path to use the sanitized name")
	})

	t.Run("Name without organization is used as is", func(t *testing.T) {
		modelDir := t.TempDir()
		expected := filepath.Join(modelDir, "distilbert-NER")
		require.NoError(t, os.MkdirAll(expected, 0750))

		path, err := PrepareModelIn(modelDir, "distilbert-NER", "")

		assert.NoError(t, err)
		assert.Equal(t, expected, path)
	})

	t.Run("Model directory that is a file fails", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "models")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		_, err := PrepareModelIn(filepath.Join(blocker, "nested"), "KnightsAnalytics/distilbert-NER", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create model directory")
	})

	t.Run("Unknown model fails to download", func(t *testing.T) {
		modelDir := filepath.Join(t.TempDir(), "models")

		_, err := PrepareModelIn(modelDir, "inscriber-tests/no-such-model", "")

		require.Error(t, err, "Expected a missing model to fail")
		assert.Contains(t, err.Error(), "failed to download model")
		assert.DirExists(t, modelDir, "Expected the model directory to be created before the download")
	})
}

func TestPrepareModel(t *testing.T) {
	t.Run("Default directory is used", func(t *testing.T) {
		expected := filepath.Join(DefaultModelDir, "inscriber-tests_cached-model")
		require.NoError(t, os.MkdirAll(expected, 0750))
		t.Cleanup(func() {
			_ = os.RemoveAll(expected)
			_ = os.Remove(DefaultModelDir)
		})

		path, err := PrepareModel("inscriber-tests/cached-model", "")

		assert.NoError(t, err)
		assert.Equal(t, expected, path)
	})
}
