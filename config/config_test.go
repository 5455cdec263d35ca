package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 95, cfg.Page.ConfidenceThreshold, "Default threshold should be 95")
	assert.Equal(t, "Container", cfg.Page.ContainerLabelField)
	assert.True(t, cfg.Page.PreferTextRendering)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, []string{"txt", "csv", "jsonl", "ttl"}, cfg.Export.Formats)
	assert.False(t, cfg.Database.Enabled, "Database should be disabled by default")
	assert.Equal(t, 384, cfg.Database.EmbeddingDim)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("Missing config file uses defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("XDG_CACHE_HOME", "/var/cache/test")

		cfg, err := Load("")

		require.NoError(t, err, "Expected missing config file to be tolerated")
		assert.Equal(t, 95, cfg.Page.ConfidenceThreshold)
		assert.Equal(t, "/var/cache/test/inscriber/images", cfg.Cache.ImageDir)
		assert.Equal(t, "/var/cache/test/inscriber/ocr", cfg.Cache.OCRDir)
		assert.Equal(t, 60*time.Second, cfg.HTTP.Timeout)
	})

	t.Run("Config file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")
		content := "page:\n  confidence_threshold: 80\noutput_dir: /tmp/out\nhttp:\n  timeout: 5s\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 80, cfg.Page.ConfidenceThreshold)
		assert.Equal(t, "/tmp/out", cfg.OutputDir)
		assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, "Container", cfg.Page.ContainerLabelField, "Expected unset keys to keep defaults")
	})

	t.Run("Environment overrides config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")
		require.NoError(t, os.WriteFile(path, []byte("page:\n  confidence_threshold: 80\n"), 0600))
		t.Setenv("INSCRIBER_PAGE_CONFIDENCE_THRESHOLD", "60")
		t.Setenv("INSCRIBER_DATABASE_ENABLED", "true")
		t.Setenv("INSCRIBER_DATABASE_HOST", "db.internal")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 60, cfg.Page.ConfidenceThreshold)
		assert.True(t, cfg.Database.Enabled)
		assert.Equal(t, "db.internal", cfg.Database.Host)
	})

	t.Run("Invalid threshold fails validation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")
		require.NoError(t, os.WriteFile(path, []byte("page:\n  confidence_threshold: 101\n"), 0600))

		_, err := Load(path)

		assert.Error(t, err)
	})

	t.Run("Malformed config file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")
		require.NoError(t, os.WriteFile(path, []byte("page: [unterminated\n"), 0600))

		_, err := Load(path)

		assert.Error(t, err)
	})
}

func TestWriteDefault(t *testing.T) {
	t.Run("Written defaults load back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")

		require.NoError(t, WriteDefault(path))
		cfg, err := Load(path)

		require.NoError(t, err)
		expected := DefaultConfig()
		assert.Equal(t, expected.Page, cfg.Page)
		assert.Equal(t, expected.HTTP, cfg.HTTP)
		assert.Equal(t, expected.Export.Formats, cfg.Export.Formats)
		assert.Equal(t, expected.Database.Host, cfg.Database.Host)
	})

	t.Run("Existing file is not overwritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "inscriber.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keep"), 0600))

		err := WriteDefault(path)

		assert.Error(t, err)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "keep", string(data))
	})
}
