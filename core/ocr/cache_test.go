package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/core/metrics"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	calls int
	err   error
}

func (d *fakeDownloader) DownloadImage(ctx context.Context, uri string, path string) error {
	d.calls++
	if d.err != nil {
		return helper.Kind(helper.ErrImageUnavailable, uri, d.err)
	}
	return helper.WriteFileAtomic(path, []byte("image"), 0640)
}

type fakeEngine struct {
	calls int
	table model.TokenTable
	err   error
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(ctx context.Context, imagePath string) (model.TokenTable, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.table, nil
}

func testCanvas() model.Canvas {
	return model.Canvas{
		ID: "https://example.org/manifest/canvas/p1",
		Rendering: []model.Rendering{
			{ID: "https://example.org/downloads/f1/file/img-0001", Format: model.FormatImageTiff},
		},
	}
}

func newTestCache(t *testing.T, engine Engine, images ImageDownloader) (*Cache, config.CacheConfig) {
	dir := t.TempDir()
	cfg := config.CacheConfig{
		ImageDir: filepath.Join(dir, "images"),
		OCRDir:   filepath.Join(dir, "ocr"),
	}
	return NewCache(cfg, engine, images, metrics.NewRecorder(), nil), cfg
}

func TestCacheTokenTable(t *testing.T) {
	ctx := context.Background()
	table := model.TokenTable{
		{Level: 5, PageNum: 1, BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: 1, Conf: model.Conf(97), Text: "Barney"},
		{Level: 5, PageNum: 1, BlockNum: 1, ParNum: 1, LineNum: 1, WordNum: 2, Conf: model.Conf(98), Text: "Rubble"},
	}

	t.Run("Miss downloads, recognizes and caches", func(t *testing.T) {
		engine := &fakeEngine{table: table}
		images := &fakeDownloader{}
		cache, cfg := newTestCache(t, engine, images)
		canvas := testCanvas()

		got, err := cache.TokenTable(ctx, canvas)

		require.NoError(t, err)
		assert.Equal(t, table, got)
		assert.Equal(t, 1, images.calls)
		assert.Equal(t, 1, engine.calls)
		assert.FileExists(t, filepath.Join(cfg.ImageDir, "img-0001"))
		assert.FileExists(t, filepath.Join(cfg.OCRDir, "img-0001"))
		assert.True(t, cache.Has(canvas))
	})

	t.Run("Hit does not run the engine again", func(t *testing.T) {
		engine := &fakeEngine{table: table}
		images := &fakeDownloader{}
		cache, _ := newTestCache(t, engine, images)
		canvas := testCanvas()

		_, err := cache.TokenTable(ctx, canvas)
		require.NoError(t, err)
		got, err := cache.TokenTable(ctx, canvas)
		require.NoError(t, err)

		assert.Equal(t, "Barney Rubble", ReconstructText(got, 95))
		assert.Equal(t, 1, engine.calls, "Expected exactly one OCR invocation")
		assert.Equal(t, 1, images.calls, "Expected exactly one download")
	})

	t.Run("Cached image is not downloaded again", func(t *testing.T) {
		engine := &fakeEngine{table: table}
		images := &fakeDownloader{}
		cache, cfg := newTestCache(t, engine, images)
		require.NoError(t, helper.WriteFileAtomic(filepath.Join(cfg.ImageDir, "img-0001"), []byte("img"), 0640))

		_, err := cache.TokenTable(ctx, testCanvas())

		require.NoError(t, err)
		assert.Equal(t, 0, images.calls)
		assert.Equal(t, 1, engine.calls)
	})

	t.Run("Unreadable cache entry is recomputed", func(t *testing.T) {
		engine := &fakeEngine{table: table}
		cache, cfg := newTestCache(t, engine, &fakeDownloader{})
		require.NoError(t, os.MkdirAll(cfg.OCRDir, 0750))
		require.NoError(t, os.WriteFile(filepath.Join(cfg.OCRDir, "img-0001"), []byte("level\n5\n"), 0640))

		got, err := cache.TokenTable(ctx, testCanvas())

		require.NoError(t, err)
		assert.Equal(t, table, got)
		assert.Equal(t, 1, engine.calls)
	})

	t.Run("Image failure is image unavailable", func(t *testing.T) {
		engine := &fakeEngine{table: table}
		cache, _ := newTestCache(t, engine, &fakeDownloader{err: errors.New("403")})

		_, err := cache.TokenTable(ctx, testCanvas())

		require.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrImageUnavailable)
		assert.Equal(t, 0, engine.calls)
	})

	t.Run("Engine failure is OCR failure", func(t *testing.T) {
		engine := &fakeEngine{err: errors.New("tesseract crashed")}
		cache, cfg := newTestCache(t, engine, &fakeDownloader{})

		_, err := cache.TokenTable(ctx, testCanvas())

		require.Error(t, err)
		assert.ErrorIs(t, err, helper.ErrOcrFailure)
		assert.NoFileExists(t, filepath.Join(cfg.OCRDir, "img-0001"), "Expected nothing to be cached")
	})

	t.Run("Canvas without image rendering", func(t *testing.T) {
		cache, _ := newTestCache(t, &fakeEngine{}, &fakeDownloader{})

		_, err := cache.TokenTable(ctx, model.Canvas{ID: "https://example.org/canvas/x"})

		assert.ErrorIs(t, err, helper.ErrImageUnavailable)
	})
}

func TestEngineFunc(t *testing.T) {
	engine := EngineFunc(func(ctx context.Context, imagePath string) (model.TokenTable, error) {
		return model.TokenTable{{Text: imagePath, Conf: model.Conf(99)}}, nil
	})

	table, err := engine.Recognize(context.Background(), "page")

	require.NoError(t, err)
	assert.Equal(t, "func", engine.Name())
	assert.Equal(t, "page", ReconstructText(table, 95))
}
