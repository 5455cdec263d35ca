package ocr

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/core/metrics"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// ImageDownloader fetches an image into a local path.
type ImageDownloader interface {
	DownloadImage(ctx context.Context, uri string, path string) error
}

// Cache keeps one image and one token table CSV per canvas on disk. Both are
// named after the trailing segment of the canvas image URI.
type Cache struct {
	imageDir string
	ocrDir   string
	engine   Engine
	images   ImageDownloader
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewCache creates a cache over the configured directories.
// The recorder may be nil.
func NewCache(cfg config.CacheConfig, engine Engine, images ImageDownloader, recorder *metrics.Recorder, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		imageDir: cfg.ImageDir,
		ocrDir:   cfg.OCRDir,
		engine:   engine,
		images:   images,
		metrics:  recorder,
		logger:   logger,
	}
}

// ImagePath returns the image cache path of the canvas.
func (c *Cache) ImagePath(canvas model.Canvas) string {
	return filepath.Join(c.imageDir, canvas.ImageKey())
}

// DataPath returns the OCR cache path of the canvas.
func (c *Cache) DataPath(canvas model.Canvas) string {
	return filepath.Join(c.ocrDir, canvas.ImageKey())
}

// Image returns the cached image path of the canvas, downloading it first if needed.
// Failures yield helper.ErrImageUnavailable.
func (c *Cache) Image(ctx context.Context, canvas model.Canvas) (string, error) {
	uri, ok := canvas.ImageURI()
	if !ok || canvas.ImageKey() == "" {
		return "", helper.Kind(helper.ErrImageUnavailable, "canvas "+canvas.ID+" has no image/tiff rendering", nil)
	}

	path := c.ImagePath(canvas)
	if helper.FileExists(path) {
		return path, nil
	}

	c.logger.Debug("Image not cached", slog.String("canvas", canvas.ID))
	if c.images == nil {
		return "", helper.Kind(helper.ErrImageUnavailable, uri, errors.New("no image downloader configured"))
	}
	if err := c.images.DownloadImage(ctx, uri, path); err != nil {
		c.metrics.ImageDownload(metrics.OutcomeFailed)
		return "", err
	}
	c.metrics.ImageDownload(metrics.OutcomeOK)
	return path, nil
}

// TokenTable returns the cached token table of the canvas. On a miss the image
// is acquired, the engine is run once and the result is written to the cache.
func (c *Cache) TokenTable(ctx context.Context, canvas model.Canvas) (model.TokenTable, error) {
	if canvas.ImageKey() == "" {
		return nil, helper.Kind(helper.ErrImageUnavailable, "canvas "+canvas.ID+" has no image/tiff rendering", nil)
	}

	path := c.DataPath(canvas)
	if table, ok := c.read(path); ok {
		c.metrics.OCRCacheHit()
		return table, nil
	}
	c.metrics.OCRCacheMiss()
	c.logger.Debug("OCR not cached", slog.String("canvas", canvas.ID))

	imagePath, err := c.Image(ctx, canvas)
	if err != nil {
		return nil, err
	}

	if c.engine == nil {
		return nil, helper.Kind(helper.ErrOcrFailure, canvas.ID, errors.New("no OCR engine configured"))
	}
	start := time.Now()
	table, err := c.engine.Recognize(ctx, imagePath)
	c.metrics.OCRRun(time.Since(start))
	if err != nil {
		return nil, helper.Kind(helper.ErrOcrFailure, canvas.ID, err)
	}

	if err := c.write(path, table); err != nil {
		// The table is still usable for this run.
		c.logger.Warn("Failed to cache OCR data", slog.String("path", path), slog.String("error", err.Error()))
	}
	return table, nil
}

// Has reports whether a token table is cached for the canvas.
func (c *Cache) Has(canvas model.Canvas) bool {
	return canvas.ImageKey() != "" && helper.FileExists(c.DataPath(canvas))
}

func (c *Cache) read(path string) (model.TokenTable, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	table, err := ReadTable(f)
	if err != nil {
		c.logger.Warn("Ignoring unreadable OCR cache", slog.String("path", path), slog.String("error", err.Error()))
		return nil, false
	}
	return table, true
}

func (c *Cache) write(path string, table model.TokenTable) error {
	data, err := EncodeTable(table)
	if err != nil {
		return helper.NewError("encode token table", err)
	}
	return helper.WriteFileAtomic(path, data, 0640)
}
