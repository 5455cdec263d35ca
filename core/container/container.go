package container

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/siherrmann/inscriber/core/export"
	"github.com/siherrmann/inscriber/core/iiif"
	"github.com/siherrmann/inscriber/core/page"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// DefaultLabelField is the metadata field naming the physical container.
const DefaultLabelField = "Container"

// Options configure how pages are created and exported.
type Options struct {
	LabelField string
	Page       page.Options
	Formats    []export.Format
}

// DefaultOptions exports all formats with the default page options.
func DefaultOptions() Options {
	return Options{
		LabelField: DefaultLabelField,
		Page:       page.DefaultOptions(),
		Formats:    export.AllFormats(),
	}
}

// Container owns the pages of one manifest.
type Container struct {
	source   *iiif.ManifestSource
	sources  page.Sources
	exporter *export.Exporter
	opts     Options
	logger   *slog.Logger

	pages []*page.Page
}

// New creates a container over source. Pages share sources; the exporter may be
// nil if Dump is not used.
func New(source *iiif.ManifestSource, sources page.Sources, exporter *export.Exporter, opts Options) *Container {
	logger := sources.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LabelField == "" {
		opts.LabelField = DefaultLabelField
	}
	if len(opts.Formats) == 0 {
		opts.Formats = export.AllFormats()
	}
	if exporter == nil {
		exporter = export.NewExporter(sources.Metrics, logger)
	}
	return &Container{
		source:   source,
		sources:  sources,
		exporter: exporter,
		opts:     opts,
		logger:   logger.With(slog.String("manifest", source.URI)),
	}
}

// URI returns the manifest URI.
func (c *Container) URI() string { return c.source.URI }

// Manifest loads the manifest on first access.
func (c *Container) Manifest(ctx context.Context) (*model.Manifest, error) {
	return c.source.Load(ctx)
}

// Label returns the filesystem safe container label.
func (c *Container) Label(ctx context.Context) (string, error) {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return "", err
	}
	return DeriveLabel(manifest, c.opts.LabelField), nil
}

// DeriveLabel uses the first value of the label field and falls back to the manifest id.
func DeriveLabel(manifest *model.Manifest, field string) string {
	label := ""
	if values, ok := manifest.MetadataMap()[field]; ok {
		label = values.First()
	}
	if strings.TrimSpace(label) == "" {
		label = manifest.ID()
	}
	if strings.TrimSpace(label) == "" {
		label = "unlabeled"
	}
	return SanitizeLabel(label)
}

// SanitizeLabel replaces punctuation, symbols and whitespace with "_". Hyphens are kept.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '-':
			return r
		case unicode.IsSpace(r), unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(label))
}

// Metadata returns the flattened manifest metadata.
func (c *Container) Metadata(ctx context.Context) (model.Metadata, error) {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewMetadata(manifest.MetadataMap()), nil
}

// Pages returns one page per canvas in manifest order. Container metadata is
// copied down to every page.
func (c *Container) Pages(ctx context.Context) ([]*page.Page, error) {
	if c.pages != nil {
		return c.pages, nil
	}
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	metadata := model.NewMetadata(manifest.MetadataMap())

	canvases := manifest.Canvases()
	if len(canvases) == 0 {
		c.logger.Debug("No canvases found")
	}
	pages := make([]*page.Page, 0, len(canvases))
	for _, canvas := range canvases {
		opts := c.opts.Page
		opts.Metadata = metadata.Clone()
		pages = append(pages, page.New(canvas, c.sources, opts))
	}
	c.pages = pages
	return pages, nil
}

// Dir returns baseDir/<label>.
func (c *Container) Dir(ctx context.Context, baseDir string) (string, error) {
	label, err := c.Label(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, label), nil
}

// DumpReport summarizes a container dump.
type DumpReport struct {
	Label string
	Dir   string
	Pages []*export.PageReport
}

// Failed returns the number of pages with at least one failed format.
func (r *DumpReport) Failed() int {
	n := 0
	for _, p := range r.Pages {
		if !p.OK() {
			n++
		}
	}
	return n
}

// Written returns the number of files written.
func (r *DumpReport) Written() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Written)
	}
	return n
}

// Dump exports every page into baseDir/<label>. Page failures are recorded in
// the report; only a manifest failure or an uncreatable output directory is returned.
func (c *Container) Dump(ctx context.Context, baseDir string) (*DumpReport, error) {
	pages, err := c.Pages(ctx)
	if err != nil {
		return nil, err
	}
	dir, err := c.Dir(ctx, baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, helper.Kind(helper.ErrOutputDir, dir, err)
	}

	report := &DumpReport{Label: filepath.Base(dir), Dir: dir, Pages: make([]*export.PageReport, 0, len(pages))}
	c.logger.Info("Dumping container", slog.String("dir", dir), slog.Int("pages", len(pages)))
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		pr := c.exporter.ExportPage(ctx, p, dir, c.opts.Formats...)
		if !pr.OK() {
			c.sources.Metrics.PageFailure(pr.Err())
		}
		report.Pages = append(report.Pages, pr)
	}
	c.logger.Info("Dumped container", slog.String("dir", dir), slog.Int("files", report.Written()), slog.Int("failed_pages", report.Failed()))
	return report, nil
}

// Exported reports whether baseDir/<label> holds a ttl file for every page.
func (c *Container) Exported(ctx context.Context, baseDir string) (bool, error) {
	pages, err := c.Pages(ctx)
	if err != nil {
		return false, err
	}
	dir, err := c.Dir(ctx, baseDir)
	if err != nil {
		return false, err
	}
	if len(pages) == 0 {
		info, err := os.Stat(dir)
		return err == nil && info.IsDir(), nil
	}
	for _, p := range pages {
		if !helper.FileExists(filepath.Join(dir, export.FileName(p.ID(), export.FormatTTL))) {
			return false, nil
		}
	}
	return true, nil
}

// ImageCache acquires the image of a canvas.
type ImageCache interface {
	Image(ctx context.Context, canvas model.Canvas) (string, error)
}

// DownloadReport lists the cached image paths and the per-canvas failures.
type DownloadReport struct {
	Paths  []string
	Failed map[string]error
}

// DownloadImages populates the image cache for every canvas. Failures are
// logged and skipped.
func (c *Container) DownloadImages(ctx context.Context, images ImageCache) (*DownloadReport, error) {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	report := &DownloadReport{Failed: map[string]error{}}
	for _, canvas := range manifest.Canvases() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		path, err := images.Image(ctx, canvas)
		if err != nil {
			if errors.Is(err, context.Canceled) || !helper.IsPageLocal(err) {
				return report, err
			}
			c.logger.Warn("Skipping image", slog.String("canvas", canvas.ID), slog.String("error", err.Error()))
			report.Failed[canvas.ID] = err
			continue
		}
		report.Paths = append(report.Paths, path)
	}
	return report, nil
}
