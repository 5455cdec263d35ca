package inscriber

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/inscriber/config"
	"github.com/siherrmann/inscriber/core/container"
	"github.com/siherrmann/inscriber/core/export"
	"github.com/siherrmann/inscriber/core/graph"
	"github.com/siherrmann/inscriber/core/iiif"
	"github.com/siherrmann/inscriber/core/metrics"
	"github.com/siherrmann/inscriber/core/nlp"
	"github.com/siherrmann/inscriber/core/ocr"
	"github.com/siherrmann/inscriber/core/page"
	"github.com/siherrmann/inscriber/database"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
	loadSql "github.com/siherrmann/inscriber/sql"
)

// Store persists dumped containers. *database.Store implements it.
type Store interface {
	UpsertContainer(container *model.ContainerRecord) error
	SavePage(page *model.PageRecord, inscriptions []model.Inscription) ([]model.Inscription, error)
	Search(embedding []float32, config model.QueryConfig) ([]*model.SearchResult, error)
}

// Option customizes the collaborators created by New.
type Option func(*Inscriber)

// WithEngine replaces the tesseract engine.
func WithEngine(engine ocr.Engine) Option {
	return func(i *Inscriber) { i.engine = engine }
}

// WithAnnotator replaces the hugot NER annotator.
func WithAnnotator(annotator nlp.Annotator) Option {
	return func(i *Inscriber) { i.Annotator = annotator }
}

// WithoutAnnotator skips loading the NER model. Formats that need entities fail
// for every page; use it for commands that only fetch or search.
func WithoutAnnotator() Option {
	return func(i *Inscriber) { i.skipNLP = true }
}

// WithStore replaces the Postgres store. The embedder may be nil, in which
// case pages are stored without embeddings and Search is unavailable.
func WithStore(store Store, embed nlp.EmbedFunc) Option {
	return func(i *Inscriber) {
		i.Store = store
		i.embed = embed
	}
}

// WithMint replaces the inscription identifier generator.
func WithMint(mint graph.MintFunc) Option {
	return func(i *Inscriber) { i.mint = mint }
}

// Inscriber wires fetching, OCR, annotation, export and the optional store
type Inscriber struct {
	Config    *config.Config
	Client    *iiif.Client
	OCR       *ocr.Cache
	Annotator nlp.Annotator
	Exporter  *export.Exporter
	Metrics   *metrics.Recorder
	DB        *helper.Database
	Store     Store

	engine  ocr.Engine
	embed   nlp.EmbedFunc
	mint    graph.MintFunc
	skipNLP bool
	formats []export.Format
	closers []func() error
	// Logging
	log *slog.Logger
}

// New creates an Inscriber from cfg. The tesseract engine, the hugot annotator and,
// if the database is enabled, the Postgres store with a hugot embedder are
// created unless replaced by options.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Inscriber, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stderr, slog.LevelInfo)
	}

	formats, err := export.ParseFormats(cfg.Export.Formats)
	if err != nil {
		return nil, helper.NewError("parse export formats", err)
	}

	i := &Inscriber{
		Config:  cfg,
		Metrics: metrics.NewRecorder(),
		formats: formats,
		log:     logger,
	}
	for _, opt := range opts {
		opt(i)
	}

	i.Client = iiif.NewClient(cfg.HTTP, logger)
	if i.engine == nil {
		i.engine = ocr.NewTesseractEngine(cfg.OCR.Languages...)
	}
	i.OCR = ocr.NewCache(cfg.Cache, i.engine, i.Client, i.Metrics, logger)
	if i.mint == nil {
		i.mint = graph.ShortUUID
	}
	i.Exporter = export.NewExporter(i.Metrics, logger)
	i.Exporter.Mint = i.mint

	if i.Annotator == nil && !i.skipNLP {
		annotator, err := nlp.NewHugotAnnotator(cfg.NLP.ModelDir, cfg.NLP.Model)
		if err != nil {
			return nil, helper.NewError("create annotator", err)
		}
		i.Annotator = annotator
		i.closers = append(i.closers, annotator.Close)
	}

	if i.Store == nil && cfg.Database.Enabled {
		if err := i.openStore(); err != nil {
			_ = i.Close()
			return nil, err
		}
	}

	return i, nil
}

func (i *Inscriber) openStore() error {
	db, err := helper.NewDatabase("inscriber", &i.Config.Database.DatabaseConfiguration, i.log)
	if err != nil {
		return helper.NewError("connect database", err)
	}
	i.DB = db
	i.closers = append(i.closers, db.Close)

	err = loadSql.Init(db.Instance)
	if err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	store, err := database.NewStore(db, i.Config.Database.EmbeddingDim, false)
	if err != nil {
		return helper.NewError("create store", err)
	}
	i.Store = store

	if i.embed == nil {
		embedder, err := nlp.NewEmbedder(i.Config.NLP.ModelDir, i.Config.NLP.EmbeddingModel)
		if err != nil {
			return helper.NewError("create embedder", err)
		}
		i.embed = embedder.Func()
		i.closers = append(i.closers, embedder.Close)
	}
	return nil
}

// Close releases models and the database connection.
func (i *Inscriber) Close() error {
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}

// LoadContainer creates a container over the manifest at uri. The manifest is
// fetched on first use.
func (i *Inscriber) LoadContainer(uri string) *container.Container {
	return container.New(
		iiif.NewManifestSource(uri, i.Client),
		page.Sources{
			Tokens:    i.OCR,
			Texts:     i.Client,
			Annotator: i.Annotator,
			Metrics:   i.Metrics,
			Logger:    i.log,
		},
		i.Exporter,
		container.Options{
			LabelField: i.Config.Page.ContainerLabelField,
			Page: page.Options{
				Threshold:           i.Config.Page.ConfidenceThreshold,
				LineMode:            i.Config.Page.LineMode,
				PreferTextRendering: i.Config.Page.PreferTextRendering,
			},
			Formats: i.formats,
		},
	)
}

// DumpOptions control a container dump.
type DumpOptions struct {
	// SkipExisting skips containers whose output directory already holds a ttl file for every page.
	SkipExisting bool
}

// DumpResult is the outcome of dumping one manifest.
type DumpResult struct {
	URI     string
	Report  *container.DumpReport
	Skipped bool
	// StoreErr is set when the dump succeeded but persisting it failed.
	StoreErr error
}

// Dump exports every page of the manifest at uri into outDir/<label>.
// Only manifest failures and an uncreatable output directory are returned.
func (i *Inscriber) Dump(ctx context.Context, uri string, outDir string, opts DumpOptions) (*DumpResult, error) {
	c := i.LoadContainer(uri)
	result := &DumpResult{URI: uri}

	if opts.SkipExisting {
		done, err := c.Exported(ctx, outDir)
		if err != nil {
			i.Metrics.Manifest(metrics.OutcomeFailed)
			return nil, err
		}
		if done {
			i.log.Info("Skipping exported container", slog.String("manifest", uri))
			i.Metrics.Manifest(metrics.OutcomeSkipped)
			result.Skipped = true
			return result, nil
		}
	}

	report, err := c.Dump(ctx, outDir)
	if err != nil {
		i.Metrics.Manifest(metrics.OutcomeFailed)
		return nil, err
	}
	i.Metrics.Manifest(metrics.OutcomeOK)
	result.Report = report

	if i.Store != nil {
		if err := i.persist(ctx, c, report); err != nil {
			i.log.Warn("Failed to store container", slog.String("manifest", uri), slog.String("error", err.Error()))
			result.StoreErr = err
		}
	}
	return result, nil
}

// BatchReport collects the results of a batch run.
type BatchReport struct {
	Results []*DumpResult
	Failed  map[string]error
}

// DumpAll dumps every manifest in uris. Manifest failures are logged and
// skipped. A cancelled context or an output directory that cannot be created
// stops the run.
func (i *Inscriber) DumpAll(ctx context.Context, uris []string, outDir string, opts DumpOptions) (*BatchReport, error) {
	batch := &BatchReport{Failed: map[string]error{}}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return batch, helper.Kind(helper.ErrOutputDir, outDir, err)
	}
	for n, uri := range uris {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		i.log.Info("Processing manifest", slog.String("manifest", uri), slog.Int("index", n+1), slog.Int("total", len(uris)))

		result, err := i.Dump(ctx, uri, outDir, opts)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, helper.ErrOutputDir) {
				batch.Failed[uri] = err
				return batch, err
			}
			i.log.Warn("Skipping manifest", slog.String("manifest", uri), slog.String("error", err.Error()))
			batch.Failed[uri] = err
			continue
		}
		batch.Results = append(batch.Results, result)
	}
	return batch, nil
}

// ReadManifestList reads one manifest URI per line. Blank lines and lines
// starting with # are ignored.
func ReadManifestList(r io.Reader) ([]string, error) {
	var uris []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		uris = append(uris, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, helper.NewError("read manifest list", err)
	}
	return uris, nil
}

// BuildGraph returns the merged inscription graph of the manifest at uri.
func (i *Inscriber) BuildGraph(ctx context.Context, uri string) (*graph.Graph, error) {
	return i.LoadContainer(uri).BuildGraph(ctx, i.mint)
}

// GraphOptions control WriteGraph.
type GraphOptions struct {
	// Merged writes one <label>.<ext> file instead of one file per page.
	Merged bool
	// Format is "ttl" (default) or "nt".
	Format string
}

// WriteGraph writes the inscription graph of the manifest at uri below
// outDir/<label> and returns the written paths.
func (i *Inscriber) WriteGraph(ctx context.Context, uri string, outDir string, opts GraphOptions) ([]string, error) {
	ext := opts.Format
	if ext == "" {
		ext = "ttl"
	}
	if ext != "ttl" && ext != "nt" {
		return nil, helper.NewError("write graph", fmt.Errorf("unsupported graph format %q (use 'ttl' or 'nt')", opts.Format))
	}
	serialize := func(g *graph.Graph) []byte {
		if ext == "nt" {
			return []byte(g.NTriples())
		}
		return []byte(g.Turtle())
	}

	c := i.LoadContainer(uri)
	pageGraphs, err := c.PageGraphs(ctx, i.mint)
	if err != nil {
		return nil, err
	}
	dir, err := c.Dir(ctx, outDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, helper.NewError("create output directory", err)
	}

	if opts.Merged {
		merged := graph.New()
		for _, pg := range pageGraphs {
			merged.Merge(pg.Graph)
		}
		path := filepath.Join(dir, filepath.Base(dir)+"."+ext)
		if err := helper.WriteFileAtomic(path, serialize(merged), 0644); err != nil {
			return nil, helper.Kind(helper.ErrExportIO, path, err)
		}
		return []string{path}, nil
	}

	var paths []string
	for _, pg := range pageGraphs {
		if pg.Err != nil {
			continue
		}
		path := filepath.Join(dir, pg.Page.ID()+"."+ext)
		if err := helper.WriteFileAtomic(path, serialize(pg.Graph), 0644); err != nil {
			i.log.Warn("Failed to write page graph", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Download populates the image cache for every canvas of the manifest at uri.
func (i *Inscriber) Download(ctx context.Context, uri string) (*container.DownloadReport, error) {
	return i.LoadContainer(uri).DownloadImages(ctx, i.OCR)
}

// Search returns the stored pages most similar to query.
func (i *Inscriber) Search(ctx context.Context, query string, queryConfig model.QueryConfig) ([]*model.SearchResult, error) {
	if i.Store == nil {
		return nil, helper.NewError("search", fmt.Errorf("database is not enabled"))
	}
	if i.embed == nil {
		return nil, helper.NewError("search", fmt.Errorf("no embedder configured"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if queryConfig.TopK <= 0 {
		queryConfig.TopK = model.DefaultQueryConfig().TopK
	}

	embedding, err := i.embed(query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}
	return i.Store.Search(embedding, queryConfig)
}

// WriteMetrics writes the prometheus textfile if a metrics file is configured.
func (i *Inscriber) WriteMetrics() error {
	return i.Metrics.WriteTextfile(i.Config.MetricsFile)
}

// persist stores the container, its exported pages and their inscriptions.
// Pages whose text could not be produced are skipped.
func (i *Inscriber) persist(ctx context.Context, c *container.Container, report *container.DumpReport) error {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return err
	}
	metadata, err := c.Metadata(ctx)
	if err != nil {
		return err
	}
	record := &model.ContainerRecord{
		Label:       report.Label,
		ManifestID:  manifest.ID(),
		ManifestURI: c.URI(),
		Metadata:    metadata,
	}
	if err := i.Store.UpsertContainer(record); err != nil {
		return helper.NewError("upsert container", err)
	}

	pages, err := c.Pages(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for n, p := range pages {
		if p.State() == page.Uninitialized {
			continue
		}
		text, err := p.Text(ctx)
		if err != nil {
			continue
		}

		pageRecord := &model.PageRecord{
			ContainerRID: record.RID,
			CanvasID:     p.Canvas().ID,
			PageKey:      p.ID(),
			Position:     n,
			Text:         text,
			Threshold:    p.Threshold(),
			Metadata:     p.Metadata(),
		}
		if i.embed != nil && text != "" {
			embedding, err := i.embed(text)
			if err != nil {
				i.log.Warn("Storing page without embedding", slog.String("page", p.ID()), slog.String("error", err.Error()))
			} else {
				pageRecord.Embedding = embedding
			}
		}

		var inscriptions []model.Inscription
		if n < len(report.Pages) && report.Pages[n].Graph != nil {
			inscriptions, err = graph.Inscriptions(ctx, report.Pages[n].Graph, p.Canvas().ID)
			if err != nil {
				return err
			}
		}

		if _, err := i.Store.SavePage(pageRecord, inscriptions); err != nil {
			errs = append(errs, helper.NewError("save page "+p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
