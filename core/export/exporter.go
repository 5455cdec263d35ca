package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/siherrmann/inscriber/core/graph"
	"github.com/siherrmann/inscriber/core/metrics"
	"github.com/siherrmann/inscriber/core/ocr"
	"github.com/siherrmann/inscriber/core/page"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// SentenceRecord is one line of the jsonl export.
type SentenceRecord struct {
	Text string         `json:"text"`
	Meta model.Metadata `json:"meta"`
}

// PageReport lists what was written for one page.
type PageReport struct {
	PageID  string
	Written map[Format]string
	Errors  map[Format]error
	// Graph is the inscription graph written as ttl, nil when ttl was not written.
	Graph *graph.Graph
}

// OK reports whether every requested format was written.
func (r *PageReport) OK() bool { return len(r.Errors) == 0 }

// Err joins the per-format errors.
func (r *PageReport) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, f := range AllFormats() {
		if err, ok := r.Errors[f]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}

// Exporter writes page artifacts.
type Exporter struct {
	// Mint generates inscription identifiers; nil uses graph.ShortUUID.
	Mint    graph.MintFunc
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewExporter creates an exporter. The recorder may be nil.
func NewExporter(recorder *metrics.Recorder, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{metrics: recorder, logger: logger}
}

// ExportPage writes the requested formats of p into dir as <page id>.<ext>.
// Each format fails on its own; existing files are replaced atomically.
// Without formats, all formats are written.
func (e *Exporter) ExportPage(ctx context.Context, p *page.Page, dir string, formats ...Format) *PageReport {
	if len(formats) == 0 {
		formats = AllFormats()
	}
	report := &PageReport{
		PageID:  p.ID(),
		Written: map[Format]string{},
		Errors:  map[Format]error{},
	}

	// Failures below the format are shared with the formats that depend on
	// the same input. Text formats run first: a text failure caused by the
	// token table also fails csv without fetching the image again.
	var textErr, tableErr, nlpErr error
	for _, format := range textFirst(formats) {
		info, ok := GetFormatInfo(format)
		if !ok {
			report.Errors[format] = fmt.Errorf("unsupported export format: %q", format)
			continue
		}

		var data []byte
		var err error
		switch {
		case info.NeedsTable && tableErr != nil:
			err = tableErr
		case !info.NeedsTable && textErr != nil:
			err = textErr
		case info.NeedsNLP && nlpErr != nil:
			err = nlpErr
		default:
			data, err = e.render(ctx, p, format, report)
		}
		if err != nil {
			switch {
			case errors.Is(err, helper.ErrNlpFailure):
				nlpErr = err
			case errors.Is(err, helper.ErrImageUnavailable), errors.Is(err, helper.ErrOcrFailure):
				if info.NeedsTable {
					tableErr = err
				} else {
					// Text only fails this way when it fell back to the token table.
					textErr = err
					tableErr = err
				}
			}
			e.fail(report, format, err)
			continue
		}

		path := filepath.Join(dir, FileName(report.PageID, format))
		if err := helper.WriteFileAtomic(path, data, 0644); err != nil {
			e.fail(report, format, helper.Kind(helper.ErrExportIO, path, err))
			continue
		}
		report.Written[format] = path
		e.metrics.Export(string(format), metrics.OutcomeOK)
		e.logger.Debug("Exported page", slog.String("page", report.PageID), slog.String("path", path))
	}
	return report
}

// textFirst orders the formats so the ones built from the page text come
// before the ones built from the token table.
func textFirst(formats []Format) []Format {
	ordered := make([]Format, len(formats))
	copy(ordered, formats)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !FormatRegistry[ordered[i]].NeedsTable && FormatRegistry[ordered[j]].NeedsTable
	})
	return ordered
}

func (e *Exporter) fail(report *PageReport, format Format, err error) {
	report.Errors[format] = err
	e.metrics.Export(string(format), metrics.OutcomeFailed)
	e.logger.Warn("Skipping export", slog.String("page", report.PageID), slog.String("format", string(format)), slog.String("error", err.Error()))
}

func (e *Exporter) render(ctx context.Context, p *page.Page, format Format, report *PageReport) ([]byte, error) {
	switch format {
	case FormatTxt:
		text, err := p.Text(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case FormatCSV:
		table, err := p.TokenTable(ctx)
		if err != nil {
			return nil, err
		}
		return ocr.EncodeTable(table)
	case FormatJSONL:
		return e.renderSentences(ctx, p)
	case FormatTTL:
		entities, err := p.Entities(ctx)
		if err != nil {
			return nil, err
		}
		g := graph.BuildInscriptions(p.Canvas().ID, entities, e.Mint)
		report.Graph = g
		return []byte(g.Turtle()), nil
	}
	return nil, fmt.Errorf("unsupported export format: %q", format)
}

func (e *Exporter) renderSentences(ctx context.Context, p *page.Page) ([]byte, error) {
	sentences, err := p.Sentences(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, s := range sentences {
		if err := enc.Encode(SentenceRecord{Text: s.Text, Meta: p.Metadata()}); err != nil {
			return nil, helper.NewError("encode sentence", err)
		}
	}
	return buf.Bytes(), nil
}
