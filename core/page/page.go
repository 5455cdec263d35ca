package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/inscriber/core/metrics"
	"github.com/siherrmann/inscriber/core/nlp"
	"github.com/siherrmann/inscriber/core/ocr"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

// State is the enrichment state of a page.
type State int

const (
	Uninitialized State = iota
	TextReady
	AnnotatedReady
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case TextReady:
		return "text_ready"
	case AnnotatedReady:
		return "annotated_ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Where the page text came from.
const (
	SourceNone      = ""
	SourceRendering = "rendering"
	SourceOCR       = "ocr"
)

// DefaultThreshold is the default OCR confidence threshold.
const DefaultThreshold = 95

// TokenSource provides the OCR token table of a canvas.
type TokenSource interface {
	TokenTable(ctx context.Context, canvas model.Canvas) (model.TokenTable, error)
}

// TextSource fetches a text/plain rendering.
type TextSource interface {
	FetchText(ctx context.Context, uri string) (string, error)
}

// Sources are the collaborators of a page. Texts, Annotator and Metrics may be nil.
type Sources struct {
	Tokens    TokenSource
	Texts     TextSource
	Annotator nlp.Annotator
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// Options configure text reconstruction.
type Options struct {
	Threshold           int
	LineMode            bool
	PreferTextRendering bool
	Metadata            model.Metadata
}

// DefaultOptions returns threshold 95 with text renderings preferred.
func DefaultOptions() Options {
	return Options{
		Threshold:           DefaultThreshold,
		PreferTextRendering: true,
	}
}

// Page is the enrichment view over one canvas. Text and document are computed
// on first access; changing the threshold, line mode or annotator drops them.
type Page struct {
	canvas     model.Canvas
	src        Sources
	threshold  int
	lineMode   bool
	preferText bool
	metadata   model.Metadata
	logger     *slog.Logger

	state      State
	table      cached[model.TokenTable]
	rendered   cached[string]
	text       cached[string]
	textSource string
	doc        cached[*model.Document]
}

// New creates a page over canvas.
func New(canvas model.Canvas, src Sources, opts Options) *Page {
	logger := src.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = model.Metadata{}
	}
	return &Page{
		canvas:     canvas,
		src:        src,
		threshold:  opts.Threshold,
		lineMode:   opts.LineMode,
		preferText: opts.PreferTextRendering,
		metadata:   metadata,
		logger:     logger.With(slog.String("page", canvas.TrailingID())),
	}
}

// ID returns the trailing segment of the canvas @id.
func (p *Page) ID() string { return p.canvas.TrailingID() }

func (p *Page) Canvas() model.Canvas { return p.canvas }

// Metadata returns the container metadata copied down to the page.
func (p *Page) Metadata() model.Metadata { return p.metadata }

func (p *Page) Threshold() int { return p.threshold }

func (p *Page) State() State { return p.state }

// TextSource reports whether the current text came from a rendering or from OCR.
func (p *Page) TextSource() string { return p.textSource }

// Annotator returns the current NLP capability.
func (p *Page) Annotator() nlp.Annotator { return p.src.Annotator }

// SetThreshold changes the confidence threshold and drops the derived state.
func (p *Page) SetThreshold(threshold int) error {
	if threshold < 0 || threshold > 100 {
		return helper.NewError("set threshold", fmt.Errorf("threshold must be within 0..100, got %d", threshold))
	}
	p.threshold = threshold
	p.invalidate()
	return nil
}

// SetLineMode switches between space joined and line grouped text.
func (p *Page) SetLineMode(lineMode bool) {
	p.lineMode = lineMode
	p.invalidate()
}

// SetAnnotator replaces the NLP capability and drops the derived state.
func (p *Page) SetAnnotator(annotator nlp.Annotator) {
	p.src.Annotator = annotator
	p.invalidate()
}

// invalidate returns the page to Uninitialized. The token table and the
// rendered text do not depend on threshold or model and are kept.
func (p *Page) invalidate() {
	p.text.reset()
	p.textSource = SourceNone
	p.doc.reset()
	p.state = Uninitialized
}

// TokenTable returns the raw, unfiltered OCR token table.
func (p *Page) TokenTable(ctx context.Context) (model.TokenTable, error) {
	if table, ok := p.table.get(); ok {
		return table, nil
	}
	if p.src.Tokens == nil {
		return nil, helper.Kind(helper.ErrOcrFailure, p.canvas.ID, fmt.Errorf("no OCR source configured"))
	}
	table, err := p.src.Tokens.TokenTable(ctx, p.canvas)
	if err != nil {
		return nil, err
	}
	p.table.set(table)
	return table, nil
}

// Text returns the page text. A text/plain rendering is used when preferred
// and available; otherwise the OCR token table is reconstructed at the threshold.
func (p *Page) Text(ctx context.Context) (string, error) {
	if text, ok := p.text.get(); ok {
		return text, nil
	}

	if text, ok := p.renderingText(ctx); ok {
		p.setText(text, SourceRendering)
		return text, nil
	}

	table, err := p.TokenTable(ctx)
	if err != nil {
		return "", err
	}
	var text string
	if p.lineMode {
		text = ocr.ReconstructLines(table, p.threshold)
	} else {
		text = ocr.ReconstructText(table, p.threshold)
	}
	p.setText(text, SourceOCR)
	return text, nil
}

func (p *Page) setText(text string, source string) {
	p.text.set(text)
	p.textSource = source
	p.state = TextReady
}

// renderingText fetches the text/plain rendering once. Failures fall back to OCR.
func (p *Page) renderingText(ctx context.Context) (string, bool) {
	if !p.preferText || p.src.Texts == nil {
		return "", false
	}
	if text, ok := p.rendered.get(); ok {
		return text, true
	}
	uri, ok := p.canvas.TextURI()
	if !ok {
		return "", false
	}

	text, err := p.src.Texts.FetchText(ctx, uri)
	if err != nil {
		p.logger.Warn("Text rendering unavailable, falling back to OCR", slog.String("uri", uri), slog.String("error", err.Error()))
		return "", false
	}
	p.src.Metrics.TextRenderingHit()
	p.rendered.set(text)
	return text, true
}

// Document returns the NLP document of the page text. The annotator runs at
// most once until the page is invalidated.
func (p *Page) Document(ctx context.Context) (*model.Document, error) {
	if doc, ok := p.doc.get(); ok {
		return doc, nil
	}

	text, err := p.Text(ctx)
	if err != nil {
		return nil, err
	}
	if p.src.Annotator == nil {
		return nil, helper.Kind(helper.ErrNlpFailure, "no annotator configured", nil)
	}

	doc, err := p.src.Annotator.Annotate(ctx, text)
	if err != nil {
		if errors.Is(err, helper.ErrNlpFailure) {
			return nil, err
		}
		return nil, helper.Kind(helper.ErrNlpFailure, p.canvas.ID, err)
	}
	p.doc.set(doc)
	p.state = AnnotatedReady
	return doc, nil
}

// Sentences returns the sentences of the page document.
func (p *Page) Sentences(ctx context.Context) ([]model.Sentence, error) {
	doc, err := p.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Sentences, nil
}

// Entities returns the named entities of the page in recognition order.
func (p *Page) Entities(ctx context.Context) ([]model.NamedEntity, error) {
	doc, err := p.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entities, nil
}

// Names returns the PERSON entities of the page.
func (p *Page) Names(ctx context.Context) ([]model.NamedEntity, error) {
	doc, err := p.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.EntitiesOfType(model.EntityPerson), nil
}
