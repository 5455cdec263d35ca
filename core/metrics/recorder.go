package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/inscriber/helper"
)

// Outcome labels used by the export counter.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Recorder counts pipeline events on its own prometheus registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	ocrCacheHits   prometheus.Counter
	ocrCacheMisses prometheus.Counter
	ocrRuns        prometheus.Counter
	ocrDuration    prometheus.Histogram
	textRendering  prometheus.Counter
	imageDownloads *prometheus.CounterVec
	exports        *prometheus.CounterVec
	manifests      *prometheus.CounterVec
	pageFailures   *prometheus.CounterVec
}

// NewRecorder creates a recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ocrCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "ocr_cache_hits_total",
			Help:      "OCR token tables read from the cache.",
		}),
		ocrCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "ocr_cache_misses_total",
			Help:      "OCR token tables not found in the cache.",
		}),
		ocrRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "ocr_runs_total",
			Help:      "Invocations of the OCR engine.",
		}),
		ocrDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "inscriber",
			Name:      "ocr_duration_seconds",
			Help:      "Duration of OCR engine invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		textRendering: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "text_rendering_hits_total",
			Help:      "Pages whose text came from a text/plain rendering.",
		}),
		imageDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "image_downloads_total",
			Help:      "Image downloads by outcome.",
		}, []string{"outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "exports_total",
			Help:      "Page exports by format and outcome.",
		}, []string{"format", "outcome"}),
		manifests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "manifests_total",
			Help:      "Processed manifests by outcome.",
		}, []string{"outcome"}),
		pageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inscriber",
			Name:      "page_failures_total",
			Help:      "Page level failures by kind.",
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.ocrCacheHits,
		r.ocrCacheMisses,
		r.ocrRuns,
		r.ocrDuration,
		r.textRendering,
		r.imageDownloads,
		r.exports,
		r.manifests,
		r.pageFailures,
	)
	return r
}

// Registry exposes the registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) OCRCacheHit() {
	if r != nil {
		r.ocrCacheHits.Inc()
	}
}

func (r *Recorder) OCRCacheMiss() {
	if r != nil {
		r.ocrCacheMisses.Inc()
	}
}

// OCRRun records one engine invocation and its duration.
func (r *Recorder) OCRRun(d time.Duration) {
	if r != nil {
		r.ocrRuns.Inc()
		r.ocrDuration.Observe(d.Seconds())
	}
}

func (r *Recorder) TextRenderingHit() {
	if r != nil {
		r.textRendering.Inc()
	}
}

func (r *Recorder) ImageDownload(outcome string) {
	if r != nil {
		r.imageDownloads.WithLabelValues(outcome).Inc()
	}
}

func (r *Recorder) Export(format string, outcome string) {
	if r != nil {
		r.exports.WithLabelValues(format, outcome).Inc()
	}
}

func (r *Recorder) Manifest(outcome string) {
	if r != nil {
		r.manifests.WithLabelValues(outcome).Inc()
	}
}

// PageFailure counts a page level failure under the name of its error kind.
func (r *Recorder) PageFailure(err error) {
	if r != nil {
		r.pageFailures.WithLabelValues(FailureKind(err)).Inc()
	}
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return helper.NewError("write metrics textfile", err)
	}
	return nil
}
