// Package metrics holds the Prometheus instruments updated by the pipeline.
// A batch run has no scrape endpoint, so the registry can be dumped to a
// node_exporter textfile at the end of a command.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SentencesTranslated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xamr_sentences_translated_total",
		Help: "Sentences sent through a translation backend",
	}, []string{"backend"})

	TranslationCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xamr_translation_cache_hits_total",
		Help: "Sentences answered from the in-run translation cache",
	})

	GraphsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xamr_graphs_parsed_total",
		Help: "AMR graphs produced, by result (ok, placeholder)",
	}, []string{"result"})

	ModelCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xamr_model_call_duration_seconds",
		Help:    "Latency of calls into external models",
		Buckets: prometheus.DefBuckets,
	}, []string{"component"})

	MetricValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xamr_metric_value",
		Help: "Last computed evaluation metric",
	}, []string{"metric", "subject"})

	FileErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xamr_file_errors_total",
		Help: "Files skipped because a stage failed",
	}, []string{"stage"})
)

// ObserveCall records the duration of a model call started at start.
func ObserveCall(component string, start time.Time) {
	ModelCallDuration.WithLabelValues(component).Observe(time.Since(start).Seconds())
}

// RecordMetric publishes an evaluation result.
func RecordMetric(metric, subject string, value float64) {
	MetricValue.WithLabelValues(metric, subject).Set(value)
}

// WriteTextfile dumps the default registry in text exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
