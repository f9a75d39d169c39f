// Package metrics provides Prometheus metrics for the planning pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter registers and records planning metrics. It satisfies both
// the planner's Recorder and the text generator's CacheRecorder.
type Exporter struct {
	registry *prometheus.Registry

	planLatency        prometheus.Histogram
	scheduled          *prometheus.CounterVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	enrichmentFailures prometheus.Counter
}

// Config configures the exporter.
type Config struct {
	// Registry to use; a fresh one is created when nil.
	Registry *prometheus.Registry

	// Buckets for the planning latency histogram, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}
}

// New creates an exporter and registers its collectors.
func New(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.planLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "habitsense",
		Subsystem: "planner",
		Name:      "plan_latency_seconds",
		Help:      "Planning request latency in seconds",
		Buckets:   cfg.LatencyBuckets,
	})

	e.scheduled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "habitsense",
		Subsystem: "planner",
		Name:      "notifications_scheduled_total",
		Help:      "Notifications admitted to the schedule, by type",
	}, []string{"type"})

	e.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "habitsense",
		Subsystem: "textgen",
		Name:      "cache_hits_total",
		Help:      "Generated-text cache hits",
	})

	e.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "habitsense",
		Subsystem: "textgen",
		Name:      "cache_misses_total",
		Help:      "Generated-text cache misses",
	})

	e.enrichmentFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "habitsense",
		Subsystem: "textgen",
		Name:      "enrichment_failures_total",
		Help:      "Notifications that fell back to template text",
	})

	registry.MustRegister(
		e.planLatency,
		e.scheduled,
		e.cacheHits,
		e.cacheMisses,
		e.enrichmentFailures,
	)
	return e
}

// ObservePlanDuration records one planning call's duration.
func (e *Exporter) ObservePlanDuration(d time.Duration) {
	e.planLatency.Observe(d.Seconds())
}

// AddScheduled counts admitted notifications by type.
func (e *Exporter) AddScheduled(notifType string, n int) {
	e.scheduled.WithLabelValues(notifType).Add(float64(n))
}

// IncCacheHit counts a generated-text cache hit.
func (e *Exporter) IncCacheHit() { e.cacheHits.Inc() }

// IncCacheMiss counts a generated-text cache miss.
func (e *Exporter) IncCacheMiss() { e.cacheMisses.Inc() }

// IncEnrichmentFailure counts a fallback to template text.
func (e *Exporter) IncEnrichmentFailure() { e.enrichmentFailures.Inc() }

// Handler serves the registry in Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
