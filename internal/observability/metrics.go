package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ecoguard"

// Metrics holds the Prometheus collectors for the report lifecycle.
type Metrics struct {
	ReportsSubmitted   *prometheus.CounterVec // labels: status
	ReportsResolved    prometheus.Counter
	ValidationOutcomes *prometheus.CounterVec // labels: outcome={accepted,rejected,bypassed,not_ready,skipped}
	LocationFallbacks  prometheus.Counter
	StoreSize          prometheus.Gauge
	StoreWriteErrors   prometheus.Counter

	ClassifierReady    prometheus.Gauge
	ClassifierDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// Report event pipeline.
	EventsPublished prometheus.Counter
	EventsDropped   prometheus.Counter
	PublishErrors   prometheus.Counter
	EventBatchSize  prometheus.Histogram
	PipelineRunning prometheus.Gauge
	PublishDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with the default
// Prometheus registry. Call it once per process.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Reports persisted by the capture flow, by status.",
		}, []string{"status"}),
		ReportsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_resolved_total",
			Help:      "Reports removed through the dashboard resolve action.",
		}),
		ValidationOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_outcomes_total",
			Help:      "Image validation outcomes during submission.",
		}, []string{"outcome"}),
		LocationFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "location_fallbacks_total",
			Help:      "Drafts placed at the fallback coordinate after a failed fix.",
		}),
		StoreSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_reports",
			Help:      "Reports currently held by the report store.",
		}),
		StoreWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_write_errors_total",
			Help:      "Failed rewrites of the durable report slot.",
		}),
		ClassifierReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "classifier_ready",
			Help:      "1 once the image classifier has answered a warm-up probe.",
		}),
		ClassifierDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_request_duration_seconds",
			Help:      "Image classification request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place enrichment is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_events_published_total",
			Help:      "Report events written to the event topic.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_events_dropped_total",
			Help:      "Report events dropped because the outbox was full.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_event_publish_errors_total",
			Help:      "Failed batch writes to the event topic.",
		}),
		EventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_event_batch_size",
			Help:      "Number of events per published batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_pipeline_running",
			Help:      "1 when the event pipeline is active, 0 when shut down.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_event_publish_duration_seconds",
			Help:      "Duration of one batch publish.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsSubmitted,
		m.ReportsResolved,
		m.ValidationOutcomes,
		m.LocationFallbacks,
		m.StoreSize,
		m.StoreWriteErrors,
		m.ClassifierReady,
		m.ClassifierDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.EventsPublished,
		m.EventsDropped,
		m.PublishErrors,
		m.EventBatchSize,
		m.PipelineRunning,
		m.PublishDuration,
	}
}
