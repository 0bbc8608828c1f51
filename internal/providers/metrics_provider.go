package providers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"nfcattend/internal/structures"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	ObserveStoreOperation(op string, duration time.Duration, err error)
	IncEvents(kind string)
	SetQueueLength(n int)
	SetRecordsTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	storeDuration       *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec
	eventsTotal         *prometheus.CounterVec
	queueLength         prometheus.Gauge
	recordsTotal        prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) ObserveStoreOperation(op string, duration time.Duration, err error) {
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
	}
}

func (m *MetricsProvider) IncEvents(kind string) {
	m.eventsTotal.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) SetQueueLength(n int) {
	m.queueLength.Set(float64(n))
}

func (m *MetricsProvider) SetRecordsTotal(count int) {
	m.recordsTotal.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nfcattend_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfcattend_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nfcattend_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nfcattend_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nfcattend_snapshot_duration_seconds",
			Help:    "Duration of snapshot writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		storeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfcattend_store_duration_seconds",
			Help:    "Duration of storage backend operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),

		storeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nfcattend_store_errors_total",
			Help: "Total number of failed storage backend operations",
		}, []string{"op"}),

		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nfcattend_events_total",
			Help: "Attendance events by kind",
		}, []string{"kind"}),

		queueLength: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nfcattend_card_queue_length",
			Help: "Reader updates waiting to be polled",
		}),

		recordsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "nfcattend_records_total",
			Help: "Event records in the last loaded document",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                         {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)         {}
func (n *noopMetrics) IncCacheHits()                                            {}
func (n *noopMetrics) IncCacheMisses()                                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)               {}
func (n *noopMetrics) ObserveStoreOperation(_ string, _ time.Duration, _ error) {}
func (n *noopMetrics) IncEvents(_ string)                                       {}
func (n *noopMetrics) SetQueueLength(_ int)                                     {}
func (n *noopMetrics) SetRecordsTotal(_ int)                                    {}
