package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics tracks HTTP traffic and the classification pipeline.
type ServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	classificationsTotal   *prometheus.CounterVec
	classificationDuration *prometheus.HistogramVec
	providerWaitSeconds    *prometheus.HistogramVec
	parseFailuresTotal     *prometheus.CounterVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ved",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ved",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ved",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	classificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ved",
			Subsystem: "classify",
			Name:      "classifications_total",
			Help:      "Total completed classifications by detected effect.",
		},
		[]string{"service", "effect"},
	)
	classificationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ved",
			Subsystem: "classify",
			Name:      "duration_seconds",
			Help:      "End-to-end classification duration in seconds.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service"},
	)
	providerWaitSeconds := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ved",
			Subsystem: "classify",
			Name:      "provider_wait_seconds",
			Help:      "Time spent waiting for the provider to activate an upload.",
			Buckets:   []float64{0, 2, 4, 8, 16, 32, 64, 120},
		},
		[]string{"service"},
	)
	parseFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ved",
			Subsystem: "classify",
			Name:      "parse_failures_total",
			Help:      "Total model completions rejected by the normalizer.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		classificationsTotal,
		classificationDuration,
		providerWaitSeconds,
		parseFailuresTotal,
	)

	return &ServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		classificationsTotal:   classificationsTotal,
		classificationDuration: classificationDuration,
		providerWaitSeconds:    providerWaitSeconds,
		parseFailuresTotal:     parseFailuresTotal,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/{asset}"
	}
	return path
}

func (m *ServerMetrics) RecordClassification(service, effect string, duration time.Duration) {
	m.classificationsTotal.WithLabelValues(service, effect).Inc()
	m.classificationDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *ServerMetrics) RecordProviderWait(service string, wait time.Duration) {
	m.providerWaitSeconds.WithLabelValues(service).Observe(wait.Seconds())
}

func (m *ServerMetrics) RecordParseFailure(service string) {
	m.parseFailuresTotal.WithLabelValues(service).Inc()
}
