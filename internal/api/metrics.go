package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry          *prometheus.Registry
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
	batchesTotal      *prometheus.CounterVec
	batchDuration     *prometheus.HistogramVec
	imagesTotal       *prometheus.CounterVec
	archiveBytes      prometheus.Histogram
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch4k_api_requests_total",
			Help: "Total HTTP requests handled by the API.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch4k_api_request_duration_seconds",
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch4k_api_rate_limit_rejections_total",
			Help: "Total API requests rejected by rate limiting.",
		}, []string{"route"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch4k_batches_total",
			Help: "Total batches by final status.",
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "batch4k_batch_duration_seconds",
			Help:    "Time spent decoding, resizing and archiving a batch.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"status"}),
		imagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "batch4k_images_total",
			Help: "Total images submitted in batches by final batch status.",
		}, []string{"status"}),
		archiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "batch4k_archive_bytes",
			Help:    "Size of produced archives in bytes.",
			Buckets: prometheus.ExponentialBuckets(1<<20, 2, 10),
		}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.rateLimitRejected,
		m.batchesTotal,
		m.batchDuration,
		m.imagesTotal,
		m.archiveBytes,
	)
	return m
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		status := statusLabel(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) observeBatch(status string, images, archiveBytes int, elapsed time.Duration) {
	m.batchesTotal.WithLabelValues(status).Inc()
	m.batchDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	m.imagesTotal.WithLabelValues(status).Add(float64(images))
	if archiveBytes > 0 {
		m.archiveBytes.Observe(float64(archiveBytes))
	}
}

func statusLabel(status int) string {
	return strconv.Itoa(status)
}

func routeLabel(path string) string {
	switch {
	case path == "/v1/batches/plan":
		return "/v1/batches/plan"
	case strings.HasPrefix(path, "/v1/batches"):
		return "/v1/batches"
	case strings.HasPrefix(path, "/healthz"):
		return "/healthz"
	case strings.HasPrefix(path, "/metrics"):
		return "/metrics"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
