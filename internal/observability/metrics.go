package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and batch
// ingestion flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	batchesTotal           *prometheus.CounterVec
	batchRowsTotal         *prometheus.CounterVec
	idempotencyCacheResult *prometheus.CounterVec
	batchSizeRows          *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "order_ingestion",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "order_ingestion",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "order_ingestion",
				Name:      "batches_total",
				Help:      "Total number of batch loads finalized, grouped by terminal status.",
			},
			[]string{"status"},
		),
		batchRowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "order_ingestion",
				Name:      "batch_rows_total",
				Help:      "Total number of rows processed, grouped by outcome code (ACCEPTED or a row error code).",
			},
			[]string{"code"},
		),
		idempotencyCacheResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "order_ingestion",
				Name:      "idempotency_cache_result_total",
				Help:      "Total number of idempotency lookups grouped by cache result (hit or miss).",
			},
			[]string{"result"},
		),
		batchSizeRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "order_ingestion",
				Name:      "batch_size_rows",
				Help:      "Number of data rows per submitted batch.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.batchesTotal,
		m.batchRowsTotal,
		m.idempotencyCacheResult,
		m.batchSizeRows,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncBatchCompleted(status string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) IncRowOutcome(code string) {
	if m == nil {
		return
	}
	m.batchRowsTotal.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *Metrics) IncIdempotencyCacheHit() {
	if m == nil {
		return
	}
	m.idempotencyCacheResult.WithLabelValues("hit").Inc()
}

func (m *Metrics) IncIdempotencyCacheMiss() {
	if m == nil {
		return
	}
	m.idempotencyCacheResult.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveBatchSize(rows int) {
	if m == nil {
		return
	}
	m.batchSizeRows.WithLabelValues().Observe(float64(rows))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
