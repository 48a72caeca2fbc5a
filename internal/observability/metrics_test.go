package observability

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsIngestionCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncBatchCompleted("COMPLETED")
	metrics.IncRowOutcome("ACCEPTED")
	metrics.IncRowOutcome("INVALID_CLIENT")
	metrics.IncIdempotencyCacheHit()
	metrics.IncIdempotencyCacheMiss()
	metrics.ObserveBatchSize(42)

	if got := testutil.ToFloat64(metrics.batchesTotal.WithLabelValues("completed")); got != 1 {
		t.Fatalf("batches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.batchRowsTotal.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("batch_rows_total(accepted) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.batchRowsTotal.WithLabelValues("invalid_client")); got != 1 {
		t.Fatalf("batch_rows_total(invalid_client) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.idempotencyCacheResult.WithLabelValues("hit")); got != 1 {
		t.Fatalf("idempotency_cache_result_total(hit) = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.idempotencyCacheResult.WithLabelValues("miss")); got != 1 {
		t.Fatalf("idempotency_cache_result_total(miss) = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncBatchCompleted("COMPLETED")
	metrics.IncRowOutcome("ACCEPTED")
	metrics.IncIdempotencyCacheHit()
	metrics.IncIdempotencyCacheMiss()
	metrics.ObserveBatchSize(1)
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
