package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/codares/order-ingestion/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type fakeAuthenticator struct {
	subject string
	ok      bool
	err     error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, bearerToken string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return f.subject, f.ok, nil
}

type fakeSubmitter struct {
	summary *service.BatchSummary
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, _ string, _ []byte) (*service.BatchSummary, error) {
	return f.summary, f.err
}

type fakeRateLimiter struct {
	allow bool
	err   error
}

func (f *fakeRateLimiter) Allow(_ context.Context, _ string) (bool, error) { return f.allow, f.err }
func (f *fakeRateLimiter) Wait(_ context.Context, _ string) error          { return nil }

func buildMultipartRequest(t *testing.T, fieldName, fileContent, idempotencyKey, bearer string, includeFile bool) (*multipart.Writer, *bytes.Buffer) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if includeFile {
		part, err := writer.CreateFormFile(fieldName, "orders.csv")
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte(fileContent)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close() error = %v", err)
	}

	return writer, body
}

func newTestApp(submitter BatchSubmitter, auth Authenticator, limiter *fakeRateLimiter) *fiber.App {
	app := fiber.New()
	logger := zap.NewNop()
	if limiter != nil {
		RegisterOrderLoadRoutes(app, submitter, auth, limiter, logger)
	} else {
		RegisterOrderLoadRoutes(app, submitter, auth, nil, logger)
	}
	return app
}

func TestOrderLoadHandler_HappyPath(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "orderNumber,clientId,deliveryDate,status,zoneId,requiresRefrigeration\nP001,CLI-1,2099-01-01,PENDING,ZONA1,false\n", "batch-A", "token-A", true)

	app := newTestApp(
		&fakeSubmitter{summary: &service.BatchSummary{
			BatchLoadID:    "batch-1",
			TotalProcessed: 1,
			StoredCount:    1,
			ErrorCount:     0,
			ErrorsByCode:   map[domain.RowErrorCode]int{},
		}},
		&fakeAuthenticator{subject: "client-a", ok: true},
		nil,
	)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-A")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
}

func TestOrderLoadHandler_Replay(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-A", "token-A", true)

	app := newTestApp(
		&fakeSubmitter{err: &service.ReplayError{Code: domain.ErrCodeAlreadyProcessed}},
		&fakeAuthenticator{subject: "client-a", ok: true},
		nil,
	)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-A")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestOrderLoadHandler_AllRowsRejected(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-B", "token-A", true)

	app := newTestApp(
		&fakeSubmitter{summary: &service.BatchSummary{
			BatchLoadID:    "batch-2",
			TotalProcessed: 1,
			StoredCount:    0,
			ErrorCount:     1,
			ErrorsByCode:   map[domain.RowErrorCode]int{domain.ErrCodeClientNotFound: 1},
			ErrorDetails:   []domain.RowError{{LineNumber: 2, Code: domain.ErrCodeClientNotFound, Message: "client not found"}},
		}},
		&fakeAuthenticator{subject: "client-a", ok: true},
		nil,
	)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-B")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestOrderLoadHandler_StructuralFailure(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "garbage", "batch-C", "token-A", true)

	app := newTestApp(
		&fakeSubmitter{err: domain.ErrValidation},
		&fakeAuthenticator{subject: "client-a", ok: true},
		nil,
	)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-C")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestOrderLoadHandler_MissingIdempotencyKey(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "", "token-A", true)

	app := newTestApp(&fakeSubmitter{}, &fakeAuthenticator{subject: "client-a", ok: true}, nil)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestOrderLoadHandler_MissingFile(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "", "batch-D", "token-A", false)

	app := newTestApp(&fakeSubmitter{}, &fakeAuthenticator{subject: "client-a", ok: true}, nil)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-D")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestOrderLoadHandler_MissingAuthorization(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-E", "", true)

	app := newTestApp(&fakeSubmitter{}, &fakeAuthenticator{ok: false}, nil)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Idempotency-Key", "batch-E")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestOrderLoadHandler_InvalidBearerToken(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-F", "bad-token", true)

	app := newTestApp(&fakeSubmitter{}, &fakeAuthenticator{ok: false}, nil)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer bad-token")
	req.Header.Set("Idempotency-Key", "batch-F")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestOrderLoadHandler_RateLimited(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-G", "token-A", true)

	app := newTestApp(&fakeSubmitter{}, &fakeAuthenticator{subject: "client-a", ok: true}, &fakeRateLimiter{allow: false})

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-G")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
}

func TestOrderLoadHandler_UnexpectedError(t *testing.T) {
	t.Parallel()

	writer, body := buildMultipartRequest(t, "file", "content", "batch-H", "token-A", true)

	app := newTestApp(&fakeSubmitter{err: errors.New("database is unreachable")}, &fakeAuthenticator{subject: "client-a", ok: true}, nil)

	req := httptest.NewRequest("POST", "/api/v1/orders/load", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token-A")
	req.Header.Set("Idempotency-Key", "batch-H")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}
