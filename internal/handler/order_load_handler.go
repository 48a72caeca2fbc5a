package handler

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/codares/order-ingestion/internal/ratelimit"
	"github.com/codares/order-ingestion/internal/service"
	"github.com/codares/order-ingestion/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BatchSubmitter is the narrow port the HTTP surface depends on to run
// the ingestion pipeline for one uploaded file.
type BatchSubmitter interface {
	Submit(ctx context.Context, idempotencyKey string, fileBytes []byte) (*service.BatchSummary, error)
}

// Authenticator validates the Authorization header and resolves the
// calling subject, used here to reject unauthenticated requests and to
// label the submission log. The rate limiter is keyed on the bearer
// token itself and is checked before authentication.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (subject string, ok bool, err error)
}

type orderLoadSuccessBody struct {
	BatchLoadID    string                        `json:"batchLoadId"`
	TotalProcessed int                           `json:"totalProcessed"`
	StoredCount    int                           `json:"storedCount"`
	ErrorCount     int                           `json:"errorCount"`
	ErrorsByCode   map[string]int                `json:"errorsByCode"`
	ErrorDetails   []orderLoadRowErrorBody        `json:"errorDetails"`
}

type orderLoadRowErrorBody struct {
	LineNumber int    `json:"lineNumber"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// RegisterOrderLoadRoutes wires POST /api/v1/orders/load.
func RegisterOrderLoadRoutes(app fiber.Router, submitter BatchSubmitter, authenticator Authenticator, limiter ratelimit.RateLimiter, logger *zap.Logger) {
	app.Post("/api/v1/orders/load", OrderLoadHandler(submitter, authenticator, limiter, logger))
}

func OrderLoadHandler(submitter BatchSubmitter, authenticator Authenticator, limiter ratelimit.RateLimiter, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()

		bearerToken := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if bearerToken == "" {
			return transport.WriteError(c, fiber.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing or malformed Authorization header")
		}

		if limiter != nil {
			allowed, err := limiter.Allow(ctx, bearerToken)
			if err != nil {
				logger.Warn("rate limiter check failed, allowing request", zap.Error(err))
			} else if !allowed {
				return transport.WriteError(c, fiber.StatusTooManyRequests, domain.ErrCodeRateLimited, "rate limit exceeded")
			}
		}

		subject, ok, err := authenticator.Authenticate(ctx, bearerToken)
		if err != nil {
			logger.Error("authentication check failed", zap.Error(err))
			return transport.WriteError(c, fiber.StatusInternalServerError, domain.ErrCodeInternalError, "authentication check failed")
		}
		if !ok {
			return transport.WriteError(c, fiber.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid or inactive bearer token")
		}

		idempotencyKey := strings.TrimSpace(c.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			return transport.WriteError(c, fiber.StatusBadRequest, domain.ErrCodeFieldRequired, "Idempotency-Key header is required")
		}

		fileBytes, err := readUploadedFile(c)
		if err != nil {
			return transport.WriteError(c, fiber.StatusBadRequest, domain.ErrCodeFieldRequired, err.Error())
		}

		logger.Info("batch load submission accepted for processing",
			zap.String("subject", subject),
			zap.String("idempotencyKey", idempotencyKey),
			zap.Int("bytes", len(fileBytes)),
		)

		summary, err := submitter.Submit(ctx, idempotencyKey, fileBytes)
		if err != nil {
			return writeSubmitError(c, err)
		}

		return writeSuccess(c, summary)
	}
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func readUploadedFile(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("file part is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.New("failed to open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("failed to read uploaded file")
	}
	if len(data) == 0 {
		return nil, errors.New("uploaded file is empty")
	}

	return data, nil
}

func writeSubmitError(c *fiber.Ctx, err error) error {
	var replay *service.ReplayError
	if errors.As(err, &replay) {
		return transport.WriteError(c, fiber.StatusConflict, replay.Code, "batch load already exists for this idempotency key and file")
	}

	if errors.Is(err, domain.ErrValidation) {
		return transport.WriteError(c, fiber.StatusBadRequest, domain.ErrCodeFormatInvalid, err.Error())
	}

	return transport.WriteError(c, fiber.StatusInternalServerError, domain.ErrCodeInternalError, "batch processing failed")
}

func writeSuccess(c *fiber.Ctx, summary *service.BatchSummary) error {
	status := fiber.StatusCreated
	if summary.StoredCount == 0 && summary.ErrorCount > 0 {
		status = fiber.StatusUnprocessableEntity
	}

	errorsByCode := make(map[string]int, len(summary.ErrorsByCode))
	for code, count := range summary.ErrorsByCode {
		errorsByCode[code.String()] = count
	}

	errorDetails := make([]orderLoadRowErrorBody, 0, len(summary.ErrorDetails))
	for _, e := range summary.ErrorDetails {
		errorDetails = append(errorDetails, orderLoadRowErrorBody{
			LineNumber: e.LineNumber,
			Code:       e.Code.String(),
			Message:    e.Message,
		})
	}

	return c.Status(status).JSON(orderLoadSuccessBody{
		BatchLoadID:    summary.BatchLoadID,
		TotalProcessed: summary.TotalProcessed,
		StoredCount:    summary.StoredCount,
		ErrorCount:     summary.ErrorCount,
		ErrorsByCode:   errorsByCode,
		ErrorDetails:   errorDetails,
	})
}
