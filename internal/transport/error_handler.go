package transport

import (
	"net/http"
	"time"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON shape of every error response emitted by
// the HTTP surface.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// WriteError renders the standard error shape and sets the status code.
func WriteError(c *fiber.Ctx, status int, code domain.RowErrorCode, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Code:      code.String(),
		Message:   message,
		Path:      c.Path(),
	})
}

// ErrorHandler is the fiber-wide fallback for errors not already
// rendered by a handler (routing failures, panics recovered by
// middleware, framework-level fiber.Error values).
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		code := domain.ErrCodeInternalError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			if status == fiber.StatusNotFound {
				code = "NOT_FOUND"
			}
		}

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)

		return c.Status(status).JSON(ErrorResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Status:    status,
			Error:     http.StatusText(status),
			Code:      code.String(),
			Message:   err.Error(),
			Path:      c.Path(),
		})
	}
}
