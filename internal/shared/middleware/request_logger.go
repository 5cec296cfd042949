package middleware

import (
	"errors"
	"time"

	"data-playground/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one structured line per request. The level follows the
// status class: 5xx error, 4xx warn, everything else info.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		query := string(c.Request().URI().QueryString())

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.Int("status_code", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.IP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if rid, ok := c.Locals(string(contextkeys.RequestIDKey)).(string); ok && rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("Incoming Request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Incoming Request", fields...)
		default:
			logger.Info("Incoming Request", fields...)
		}
		return err
	}
}

// NewAccessLogger builds the zap logger used for access logs: JSON in
// production, console otherwise.
func NewAccessLogger(environment string) (*zap.Logger, error) {
	if environment == "production" || environment == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
