// Package response writes the JSON envelope shared by every HTTP adapter:
// {"success": true, ...payload} or {"success": false, "message": ..., "errors": [...]}.
package response

import (
	"errors"
	"net/http"

	sharedErrors "data-playground/internal/shared/errors"
	"data-playground/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// OK writes a 200 envelope
func OK(c *fiber.Ctx, payload fiber.Map) error {
	return Success(c, fiber.StatusOK, payload)
}

// Created writes a 201 envelope
func Created(c *fiber.Ctx, payload fiber.Map) error {
	return Success(c, fiber.StatusCreated, payload)
}

// Success writes payload merged into a success envelope
func Success(c *fiber.Ctx, status int, payload fiber.Map) error {
	body := fiber.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// Fail writes a failure envelope with a plain message
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// Error maps err onto the taxonomy and writes the failure envelope.
// Internal causes are logged and never echoed to the client.
func Error(c *fiber.Ctx, log logger.Logger, err error) error {
	status := sharedErrors.HTTPStatus(err)

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return Fail(c, fiberErr.Code, fiberErr.Message)
	}

	body := fiber.Map{"success": false}

	var appErr *sharedErrors.AppError
	hasAppErr := errors.As(err, &appErr)
	switch {
	case status >= http.StatusInternalServerError:
		if log != nil {
			log.WithContext(c.UserContext()).Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
		}
		body["message"] = "internal server error"
	case hasAppErr:
		body["message"] = appErr.Message
	default:
		body["message"] = err.Error()
	}

	var ve *sharedErrors.ValidationErrors
	if errors.As(err, &ve) && ve.HasErrors() {
		body["errors"] = ve.Errors
	}

	return c.Status(status).JSON(body)
}

// ErrorHandler is a fiber.Config.ErrorHandler producing the same envelope
func ErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return Error(c, log, err)
	}
}
