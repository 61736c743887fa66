package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/domain"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Reason string            `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, body := toErrorResponse(err)
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err,
			)
		}
		return c.Status(code).JSON(body)
	}
}

func toErrorResponse(err error) (int, errorResponse) {
	var (
		violation  *domain.PolicyViolation
		validation validator.ValidationErrors
		fiberErr   *fiber.Error
	)

	switch {
	case errors.As(err, &violation):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  violation.Error(),
			Reason: string(violation.Reason),
		}
	case errors.As(err, &validation):
		fields := make(map[string]string, len(validation))
		for _, fe := range validation {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "not found", Reason: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: "invalid input", Reason: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "forbidden", Reason: err.Error()}
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Reason: domain.ErrPersistence.Error()}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, errorResponse{Error: fiberErr.Message}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}
