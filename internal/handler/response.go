package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service"
	"github.com/octobees/prospecting-crm/api/internal/worker"
)

// APIResponse describes the standard envelope returned by the API.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:  "error",
		Message: message,
	}
	return c.JSON(status, payload)
}

// Failure maps a service error to its HTTP status. Unexpected errors are logged
// with the request logger and answered with a generic 500.
func Failure(c echo.Context, err error) error {
	var insufficient *service.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusPaymentRequired, APIResponse{
			Status:  "error",
			Message: "insufficient credits",
			Data: map[string]int{
				"balance":  insufficient.Balance,
				"required": insufficient.Required,
			},
		})
	case errors.Is(err, service.ErrNotAuthenticated):
		return Error(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrInvalidCredentials):
		return Error(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrValidation):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrUserNotFound):
		return Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return Error(c, http.StatusConflict, "email already exists")
	case errors.Is(err, worker.ErrWorker):
		middleware.LoggerFromContext(c).Warn("worker call failed", zap.Error(err))
		return Error(c, http.StatusBadGateway, "contact generation failed")
	case errors.Is(err, context.Canceled):
		return Error(c, 499, "request canceled")
	default:
		middleware.LoggerFromContext(c).Error("request failed", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "internal error")
	}
}

// requestContext carries the request id to outbound worker calls.
func requestContext(c echo.Context) context.Context {
	return worker.WithRequestID(c.Request().Context(), middleware.RequestIDFromContext(c))
}

func pathID(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	return id, err == nil
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}

func parseBool(input string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(input))
	return err == nil && value
}
