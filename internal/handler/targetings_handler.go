package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// TargetingsHandler exposes saved targetings and the active one.
type TargetingsHandler struct {
	service *service.TargetingsService
}

// NewTargetingsHandler creates a new handler instance.
func NewTargetingsHandler(service *service.TargetingsService) *TargetingsHandler {
	return &TargetingsHandler{service: service}
}

func (h *TargetingsHandler) List(c echo.Context) error {
	targetings, err := h.service.List(c.Request().Context(), middleware.AuthFromContext(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "targetings retrieved", targetings)
}

func (h *TargetingsHandler) Create(c echo.Context) error {
	var req dto.TargetingRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	targeting, err := h.service.Create(c.Request().Context(), middleware.AuthFromContext(c), req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusCreated, "targeting created", targeting)
}

func (h *TargetingsHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid targeting id")
	}
	var req dto.TargetingRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	targeting, err := h.service.Update(c.Request().Context(), middleware.AuthFromContext(c), id, req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "targeting updated", targeting)
}

func (h *TargetingsHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid targeting id")
	}
	if err := h.service.Delete(c.Request().Context(), middleware.AuthFromContext(c), id); err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "targeting deleted", nil)
}

// Activate handles POST /targetings/:id/activate requests.
func (h *TargetingsHandler) Activate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid targeting id")
	}
	targeting, err := h.service.Activate(c.Request().Context(), middleware.AuthFromContext(c), id)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "targeting activated", targeting)
}

// Deactivate handles DELETE /targetings/active requests.
func (h *TargetingsHandler) Deactivate(c echo.Context) error {
	if err := h.service.Deactivate(c.Request().Context(), middleware.AuthFromContext(c)); err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "targeting deactivated", nil)
}

// Active handles GET /targetings/active requests.
func (h *TargetingsHandler) Active(c echo.Context) error {
	active, err := h.service.Active(c.Request().Context(), middleware.AuthFromContext(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "ok", active)
}
