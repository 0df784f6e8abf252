package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// PersonasHandler exposes contact-generation personas.
type PersonasHandler struct {
	service *service.PersonasService
}

// NewPersonasHandler creates a new handler instance.
func NewPersonasHandler(service *service.PersonasService) *PersonasHandler {
	return &PersonasHandler{service: service}
}

func (h *PersonasHandler) List(c echo.Context) error {
	personas, err := h.service.List(c.Request().Context(), middleware.AuthFromContext(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "personas retrieved", personas)
}

func (h *PersonasHandler) Create(c echo.Context) error {
	var req dto.PersonaRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	persona, err := h.service.Create(c.Request().Context(), middleware.AuthFromContext(c), req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusCreated, "persona created", persona)
}

func (h *PersonasHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid persona id")
	}
	var req dto.PersonaRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	persona, err := h.service.Update(c.Request().Context(), middleware.AuthFromContext(c), id, req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "persona updated", persona)
}

func (h *PersonasHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid persona id")
	}
	if err := h.service.Delete(c.Request().Context(), middleware.AuthFromContext(c), id); err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "persona deleted", nil)
}
