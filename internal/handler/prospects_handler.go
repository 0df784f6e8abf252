package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// ProspectsHandler exposes the pipeline of leads.
type ProspectsHandler struct {
	prospects *service.ProspectsService
	leads     *service.LeadsService
}

// NewProspectsHandler creates a new handler instance.
func NewProspectsHandler(prospects *service.ProspectsService, leads *service.LeadsService) *ProspectsHandler {
	return &ProspectsHandler{prospects: prospects, leads: leads}
}

// List handles GET /prospects requests.
func (h *ProspectsHandler) List(c echo.Context) error {
	result, err := h.prospects.List(c.Request().Context(), middleware.AuthFromContext(c), listFilter(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "prospects retrieved", result)
}

// Board handles GET /prospects/board requests.
func (h *ProspectsHandler) Board(c echo.Context) error {
	board, err := h.prospects.Board(c.Request().Context(), middleware.AuthFromContext(c), listFilter(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "board retrieved", board)
}

// GetLead handles GET /leads/:id requests.
func (h *ProspectsHandler) GetLead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid lead id")
	}
	lead, err := h.leads.Get(c.Request().Context(), middleware.AuthFromContext(c), id)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "lead retrieved", lead)
}

// UpdateLeadStatus handles PATCH /leads/:id/status requests.
func (h *ProspectsHandler) UpdateLeadStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid lead id")
	}
	var req dto.UpdateLeadStatusRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	lead, err := h.leads.UpdateStatus(c.Request().Context(), middleware.AuthFromContext(c), id, req.Status)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "lead updated", lead)
}

// UndiscoveredSignals handles GET /signals/undiscovered-count requests.
func (h *ProspectsHandler) UndiscoveredSignals(c echo.Context) error {
	count, err := h.leads.UndiscoveredSignalCount(c.Request().Context(), middleware.AuthFromContext(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "ok", map[string]int{"count": count})
}
