package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// SignalsHandler receives hot-signal detections for a user's companies.
type SignalsHandler struct {
	leads *service.LeadsService
}

// NewSignalsHandler wires a new SignalsHandler instance.
func NewSignalsHandler(leads *service.LeadsService) *SignalsHandler {
	return &SignalsHandler{leads: leads}
}

// Record handles POST /admin/signals requests.
func (h *SignalsHandler) Record(c echo.Context) error {
	var payload dto.SignalRequest
	if err := c.Bind(&payload); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	userID, err := uuid.Parse(strings.TrimSpace(payload.UserID))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid user_id")
	}
	companyID, err := uuid.Parse(strings.TrimSpace(payload.CompanyID))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid company_id")
	}

	lead, err := h.leads.RecordSignal(c.Request().Context(), userID, companyID, payload.Summary)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "signal recorded", lead)
}
