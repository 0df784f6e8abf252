package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// CreditsHandler exposes credit balances.
type CreditsHandler struct {
	ledger *service.CreditLedger
}

// NewCreditsHandler creates a new handler instance.
func NewCreditsHandler(ledger *service.CreditLedger) *CreditsHandler {
	return &CreditsHandler{ledger: ledger}
}

// Balance handles GET /credits requests.
func (h *CreditsHandler) Balance(c echo.Context) error {
	balance, err := h.ledger.Balance(c.Request().Context(), middleware.AuthFromContext(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "ok", dto.CreditsResponse{Balance: balance})
}

// Grant handles POST /admin/users/:id/credits requests.
func (h *CreditsHandler) Grant(c echo.Context) error {
	userID, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid user id")
	}
	var req dto.GrantCreditsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	balance, err := h.ledger.Grant(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "credits granted", dto.CreditsResponse{Balance: balance})
}
