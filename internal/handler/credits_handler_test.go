package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/service"
)

func TestCreditsHandler(t *testing.T) {
	e := echo.New()
	credits := &stubCreditsRepo{balance: 16}
	h := NewCreditsHandler(service.NewCreditLedger(credits, 8, 16))

	t.Run("balance", func(t *testing.T) {
		c, rec := signedIn(e, jsonRequest(http.MethodGet, "/credits", nil), uuid.New())
		if err := h.Balance(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, data := decodeResponse(t, rec)
		if rec.Code != http.StatusOK || data["balance"] != float64(16) {
			t.Fatalf("unexpected response %d %+v", rec.Code, data)
		}
	})

	t.Run("balance anonymous", func(t *testing.T) {
		c, rec := signedIn(e, jsonRequest(http.MethodGet, "/credits", nil), uuid.Nil)
		if err := h.Balance(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	grant := func(id string, payload any) (int, map[string]any) {
		c, rec := signedIn(e, jsonRequest(http.MethodPost, "/admin/users/"+id+"/credits", payload), uuid.New())
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Grant(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, data := decodeResponse(t, rec)
		return rec.Code, data
	}

	t.Run("grant invalid id", func(t *testing.T) {
		if code, _ := grant("nope", map[string]int{"amount": 8}); code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
	})

	t.Run("grant non-positive amount", func(t *testing.T) {
		if code, _ := grant(uuid.NewString(), map[string]int{"amount": 0}); code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", code)
		}
	})

	t.Run("grant", func(t *testing.T) {
		code, data := grant(uuid.NewString(), map[string]int{"amount": 24})
		if code != http.StatusOK || data["balance"] != float64(40) {
			t.Fatalf("unexpected response %d %+v", code, data)
		}
	})
}
