package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
)

// ContactsHandler exposes lead contacts, their generation and the agenda.
type ContactsHandler struct {
	service *service.ContactsService
}

// NewContactsHandler creates a new handler instance.
func NewContactsHandler(service *service.ContactsService) *ContactsHandler {
	return &ContactsHandler{service: service}
}

// ListByLead handles GET /leads/:id/contacts requests.
func (h *ContactsHandler) ListByLead(c echo.Context) error {
	leadID, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid lead id")
	}
	contacts, err := h.service.ListByLead(c.Request().Context(), middleware.AuthFromContext(c), leadID)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "contacts retrieved", contacts)
}

// Generate handles POST /leads/:id/contacts/generate requests.
func (h *ContactsHandler) Generate(c echo.Context) error {
	leadID, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid lead id")
	}
	var req dto.GenerateContactsRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	contacts, err := h.service.Generate(requestContext(c), middleware.AuthFromContext(c), leadID, req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusCreated, "contacts generated", contacts)
}

// Update handles PATCH /contacts/:id requests.
func (h *ContactsHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}
	var req dto.UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	contact, err := h.service.Update(c.Request().Context(), middleware.AuthFromContext(c), id, req)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "contact updated", contact)
}

// Discover handles POST /contacts/:id/discover/:field requests.
func (h *ContactsHandler) Discover(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid contact id")
	}
	result, err := h.service.Discover(c.Request().Context(), middleware.AuthFromContext(c), id, c.Param("field"))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "contact field discovered", result)
}

// Agenda handles GET /agenda requests.
func (h *ContactsHandler) Agenda(c echo.Context) error {
	entries, err := h.service.Agenda(c.Request().Context(), middleware.AuthFromContext(c), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "agenda retrieved", entries)
}
