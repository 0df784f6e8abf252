package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/service"
	"github.com/octobees/prospecting-crm/api/internal/service/pipeline"
)

// CompaniesHandler exposes the companies and market views and the decisions taken on them.
type CompaniesHandler struct {
	service *service.CompaniesService
}

// NewCompaniesHandler creates a new handler instance.
func NewCompaniesHandler(service *service.CompaniesService) *CompaniesHandler {
	return &CompaniesHandler{service: service}
}

// listFilter reads the view controls shared by every listing.
func listFilter(c echo.Context) dto.ListFilter {
	return dto.ListFilter{
		ShowHidden:    parseBool(c.QueryParam("show_hidden")),
		CategoryField: strings.TrimSpace(c.QueryParam("category_field")),
		Category:      strings.TrimSpace(c.QueryParam("category")),
		Q:             strings.TrimSpace(c.QueryParam("q")),
		Status:        strings.TrimSpace(c.QueryParam("status")),
		Sort:          strings.TrimSpace(c.QueryParam("sort")),
		Desc:          strings.EqualFold(strings.TrimSpace(c.QueryParam("dir")), "desc"),
		Page:          parseIntDefault(c.QueryParam("page"), 1),
		PerPage:       parseIntDefault(c.QueryParam("per_page"), pipeline.DefaultPageSize),
	}
}

// List handles GET /companies requests.
func (h *CompaniesHandler) List(c echo.Context) error {
	result, err := h.service.List(c.Request().Context(), middleware.AuthFromContext(c), listFilter(c))
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "companies retrieved", result)
}

// Market handles GET /market requests.
func (h *CompaniesHandler) Market(c echo.Context) error {
	result, err := h.service.Market(c.Request().Context(), middleware.AuthFromContext(c), listFilter(c))
	if err != nil {
		return Failure(c, err)
	}
	message := "market retrieved"
	if result.NeedsTargeting {
		message = "select a targeting to browse the market"
	}
	return Success(c, http.StatusOK, message, result)
}

// Discover handles POST /companies/:id/discover requests.
func (h *CompaniesHandler) Discover(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}
	result, err := h.service.Discover(c.Request().Context(), middleware.AuthFromContext(c), id)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "company discovered", result)
}

// Go handles POST /companies/:id/go requests.
func (h *CompaniesHandler) Go(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}
	lead, err := h.service.Go(c.Request().Context(), middleware.AuthFromContext(c), id)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "company added to prospects", lead)
}

// NoGo handles POST /companies/:id/no-go requests.
func (h *CompaniesHandler) NoGo(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}
	if err := h.service.NoGo(c.Request().Context(), middleware.AuthFromContext(c), id); err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "company hidden", nil)
}

// Restore handles POST /companies/:id/restore requests.
func (h *CompaniesHandler) Restore(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}
	if err := h.service.Restore(c.Request().Context(), middleware.AuthFromContext(c), id); err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "company restored", nil)
}

// SetSummary handles PUT /companies/:id/summary requests.
func (h *CompaniesHandler) SetSummary(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return Error(c, http.StatusBadRequest, "invalid company id")
	}
	var req dto.SummaryRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	company, err := h.service.SetSummary(c.Request().Context(), middleware.AuthFromContext(c), id, req.Summary)
	if err != nil {
		return Failure(c, err)
	}
	return Success(c, http.StatusOK, "summary saved", company)
}
