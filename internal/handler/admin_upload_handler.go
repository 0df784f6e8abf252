package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/service"
)

// AdminUploadHandler handles CSV ingestion for administrators.
type AdminUploadHandler struct {
	companiesService *service.CompaniesService
}

// NewAdminUploadHandler wires a handler backed by the companies service.
func NewAdminUploadHandler(companiesService *service.CompaniesService) *AdminUploadHandler {
	return &AdminUploadHandler{companiesService: companiesService}
}

// UploadCSV handles POST /admin/upload-csv requests. The companies are added
// to the catalogue of the user named by the user_id form field.
func (h *AdminUploadHandler) UploadCSV(c echo.Context) error {
	userID, err := uuid.Parse(strings.TrimSpace(c.FormValue("user_id")))
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid user_id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return Error(c, http.StatusBadRequest, "missing csv file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, http.StatusBadRequest, "unable to open file")
	}
	defer file.Close()

	summary, err := h.companiesService.ImportCompaniesCSV(c.Request().Context(), userID, file)
	if err != nil {
		return Failure(c, err)
	}

	return Success(c, http.StatusOK, "companies CSV processed", summary)
}
