package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/buildops/defect-tracker/internal/api/metrics"
	"github.com/buildops/defect-tracker/internal/core/ports"
	"github.com/buildops/defect-tracker/internal/export"
)

// ReportHandler handles the dashboard and the report export endpoints.
type ReportHandler struct {
	service ports.ReportService
}

func NewReportHandler(service ports.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Dashboard handles GET /v1/reports/dashboard.
//
// @Summary      Defect counts per status
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.DashboardResult
// @Failure      403  {object}  errorResponse
// @Router       /v1/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	result, err := h.service.Dashboard(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ExportCSV handles GET /v1/reports/export/csv.
//
// @Summary      Export the filtered defect list as CSV
// @Tags         reports
// @Produce      text/csv
// @Security     BearerAuth
// @Param        status      query  string  false  "Filter by status"
// @Param        priority    query  string  false  "Filter by priority"
// @Param        project     query  int     false  "Filter by project"
// @Param        q           query  string  false  "Search in title and description"
// @Param        sort        query  string  false  "Sort key, prefix with - for descending"
// @Success      200
// @Failure      403  {object}  errorResponse
// @Router       /v1/reports/export/csv [get]
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	return h.export(c, "csv", "text/csv; charset=utf-8")
}

// ExportXLSX handles GET /v1/reports/export/xlsx.
//
// @Summary      Export the filtered defect list as an Excel workbook
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        status      query  string  false  "Filter by status"
// @Param        priority    query  string  false  "Filter by priority"
// @Param        project     query  int     false  "Filter by project"
// @Param        q           query  string  false  "Search in title and description"
// @Param        sort        query  string  false  "Sort key, prefix with - for descending"
// @Success      200
// @Failure      403  {object}  errorResponse
// @Router       /v1/reports/export/xlsx [get]
func (h *ReportHandler) ExportXLSX(c echo.Context) error {
	return h.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *ReportHandler) export(c echo.Context, format, contentType string) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	projectID, _ := strconv.ParseInt(c.QueryParam("project"), 10, 64)
	rows, err := h.service.Export(c.Request().Context(), actor, ports.ReportFilter{
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		ProjectID: projectID,
		Search:    c.QueryParam("q"),
		Sort:      c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		err = export.WriteCSV(&buf, rows)
	default:
		err = export.WriteXLSX(&buf, rows)
	}
	if err != nil {
		return err
	}

	metrics.ExportsTotal.WithLabelValues(format).Inc()

	filename := export.Filename(format, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
