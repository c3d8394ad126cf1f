package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// ReportHandler serves saved query reports and widget dashboards
type ReportHandler struct {
	reports *services.ReportService
	widgets *services.WidgetReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *services.ReportService, widgets *services.WidgetReportService) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		widgets: widgets,
	}
}

// ListReports returns the reports the current user created or was shared
func (h *ReportHandler) ListReports(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	reports, err := h.reports.ListReports(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, reports)
}

// GetReport returns a report with its queries
func (h *ReportHandler) GetReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	report, err := h.reports.GetReport(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, report)
}

// CreateReport creates a report
func (h *ReportHandler) CreateReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.CreateReportInput
	if !bindJSON(c, &input) {
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), user, input)
	if errors.Is(err, services.ErrPermissionDenied) {
		apierrors.Forbidden(c, "Insufficient permissions to create reports")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, report)
}

// UpdateReport applies a partial update. Queries, when sent, replace the
// existing ones.
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.UpdateReportInput
	if !bindJSON(c, &input) {
		return
	}

	report, err := h.reports.UpdateReport(c.Request.Context(), user, c.Param("id"), input)
	if errors.Is(err, services.ErrPermissionDenied) {
		apierrors.Forbidden(c, "Insufficient permissions to edit this report")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, report)
}

// DeleteReport deletes a report
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	err := h.reports.DeleteReport(c.Request.Context(), user, c.Param("id"))
	if errors.Is(err, services.ErrPermissionDenied) {
		apierrors.Forbidden(c, "Insufficient permissions to delete this report")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Report deleted successfully")
}

// ExecuteReport runs every query of a report. Individual query failures are
// reported inside the result.
func (h *ReportHandler) ExecuteReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	execution, err := h.reports.ExecuteReport(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, execution)
}

// ListWidgetReports returns the dashboards the current user created or
// that are shared
func (h *ReportHandler) ListWidgetReports(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	reports, err := h.widgets.ListReports(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, reports)
}

// GetWidgetReport returns one dashboard
func (h *ReportHandler) GetWidgetReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	report, err := h.widgets.GetReport(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, report)
}

// CreateWidgetReport creates a dashboard
func (h *ReportHandler) CreateWidgetReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.WidgetReportInput
	if !bindJSON(c, &input) {
		return
	}

	report, err := h.widgets.CreateReport(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, report)
}

// UpdateWidgetReport applies a partial update to a dashboard
func (h *ReportHandler) UpdateWidgetReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.WidgetReportInput
	if !bindJSON(c, &input) {
		return
	}

	report, err := h.widgets.UpdateReport(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, report)
}

// DeleteWidgetReport deletes a dashboard
func (h *ReportHandler) DeleteWidgetReport(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.widgets.DeleteReport(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Report deleted successfully")
}

// RunWidget runs an ad-hoc widget definition
func (h *ReportHandler) RunWidget(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var widget models.Widget
	if !bindJSON(c, &widget) {
		return
	}

	result, err := h.widgets.RunWidget(c.Request.Context(), user, widget)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, result)
}

// DataSourceFields describes the selectable fields of a data source
func (h *ReportHandler) DataSourceFields(c *gin.Context) {
	dto.OK(c, http.StatusOK, h.widgets.DataSourceFields(c.Param("id")))
}
