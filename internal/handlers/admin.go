package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// AdminHandler serves the Owner/Admin console: custom field definitions,
// email settings and templates, and the audit log
type AdminHandler struct {
	customFields *services.CatalogService[models.CustomField]
	email        *services.EmailService
	audit        *services.AuditService
	now          func() time.Time
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(customFields *services.CatalogService[models.CustomField], email *services.EmailService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{
		customFields: customFields,
		email:        email,
		audit:        audit,
		now:          time.Now,
	}
}

// ListCustomFields returns the custom field definitions the caller may see
func (h *AdminHandler) ListCustomFields(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	fields, err := services.VisibleCustomFields(c.Request.Context(), h.customFields, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, fields)
}

// GetEmailSettings returns the stored email settings without the password
func (h *AdminHandler) GetEmailSettings(c *gin.Context) {
	settings, err := h.email.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, settings)
}

// SaveEmailSettings creates or replaces the email settings
func (h *AdminHandler) SaveEmailSettings(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.EmailSettingsInput
	if !bindJSON(c, &input) {
		return
	}

	settings, err := h.email.SaveSettings(c.Request.Context(), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.DataMessage(c, http.StatusOK, settings, "Email settings saved successfully")
}

// TestEmailConnection verifies the submitted settings. With ?sendTest=true a
// test message is sent to the from address.
func (h *AdminHandler) TestEmailConnection(c *gin.Context) {
	var input services.EmailSettingsInput
	if !bindJSON(c, &input) {
		return
	}

	sendTo := ""
	if c.Query("sendTest") == "true" {
		sendTo = input.FromEmail
	}

	message, err := h.email.TestConnection(c.Request.Context(), input, sendTo)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, message)
}

// ListEmailTemplates returns every notification template
func (h *AdminHandler) ListEmailTemplates(c *gin.Context) {
	templates, err := h.email.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, templates)
}

// UpdateEmailTemplate applies a partial update to a template
func (h *AdminHandler) UpdateEmailTemplate(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.TemplateInput
	if !bindJSON(c, &input) {
		return
	}

	template, err := h.email.UpdateTemplate(c.Request.Context(), c.Param("id"), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, template)
}

// ListAuditLogs returns one page of the audit log, newest first
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var query dto.AuditLogQuery
	if !bindQuery(c, &query) {
		return
	}
	params := utils.GetPaginationParams(c)
	input, err := query.Input(params)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	entries, total, err := h.audit.List(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Paged(c, entries, params, total)
}

// ExportAuditLogs streams the matching audit log as a CSV attachment
func (h *AdminHandler) ExportAuditLogs(c *gin.Context) {
	var query dto.AuditLogQuery
	if !bindQuery(c, &query) {
		return
	}
	input, err := query.Input(utils.NewPaginationParams(1, 1))
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	// Buffered so that a failure can still answer with a JSON error
	var buf bytes.Buffer
	if err := h.audit.ExportCSV(c.Request.Context(), &buf, input); err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("audit-logs-%s.csv", h.now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
