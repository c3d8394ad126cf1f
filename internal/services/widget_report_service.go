package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// WidgetReportService handles widget dashboards and ad-hoc widget runs
type WidgetReportService struct {
	repo   repository.WidgetReportRepository
	engine ReportEngine
}

// NewWidgetReportService creates a new WidgetReportService
func NewWidgetReportService(repo repository.WidgetReportRepository, engine ReportEngine) *WidgetReportService {
	return &WidgetReportService{repo: repo, engine: engine}
}

// ListReports lists the principal's own and shared dashboards, newest first
func (s *WidgetReportService) ListReports(ctx context.Context, principal *models.User) ([]models.WidgetReport, error) {
	reports, err := s.repo.ListAccessible(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// GetReport returns a dashboard the principal created or that is shared
func (s *WidgetReportService) GetReport(ctx context.Context, principal *models.User, id string) (*models.WidgetReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "find report")
	}
	if report.CreatedBy != principal.ID && !report.IsShared {
		return nil, ErrAccessDenied
	}
	return report, nil
}

// WidgetReportInput represents input for creating or updating a dashboard
type WidgetReportInput struct {
	Name             utils.Optional[string]          `json:"name"`
	Description      utils.Optional[string]          `json:"description"`
	Widgets          utils.Optional[[]models.Widget] `json:"widgets"`
	DefaultDateRange utils.Optional[string]          `json:"default_date_range"`
}

// CreateReport saves a private dashboard
func (s *WidgetReportService) CreateReport(ctx context.Context, principal *models.User, input WidgetReportInput) (*models.WidgetReport, error) {
	if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
		return nil, ErrReportNameRequired
	}
	report := &models.WidgetReport{
		Name:             strings.TrimSpace(*input.Name.Value),
		Description:      input.Description.Value,
		Widgets:          []models.Widget{},
		DefaultDateRange: input.DefaultDateRange.Value,
		CreatedBy:        principal.ID,
	}
	if input.Widgets.Value != nil {
		report.Widgets = *input.Widgets.Value
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return report, nil
}

// owned loads a dashboard and checks the principal created it
func (s *WidgetReportService) owned(ctx context.Context, principal *models.User, id string) (*models.WidgetReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "find report")
	}
	if report.CreatedBy != principal.ID {
		return nil, ErrAccessDenied
	}
	return report, nil
}

// UpdateReport applies a partial update; only the creator may edit
func (s *WidgetReportService) UpdateReport(ctx context.Context, principal *models.User, id string, input WidgetReportInput) (*models.WidgetReport, error) {
	if _, err := s.owned(ctx, principal, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, ErrReportNameRequired
		}
		fields["name"] = strings.TrimSpace(*input.Name.Value)
	}
	setColumn(fields, "description", input.Description)
	setColumn(fields, "default_date_range", input.DefaultDateRange)
	if input.Widgets.Set {
		widgets := []models.Widget{}
		if input.Widgets.Value != nil {
			widgets = *input.Widgets.Value
		}
		raw, err := json.Marshal(widgets)
		if err != nil {
			return nil, fmt.Errorf("failed to encode widgets: %w", err)
		}
		fields["widgets"] = string(raw)
	}

	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "reload report")
	}
	return report, nil
}

// DeleteReport removes a dashboard; only the creator may delete it
func (s *WidgetReportService) DeleteReport(ctx context.Context, principal *models.User, id string) error {
	if _, err := s.owned(ctx, principal, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrReportNotFound, "delete report")
	}
	return nil
}

// RunWidget executes an ad-hoc widget for the principal
func (s *WidgetReportService) RunWidget(ctx context.Context, principal *models.User, widget models.Widget) (reporting.WidgetResult, error) {
	result, err := s.engine.RunWidget(ctx, widget, principal.ID, principal.Role)
	switch {
	case errors.Is(err, reporting.ErrDataSourceRequired):
		return reporting.WidgetResult{}, invalid("Data source is required")
	case errors.Is(err, reporting.ErrUnknownDataSource), errors.Is(err, reporting.ErrUnknownField):
		return reporting.WidgetResult{}, invalid("%s", capitalize(err.Error()))
	case err != nil:
		return reporting.WidgetResult{}, fmt.Errorf("failed to run widget: %w", err)
	}
	return result, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DataSourceFields describes the selectable fields of a data source
func (s *WidgetReportService) DataSourceFields(source string) []reporting.Field {
	return reporting.DescribeFields(source)
}
