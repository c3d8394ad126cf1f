package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrReportNotFound = errors.New("report not found")

	ErrReportNameRequired = &ValidationError{Message: "Report name is required"}
)

// ReportEngine executes saved reports and ad-hoc widgets
type ReportEngine interface {
	ExecuteReport(ctx context.Context, report *models.Report, principalID string, role models.Role) reporting.ReportExecution
	RunWidget(ctx context.Context, widget models.Widget, principalID string, role models.Role) (reporting.WidgetResult, error)
}

// ReportService handles saved reports and their queries
type ReportService struct {
	repo   repository.ReportRepository
	engine ReportEngine
	audit  *AuditService
}

// NewReportService creates a new ReportService
func NewReportService(repo repository.ReportRepository, engine ReportEngine, audit *AuditService) *ReportService {
	return &ReportService{repo: repo, engine: engine, audit: audit}
}

// ListReports lists the reports the principal created or that are shared
// with the principal's role
func (s *ReportService) ListReports(ctx context.Context, principal *models.User) ([]models.Report, error) {
	candidates, err := s.repo.ListCandidates(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	reports := make([]models.Report, 0, len(candidates))
	for _, r := range candidates {
		if r.VisibleTo(principal.ID, principal.Role) {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

// GetReport returns a report with its queries. A report that exists but is
// not visible to the principal yields ErrAccessDenied.
func (s *ReportService) GetReport(ctx context.Context, principal *models.User, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "find report")
	}
	if !report.VisibleTo(principal.ID, principal.Role) {
		return nil, ErrAccessDenied
	}
	return report, nil
}

// ReportQueryInput is one query of a report as submitted by a client
type ReportQueryInput struct {
	DataSource          string             `json:"data_source"`
	QueryConfig         models.QueryConfig `json:"query_config"`
	VisualizationType   *string            `json:"visualization_type"`
	VisualizationConfig map[string]any     `json:"visualization_config"`
}

func buildQueries(inputs []ReportQueryInput) ([]models.ReportQuery, error) {
	queries := make([]models.ReportQuery, len(inputs))
	for i, in := range inputs {
		if !reporting.IsSource(in.DataSource) {
			return nil, invalid("Unsupported data source: %s", in.DataSource)
		}
		queries[i] = models.ReportQuery{
			DataSource:          in.DataSource,
			QueryConfig:         in.QueryConfig,
			VisualizationType:   in.VisualizationType,
			VisualizationConfig: in.VisualizationConfig,
			SortOrder:           i,
		}
	}
	return queries, nil
}

// CreateReportInput represents input for creating a report
type CreateReportInput struct {
	Name        string             `json:"name"`
	Description *string            `json:"description"`
	IsTemplate  bool               `json:"is_template"`
	Queries     []ReportQueryInput `json:"queries"`
}

// CreateReport saves a private report
func (s *ReportService) CreateReport(ctx context.Context, principal *models.User, input CreateReportInput) (*models.Report, error) {
	if !principal.Role.In(models.AuthorRoles...) {
		return nil, ErrPermissionDenied
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrReportNameRequired
	}
	queries, err := buildQueries(input.Queries)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Name:        name,
		Description: trimmedOrNil(input.Description),
		CreatedBy:   principal.ID,
		IsTemplate:  input.IsTemplate,
		Queries:     queries,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	s.audit.Log(ctx, principal.ID, "report_created", "report", report.ID, map[string]any{"report_name": name})

	return report, nil
}

// UpdateReportInput represents input for updating a report. A nil Queries
// keeps the existing queries.
type UpdateReportInput struct {
	Name            utils.Optional[string]        `json:"name"`
	Description     utils.Optional[string]        `json:"description"`
	IsTemplate      utils.Optional[bool]          `json:"is_template"`
	IsShared        utils.Optional[bool]          `json:"is_shared"`
	SharedWithRoles utils.Optional[[]models.Role] `json:"shared_with_roles"`
	Queries         *[]ReportQueryInput           `json:"queries"`
}

func canEditReport(report *models.Report, principal *models.User) bool {
	if report.CreatedBy == principal.ID || principal.Role.In(models.ManagementRoles...) {
		return true
	}
	return report.IsShared && principal.Role.In(report.SharedWithRoles...)
}

// UpdateReport applies a partial update. Creators, management roles and
// roles the report is shared with may edit it.
func (s *ReportService) UpdateReport(ctx context.Context, principal *models.User, id string, input UpdateReportInput) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "find report")
	}
	if !canEditReport(report, principal) {
		return nil, ErrPermissionDenied
	}

	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, ErrReportNameRequired
		}
		report.Name = strings.TrimSpace(*input.Name.Value)
	}
	if input.Description.Set {
		report.Description = trimmedOrNil(input.Description.Value)
	}
	if input.IsTemplate.Value != nil {
		report.IsTemplate = *input.IsTemplate.Value
	}
	if input.IsShared.Value != nil {
		report.IsShared = *input.IsShared.Value
	}
	if input.SharedWithRoles.Set {
		report.SharedWithRoles = nil
		if input.SharedWithRoles.Value != nil {
			for _, role := range *input.SharedWithRoles.Value {
				if !role.Valid() {
					return nil, ErrInvalidRole
				}
			}
			report.SharedWithRoles = *input.SharedWithRoles.Value
		}
	}

	var queries []models.ReportQuery
	if input.Queries != nil {
		if queries, err = buildQueries(*input.Queries); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, report, queries); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	s.audit.Log(ctx, principal.ID, "report_updated", "report", id, nil)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrReportNotFound, "reload report")
	}
	return updated, nil
}

// DeleteReport removes a report. Only its creator, an Owner or an Admin
// may delete it.
func (s *ReportService) DeleteReport(ctx context.Context, principal *models.User, id string) error {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrReportNotFound, "find report")
	}
	if report.CreatedBy != principal.ID && !principal.Role.In(models.AdministratorRoles...) {
		return ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrReportNotFound, "delete report")
	}
	s.audit.Log(ctx, principal.ID, "report_deleted", "report", id, nil)
	return nil
}

// ExecuteReport runs every query of a visible report
func (s *ReportService) ExecuteReport(ctx context.Context, principal *models.User, id string) (*reporting.ReportExecution, error) {
	report, err := s.GetReport(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	execution := s.engine.ExecuteReport(ctx, report, principal.ID, principal.Role)
	return &execution, nil
}
