package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrProjectStatusNotFound = errors.New("project status not found")

	ErrProjectStatusInUse = &ValidationError{Message: "Cannot delete status that is in use by projects"}
	ErrSlugRequired       = &ValidationError{Message: "Slug is required"}
)

const defaultProjectStatusColor = "#6B7280"

// NewProjectStatusService creates the catalog service for project statuses.
// A status still used by a project cannot be deleted.
func NewProjectStatusService(repo repository.ProjectStatusRepository, projects repository.ProjectRepository, audit *AuditService) *CatalogService[models.ProjectStatusDefinition] {
	return &CatalogService[models.ProjectStatusDefinition]{
		repo:       repo,
		audit:      audit,
		entityType: "project_status",
		order:      "order_index ASC",
		missing:    ErrProjectStatusNotFound,
		idOf:       func(s *models.ProjectStatusDefinition) string { return s.ID },
		canDelete: func(ctx context.Context, status *models.ProjectStatusDefinition) error {
			count, err := projects.CountWithStatus(ctx, status.Slug)
			if err != nil {
				return fmt.Errorf("failed to count projects in status: %w", err)
			}
			if count > 0 {
				return ErrProjectStatusInUse
			}
			return nil
		},
	}
}

// ProjectStatusInput represents input for creating or updating a project status
type ProjectStatusInput struct {
	Name        utils.Optional[string] `json:"name"`
	Slug        utils.Optional[string] `json:"slug"`
	Color       utils.Optional[string] `json:"color"`
	Description utils.Optional[string] `json:"description"`
	OrderIndex  utils.Optional[int]    `json:"order_index"`
	IsDefault   utils.Optional[bool]   `json:"is_default"`
	IsClosed    utils.Optional[bool]   `json:"is_closed"`
}

// slugify lowercases name and joins its words with underscores
func slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// ProjectStatus builds a new project status. The slug defaults to the
// lowercased name with underscores for spaces.
func (in ProjectStatusInput) ProjectStatus() (*models.ProjectStatusDefinition, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	status := &models.ProjectStatusDefinition{
		Name:        name,
		Slug:        slugify(name),
		Color:       defaultProjectStatusColor,
		Description: in.Description.Value,
	}
	if in.Slug.Value != nil && strings.TrimSpace(*in.Slug.Value) != "" {
		status.Slug = strings.TrimSpace(*in.Slug.Value)
	}
	if in.Color.Value != nil && *in.Color.Value != "" {
		status.Color = *in.Color.Value
	}
	if in.OrderIndex.Value != nil {
		status.OrderIndex = *in.OrderIndex.Value
	}
	if in.IsDefault.Value != nil {
		status.IsDefault = *in.IsDefault.Value
	}
	if in.IsClosed.Value != nil {
		status.IsClosed = *in.IsClosed.Value
	}
	return status, nil
}

// Fields returns the columns an update writes
func (in ProjectStatusInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Slug.Set {
		if in.Slug.Value == nil || strings.TrimSpace(*in.Slug.Value) == "" {
			return nil, ErrSlugRequired
		}
		fields["slug"] = strings.TrimSpace(*in.Slug.Value)
	}
	if in.Color.Value != nil {
		fields["color"] = *in.Color.Value
	}
	setColumn(fields, "description", in.Description)
	if in.OrderIndex.Value != nil {
		fields["order_index"] = *in.OrderIndex.Value
	}
	if in.IsDefault.Value != nil {
		fields["is_default"] = *in.IsDefault.Value
	}
	if in.IsClosed.Value != nil {
		fields["is_closed"] = *in.IsClosed.Value
	}
	return fields, nil
}
