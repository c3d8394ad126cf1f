package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrLabelNotFound       = errors.New("label not found")
	ErrStatusNotFound      = errors.New("status not found")
	ErrCustomFieldNotFound = errors.New("custom field not found")
)

// CatalogService manages one kind of shared reference data such as
// labels, statuses or custom field definitions. Every mutation is
// audit-logged.
type CatalogService[T any] struct {
	repo       repository.CrudRepository[T]
	audit      *AuditService
	entityType string
	order      string
	missing    error
	idOf       func(*T) string

	// canDelete, when set, may veto a delete
	canDelete func(ctx context.Context, item *T) error
}

// NewLabelService creates the catalog service for labels
func NewLabelService(repo repository.LabelRepository, audit *AuditService) *CatalogService[models.Label] {
	return &CatalogService[models.Label]{
		repo:       repo,
		audit:      audit,
		entityType: "label",
		order:      "name ASC",
		missing:    ErrLabelNotFound,
		idOf:       func(l *models.Label) string { return l.ID },
	}
}

// NewStatusService creates the catalog service for workflow statuses
func NewStatusService(repo repository.StatusRepository, audit *AuditService) *CatalogService[models.Status] {
	return &CatalogService[models.Status]{
		repo:       repo,
		audit:      audit,
		entityType: "status",
		order:      "order_index ASC",
		missing:    ErrStatusNotFound,
		idOf:       func(s *models.Status) string { return s.ID },
	}
}

// NewCustomFieldService creates the catalog service for custom field definitions
func NewCustomFieldService(repo repository.CrudRepository[models.CustomField], audit *AuditService) *CatalogService[models.CustomField] {
	return &CatalogService[models.CustomField]{
		repo:       repo,
		audit:      audit,
		entityType: "custom_field",
		order:      "name ASC",
		missing:    ErrCustomFieldNotFound,
		idOf:       func(f *models.CustomField) string { return f.ID },
	}
}

// List returns every entry in catalog order
func (s *CatalogService[T]) List(ctx context.Context) ([]T, error) {
	items, _, err := s.repo.List(ctx, repository.ListOptions{Order: s.order})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.entityType, err)
	}
	return items, nil
}

// Get returns one entry
func (s *CatalogService[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, s.missing, "find "+s.entityType)
	}
	return item, nil
}

// Create stores a new entry
func (s *CatalogService[T]) Create(ctx context.Context, actorID string, item *T) (*T, error) {
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.entityType, err)
	}
	s.audit.Log(ctx, actorID, AuditCreate, s.entityType, s.idOf(item), nil)
	return item, nil
}

// Update applies column updates to an entry
func (s *CatalogService[T]) Update(ctx context.Context, id, actorID string, fields map[string]any) (*T, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", s.entityType, err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, s.entityType, id, nil)
	return s.Get(ctx, id)
}

// Delete removes an entry
func (s *CatalogService[T]) Delete(ctx context.Context, id, actorID string) error {
	if s.canDelete != nil {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.canDelete(ctx, item); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, s.missing, "delete "+s.entityType)
	}
	s.audit.Log(ctx, actorID, AuditDelete, s.entityType, id, nil)
	return nil
}

// LabelInput represents input for creating or updating a label
type LabelInput struct {
	Name        utils.Optional[string] `json:"name"`
	Color       utils.Optional[string] `json:"color"`
	Description utils.Optional[string] `json:"description"`
}

// Label builds a new label from the input
func (in LabelInput) Label() (*models.Label, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	label := &models.Label{Name: name, Description: in.Description.Value}
	if in.Color.Value != nil {
		label.Color = *in.Color.Value
	}
	return label, nil
}

// Fields returns the columns an update writes
func (in LabelInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Color.Value != nil {
		fields["color"] = *in.Color.Value
	}
	setColumn(fields, "description", in.Description)
	return fields, nil
}

// StatusInput represents input for creating or updating a status
type StatusInput struct {
	Name       utils.Optional[string] `json:"name"`
	Color      utils.Optional[string] `json:"color"`
	OrderIndex utils.Optional[int]    `json:"order_index"`
	IsDefault  utils.Optional[bool]   `json:"is_default"`
	IsClosed   utils.Optional[bool]   `json:"is_closed"`
}

// Status builds a new status from the input
func (in StatusInput) Status() (*models.Status, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	status := &models.Status{Name: name}
	if in.Color.Value != nil {
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
func (in StatusInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Color.Value != nil {
		fields["color"] = *in.Color.Value
	}
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

// CustomFieldInput represents input for creating or updating a custom field
type CustomFieldInput struct {
	Name           utils.Optional[string]                 `json:"name"`
	Type           utils.Optional[models.CustomFieldType] `json:"type"`
	Description    utils.Optional[string]                 `json:"description"`
	IsInternalOnly utils.Optional[bool]                   `json:"is_internal_only"`
	IsRequired     utils.Optional[bool]                   `json:"is_required"`
	Options        utils.Optional[[]string]               `json:"options"`
}

var customFieldTypes = []models.CustomFieldType{
	models.CustomFieldText,
	models.CustomFieldNumber,
	models.CustomFieldDate,
	models.CustomFieldSelect,
	models.CustomFieldCheckbox,
}

func validFieldType(t *models.CustomFieldType) bool {
	if t == nil {
		return false
	}
	for _, known := range customFieldTypes {
		if *t == known {
			return true
		}
	}
	return false
}

// CustomField builds a new custom field definition from the input
func (in CustomFieldInput) CustomField() (*models.CustomField, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	if !validFieldType(in.Type.Value) {
		return nil, invalid("Invalid custom field type")
	}
	field := &models.CustomField{
		Name:        name,
		Type:        *in.Type.Value,
		Description: in.Description.Value,
		Options:     []string{},
	}
	if in.IsInternalOnly.Value != nil {
		field.IsInternalOnly = *in.IsInternalOnly.Value
	}
	if in.IsRequired.Value != nil {
		field.IsRequired = *in.IsRequired.Value
	}
	if in.Options.Value != nil {
		field.Options = *in.Options.Value
	}
	return field, nil
}

// Fields returns the columns an update writes. Options are encoded here
// because map updates bypass the column serializer.
func (in CustomFieldInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Type.Set {
		if !validFieldType(in.Type.Value) {
			return nil, invalid("Invalid custom field type")
		}
		fields["type"] = *in.Type.Value
	}
	setColumn(fields, "description", in.Description)
	if in.IsInternalOnly.Value != nil {
		fields["is_internal_only"] = *in.IsInternalOnly.Value
	}
	if in.IsRequired.Value != nil {
		fields["is_required"] = *in.IsRequired.Value
	}
	if in.Options.Set {
		options := []string{}
		if in.Options.Value != nil {
			options = *in.Options.Value
		}
		raw, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		fields["options"] = string(raw)
	}
	return fields, nil
}

func requiredName(name utils.Optional[string]) (string, error) {
	if name.Value == nil || strings.TrimSpace(*name.Value) == "" {
		return "", ErrNameRequired
	}
	return strings.TrimSpace(*name.Value), nil
}

// VisibleCustomFields lists custom field definitions, hiding internal-only
// ones from External Agency users.
func VisibleCustomFields(ctx context.Context, s *CatalogService[models.CustomField], role models.Role) ([]models.CustomField, error) {
	fields, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterInternalOnly(fields, role), nil
}
