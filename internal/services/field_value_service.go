package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
)

// FieldValueService reads and writes the custom field values of tasks.
// Internal-only fields are invisible to External Agency users, for reading
// and for writing.
type FieldValueService struct {
	repo     repository.FieldValueRepository
	fields   repository.CrudRepository[models.CustomField]
	taskRepo repository.TaskRepository
	audit    *AuditService
}

// NewFieldValueService creates a new FieldValueService
func NewFieldValueService(
	repo repository.FieldValueRepository,
	fields repository.CrudRepository[models.CustomField],
	taskRepo repository.TaskRepository,
	audit *AuditService,
) *FieldValueService {
	return &FieldValueService{repo: repo, fields: fields, taskRepo: taskRepo, audit: audit}
}

// FieldValueInput sets one field of a task
type FieldValueInput struct {
	CustomFieldID string          `json:"custom_field_id"`
	Value         json.RawMessage `json:"value"`
}

// List returns the task's values the principal may see
func (s *FieldValueService) List(ctx context.Context, principal *models.User, taskID string) ([]models.TaskCustomFieldValue, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	values, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom field values: %w", err)
	}
	external := principal.Role == models.RoleExternalAgency
	visible := make([]models.TaskCustomFieldValue, 0, len(values))
	for _, v := range values {
		// values of a deleted field definition are dropped
		if v.CustomField == nil || (external && v.CustomField.IsInternalOnly) {
			continue
		}
		visible = append(visible, v)
	}
	return visible, nil
}

// Set creates or replaces the given values and returns every value of the
// task. Nothing is written when any field is unknown.
func (s *FieldValueService) Set(ctx context.Context, principal *models.User, taskID string, inputs []FieldValueInput) ([]models.TaskCustomFieldValue, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	now := time.Now().UTC()
	values := make([]models.TaskCustomFieldValue, 0, len(inputs))
	seen := make(map[string]int, len(inputs))
	for _, in := range inputs {
		if in.CustomFieldID == "" {
			return nil, invalid("custom_field_id is required")
		}
		field, err := s.fields.FindByID(ctx, in.CustomFieldID)
		if err != nil {
			return nil, notFound(err, ErrCustomFieldNotFound, "find custom field")
		}
		if field.IsInternalOnly && principal.Role == models.RoleExternalAgency {
			return nil, ErrCustomFieldNotFound
		}

		value := in.Value
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		row := models.TaskCustomFieldValue{TaskID: taskID, CustomFieldID: field.ID, Value: value, UpdatedAt: now}
		if i, ok := seen[field.ID]; ok {
			values[i] = row
			continue
		}
		seen[field.ID] = len(values)
		values = append(values, row)
	}

	if err := s.repo.Upsert(ctx, values); err != nil {
		return nil, fmt.Errorf("failed to save custom field values: %w", err)
	}
	if len(values) > 0 {
		s.audit.Log(ctx, principal.ID, AuditUpdate, "task", taskID, map[string]any{"custom_fields": len(values)})
	}
	return s.List(ctx, principal, taskID)
}
