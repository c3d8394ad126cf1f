package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
)

var (
	ErrLabelNotOnTask = errors.New("label not on task")

	ErrLabelIDRequired    = &ValidationError{Message: "label_id is required"}
	ErrLabelAlreadyOnTask = &ValidationError{Message: "Label is already on this task"}
)

// ListLabels lists the labels on a task
func (s *TaskService) ListLabels(ctx context.Context, taskID string) ([]models.Label, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	labels, err := s.taskRepo.ListLabels(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task labels: %w", err)
	}
	return labels, nil
}

// AddLabel tags a task with an existing label
func (s *TaskService) AddLabel(ctx context.Context, taskID, labelID, actorID string) (*models.Label, error) {
	if labelID == "" {
		return nil, ErrLabelIDRequired
	}
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	label, err := s.labelRepo.FindByID(ctx, labelID)
	if err != nil {
		return nil, notFound(err, ErrLabelNotFound, "find label")
	}

	if err := s.taskRepo.AddLabel(ctx, taskID, labelID); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrLabelAlreadyOnTask
		}
		return nil, fmt.Errorf("failed to add task label: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "task", taskID, map[string]any{"label_added": labelID})
	return label, nil
}

// RemoveLabel untags a task
func (s *TaskService) RemoveLabel(ctx context.Context, taskID, labelID, actorID string) error {
	if err := s.taskRepo.RemoveLabel(ctx, taskID, labelID); err != nil {
		return notFound(err, ErrLabelNotOnTask, "remove task label")
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "task", taskID, map[string]any{"label_removed": labelID})
	return nil
}
