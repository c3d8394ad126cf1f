package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrChecklistItemNotFound = errors.New("checklist item not found")

	ErrChecklistOrderRequired = &ValidationError{Message: "Priorities array is required"}
)

// ChecklistService manages the checklist items of a task
type ChecklistService struct {
	repo     repository.ChecklistRepository
	taskRepo repository.TaskRepository
	audit    *AuditService
}

// NewChecklistService creates a new ChecklistService
func NewChecklistService(repo repository.ChecklistRepository, taskRepo repository.TaskRepository, audit *AuditService) *ChecklistService {
	return &ChecklistService{repo: repo, taskRepo: taskRepo, audit: audit}
}

// List returns a task's checklist in display order
func (s *ChecklistService) List(ctx context.Context, taskID string) ([]models.ChecklistItem, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	items, _, err := s.repo.List(ctx, repository.ListOptions{
		Equals: map[string]any{"task_id": taskID},
		Order:  "order_index ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checklist: %w", err)
	}
	return items, nil
}

// Create appends an item to the end of a task's checklist
func (s *ChecklistService) Create(ctx context.Context, taskID, actorID, title string) (*models.ChecklistItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	next, err := s.repo.NextOrderIndex(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find checklist position: %w", err)
	}
	item := &models.ChecklistItem{TaskID: taskID, Title: title, OrderIndex: next}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create checklist item: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditCreate, "checklist_item", item.ID, map[string]any{"task_id": taskID})
	return item, nil
}

// ChecklistItemInput is a partial checklist item update
type ChecklistItemInput struct {
	Title      utils.Optional[string]
	IsChecked  utils.Optional[bool]
	OrderIndex utils.Optional[int]
}

// Update changes an item of the task. Checking an item stamps who completed
// it and when; unchecking clears both.
func (s *ChecklistService) Update(ctx context.Context, taskID, itemID, actorID string, input ChecklistItemInput) (*models.ChecklistItem, error) {
	if _, err := s.find(ctx, taskID, itemID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Title.Set {
		if input.Title.Value == nil || strings.TrimSpace(*input.Title.Value) == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = strings.TrimSpace(*input.Title.Value)
	}
	if input.OrderIndex.Value != nil {
		fields["order_index"] = *input.OrderIndex.Value
	}
	if checked := input.IsChecked.Value; checked != nil {
		fields["is_completed"] = *checked
		if *checked {
			fields["completed_at"] = time.Now().UTC()
			fields["completed_by"] = actorID
		} else {
			fields["completed_at"] = nil
			fields["completed_by"] = nil
		}
	}

	if err := s.repo.Updates(ctx, itemID, fields); err != nil {
		return nil, fmt.Errorf("failed to update checklist item: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "checklist_item", itemID, nil)
	return s.find(ctx, taskID, itemID)
}

// Delete removes an item of the task
func (s *ChecklistService) Delete(ctx context.Context, taskID, itemID, actorID string) error {
	if _, err := s.find(ctx, taskID, itemID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return notFound(err, ErrChecklistItemNotFound, "delete checklist item")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "checklist_item", itemID, nil)
	return nil
}

// Reorder moves items of the task in one batch. The whole batch fails when
// any item is not on the task.
func (s *ChecklistService) Reorder(ctx context.Context, taskID, actorID string, order []repository.ChecklistOrder) error {
	if len(order) == 0 {
		return ErrChecklistOrderRequired
	}
	for _, o := range order {
		if o.ID == "" {
			return ErrPriorityIDRequired
		}
	}
	if err := s.repo.Reorder(ctx, taskID, order); err != nil {
		return notFound(err, ErrChecklistItemNotFound, "reorder checklist")
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "checklist_item", "bulk", map[string]any{"task_id": taskID, "items": len(order)})
	return nil
}

// find returns an item only when it belongs to taskID
func (s *ChecklistService) find(ctx context.Context, taskID, itemID string) (*models.ChecklistItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFound(err, ErrChecklistItemNotFound, "find checklist item")
	}
	if item.TaskID != taskID {
		return nil, ErrChecklistItemNotFound
	}
	return item, nil
}
