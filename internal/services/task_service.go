package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrParentTaskNotFound  = errors.New("parent task not found")
	ErrCannotRemoveWatcher = errors.New("cannot remove other users as watchers")

	ErrTitleRequired      = &ValidationError{Message: "Title is required"}
	ErrDuplicateTeams     = &ValidationError{Message: "Duplicate teams in request"}
	ErrInvalidTeams       = &ValidationError{Message: "One or more team IDs are invalid"}
	ErrTeamsAlreadyOnTask = &ValidationError{Message: "One or more teams are already assigned to this task"}
	ErrUnknownStatus      = &ValidationError{Message: "Status not found"}
	ErrPriorityIDRequired = &ValidationError{Message: "Each priority entry requires an id"}
)

var (
	taskDetailPreloads = []string{"Project", "Product", "Status", "Assignee", "Creator", "Labels", "Watchers.User", "Agencies", "Teams"}
	subtaskPreloads    = []string{"Project", "Product", "Status", "Assignee", "Creator", "Agencies", "Teams"}
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	statusRepo  repository.StatusRepository
	labelRepo   repository.LabelRepository
	teamRepo    repository.TeamRepository
	visibility  *VisibilityService
	notifier    TaskNotifier
	audit       *AuditService
	log         *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	statusRepo repository.StatusRepository,
	labelRepo repository.LabelRepository,
	teamRepo repository.TeamRepository,
	visibility *VisibilityService,
	notifier TaskNotifier,
	audit *AuditService,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		statusRepo:  statusRepo,
		labelRepo:   labelRepo,
		teamRepo:    teamRepo,
		visibility:  visibility,
		notifier:    notifier,
		audit:       audit,
		log:         log,
	}
}

// ListTasks returns top-level tasks matching filter. External Agency
// principals only see the tasks the visibility rules admit.
func (s *TaskService) ListTasks(ctx context.Context, principal *models.User, filter repository.TaskFilter) ([]models.Task, int64, error) {
	scope, err := s.visibility.Scope(ctx, principal, ScopeTasks)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve task visibility: %w", err)
	}
	filter.RestrictIDs = scope.Restricted
	filter.IDs = scope.IDs
	filter.TopLevelOnly = true

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// TaskDetail is a task with its parent summary and direct subtasks
type TaskDetail struct {
	*models.Task
	ParentTask *models.TaskSummary `json:"parent_task,omitempty"`
}

// GetTask returns a task with related data, its parent summary and its subtasks
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, taskDetailPreloads...)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	detail := &TaskDetail{Task: task}
	if task.ParentTaskID != nil {
		parent, err := s.taskRepo.FindByID(ctx, *task.ParentTaskID)
		switch {
		case err == nil:
			detail.ParentTask = &models.TaskSummary{ID: parent.ID, Title: parent.Title}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to find parent task: %w", err)
		}
	}

	subtasks, err := s.taskRepo.ListSubtasks(ctx, taskID, subtaskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	task.Subtasks = subtasks

	return detail, nil
}

// CreateTaskInput represents input for creating a task. The product is
// never taken from the caller: it is copied from the project.
type CreateTaskInput struct {
	Title          string
	Description    *string
	ProjectID      *string
	AssigneeID     *string
	StatusID       *string
	Priority       *int
	DueDate        *time.Time
	EstimatedHours *float64
	LabelIDs       []string
	AgencyIDs      []string
	TeamIDs        []string
	WatcherIDs     []string
	CreatorID      string
}

// CreateTask creates a task inside a project. The product follows the
// project and the status falls back to the default status. Teams are
// checked before the insert; labels, agencies, teams and watchers are then
// attached best-effort and a failure only leaves the association missing.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.ProjectID == nil || *input.ProjectID == "" {
		return nil, ErrProjectNotFound
	}
	if hasDuplicates(input.TeamIDs) {
		return nil, ErrDuplicateTeams
	}
	if err := s.verifyTeams(ctx, input.TeamIDs); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(ctx, *input.ProjectID)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		ProjectID:      &project.ID,
		ProductID:      project.ProductID,
		AssigneeID:     input.AssigneeID,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
		CreatedBy:      input.CreatorID,
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if err := s.applyStatus(ctx, task, input.StatusID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.taskRepo.AddLabels(ctx, task.ID, input.LabelIDs); err != nil {
		s.log.Error("failed to add labels to task", zap.String("task_id", task.ID), zap.Error(err))
	}
	if err := s.taskRepo.AddAgencies(ctx, task.ID, input.AgencyIDs); err != nil {
		s.log.Error("failed to add agencies to task", zap.String("task_id", task.ID), zap.Error(err))
	}
	if err := s.taskRepo.AddTeams(ctx, task.ID, input.TeamIDs); err != nil {
		s.log.Error("failed to add teams to task", zap.String("task_id", task.ID), zap.Error(err))
	}

	watchers := append([]string{input.CreatorID}, input.WatcherIDs...)
	if input.AssigneeID != nil {
		watchers = append(watchers, *input.AssigneeID)
	}
	if err := s.taskRepo.AddWatchers(ctx, task.ID, uniqueIDs(watchers)); err != nil {
		s.log.Error("failed to add watchers to task", zap.String("task_id", task.ID), zap.Error(err))
	}

	s.created(ctx, task)
	return s.reload(ctx, task.ID)
}

// verifyTeams fails with ErrInvalidTeams unless every team exists
func (s *TaskService) verifyTeams(ctx context.Context, teamIDs []string) error {
	if len(teamIDs) == 0 {
		return nil
	}
	count, err := s.teamRepo.CountByIDs(ctx, teamIDs)
	if err != nil {
		return fmt.Errorf("failed to verify teams: %w", err)
	}
	if count != int64(len(teamIDs)) {
		return ErrInvalidTeams
	}
	return nil
}

// created notifies the assignee and records the audit entry of a new task.
func (s *TaskService) created(ctx context.Context, task *models.Task) {
	if task.AssigneeID != nil && *task.AssigneeID != task.CreatedBy {
		s.notifier.TaskAssigned(ctx, task.ID, *task.AssigneeID, task.CreatedBy)
	}
	s.audit.Log(ctx, task.CreatedBy, AuditCreate, "task", task.ID, map[string]any{"title": task.Title})
}

// applyStatus points task at statusID, or at the default status when nil,
// and keeps the denormalised status name in step.
func (s *TaskService) applyStatus(ctx context.Context, task *models.Task, statusID *string) error {
	var (
		status *models.Status
		err    error
	)
	if statusID == nil {
		status, err = s.statusRepo.FindDefault(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
	} else {
		status, err = s.statusRepo.FindByID(ctx, *statusID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownStatus
		}
	}
	if err != nil {
		return fmt.Errorf("failed to resolve status: %w", err)
	}
	task.StatusID = &status.ID
	task.StatusName = status.Name
	return nil
}

func (s *TaskService) reload(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, taskDetailPreloads...)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "reload task")
	}
	return task, nil
}

// UpdateTaskInput represents input for updating a task. Only fields that
// are Set are written; AgencyIDs and TeamIDs replace the current set when
// non-nil. Moving the task to another project also moves its product.
type UpdateTaskInput struct {
	Title          utils.Optional[string]
	Description    utils.Optional[string]
	ProjectID      utils.Optional[string]
	AssigneeID     utils.Optional[string]
	StatusID       utils.Optional[string]
	Priority       utils.Optional[int]
	PriorityOrder  utils.Optional[int]
	DueDate        utils.Optional[time.Time]
	EstimatedHours utils.Optional[float64]
	ActualHours    utils.Optional[float64]
	IsArchived     utils.Optional[bool]
	AgencyIDs      *[]string
	TeamIDs        *[]string
}

// UpdateTask applies a partial update, replaces agencies and teams when
// given, and notifies on assignee and status changes.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID string, input UpdateTaskInput) (*models.Task, error) {
	existing, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	fields, err := s.updateFields(ctx, input)
	if err != nil {
		return nil, err
	}

	var teamIDs []string
	if input.TeamIDs != nil {
		teamIDs = uniqueIDs(*input.TeamIDs)
		if err := s.verifyTeams(ctx, teamIDs); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Updates(ctx, taskID, fields); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if input.AgencyIDs != nil {
		if err := s.taskRepo.ReplaceAgencies(ctx, taskID, uniqueIDs(*input.AgencyIDs)); err != nil {
			return nil, fmt.Errorf("failed to update task agencies: %w", err)
		}
	}
	if input.TeamIDs != nil {
		if err := s.taskRepo.ReplaceTeams(ctx, taskID, teamIDs); err != nil {
			if database.IsUniqueViolation(err) {
				return nil, ErrTeamsAlreadyOnTask
			}
			return nil, fmt.Errorf("failed to update task teams: %w", err)
		}
	}

	if assignee := input.AssigneeID.Value; assignee != nil && !sameID(existing.AssigneeID, *assignee) {
		s.notifier.TaskAssigned(ctx, taskID, *assignee, actorID)
	}
	if status := input.StatusID.Value; status != nil && existing.StatusID != nil && *existing.StatusID != *status {
		s.notifier.StatusChanged(ctx, taskID, *existing.StatusID, *status, actorID)
	}

	changed := make([]string, 0, len(fields))
	for column := range fields {
		changed = append(changed, column)
	}
	sort.Strings(changed)
	s.audit.Log(ctx, actorID, AuditUpdate, "task", taskID, map[string]any{"fields": changed})

	return s.reload(ctx, taskID)
}

func (s *TaskService) updateFields(ctx context.Context, input UpdateTaskInput) (map[string]any, error) {
	fields := map[string]any{}

	if input.Title.Set {
		if input.Title.Value == nil || strings.TrimSpace(*input.Title.Value) == "" {
			return nil, ErrTitleRequired
		}
		fields["title"] = strings.TrimSpace(*input.Title.Value)
	}
	setColumn(fields, "description", input.Description)
	if input.ProjectID.Set {
		if err := s.moveProject(ctx, fields, input.ProjectID.Value); err != nil {
			return nil, err
		}
	}
	setColumn(fields, "assignee_id", input.AssigneeID)
	setColumn(fields, "priority_order", input.PriorityOrder)
	setColumn(fields, "due_date", input.DueDate)
	setColumn(fields, "estimated_hours", input.EstimatedHours)
	setColumn(fields, "actual_hours", input.ActualHours)
	if input.Priority.Value != nil {
		fields["priority"] = *input.Priority.Value
	}
	if input.IsArchived.Value != nil {
		fields["is_archived"] = *input.IsArchived.Value
	}

	if input.StatusID.Set {
		if input.StatusID.Value == nil {
			fields["status_id"] = nil
			fields["status"] = ""
		} else {
			var task models.Task
			if err := s.applyStatus(ctx, &task, input.StatusID.Value); err != nil {
				return nil, err
			}
			fields["status_id"] = *task.StatusID
			fields["status"] = task.StatusName
		}
	}

	return fields, nil
}

// moveProject writes project_id and the product derived from it. Clearing
// the project clears the product as well.
func (s *TaskService) moveProject(ctx context.Context, fields map[string]any, projectID *string) error {
	if projectID == nil {
		fields["project_id"] = nil
		fields["product_id"] = nil
		return nil
	}
	project, err := s.projectRepo.FindByID(ctx, *projectID)
	if err != nil {
		return notFound(err, ErrProjectNotFound, "find project")
	}
	fields["project_id"] = project.ID
	fields["product_id"] = project.ProductID
	return nil
}

func setColumn[T any](fields map[string]any, column string, o utils.Optional[T]) {
	if o.Set {
		fields[column] = o.Column()
	}
}

// DeleteTask removes a task together with its subtasks and associations
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID string) error {
	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return notFound(err, ErrTaskNotFound, "delete task")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "task", taskID, nil)
	return nil
}

// PriorityUpdate moves one task or project to a manual ordering slot
type PriorityUpdate struct {
	ID            string `json:"id"`
	PriorityOrder *int   `json:"priority_order"`
}

// UpdatePriorities applies every ordering update concurrently. The batch is
// not atomic: updates that finished before a failure stay applied.
func (s *TaskService) UpdatePriorities(ctx context.Context, actorID string, updates []PriorityUpdate) error {
	if err := validatePriorities(updates); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.PriorityUpdateConcurrency)
	for _, u := range updates {
		g.Go(func() error {
			return s.taskRepo.UpdatePriorityOrder(gctx, u.ID, u.PriorityOrder)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to update task priorities: %w", err)
	}

	s.log.Info("task priorities updated", zap.String("user_id", actorID), zap.Int("count", len(updates)))
	return nil
}

func validatePriorities(updates []PriorityUpdate) error {
	for _, u := range updates {
		if u.ID == "" {
			return ErrPriorityIDRequired
		}
	}
	return nil
}

// ListSubtasks lists the direct subtasks of a task, oldest first
func (s *TaskService) ListSubtasks(ctx context.Context, parentID string) ([]models.Task, error) {
	if _, err := s.taskRepo.FindByID(ctx, parentID); err != nil {
		return nil, notFound(err, ErrParentTaskNotFound, "find parent task")
	}
	subtasks, err := s.taskRepo.ListSubtasks(ctx, parentID, append(subtaskPreloads, "Labels", "Watchers.User")...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	return subtasks, nil
}

// CreateSubtask creates a task under parentID. The subtask inherits the
// parent's project and product and defaults to priority 1.
func (s *TaskService) CreateSubtask(ctx context.Context, parentID string, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	parent, err := s.taskRepo.FindByID(ctx, parentID)
	if err != nil {
		return nil, notFound(err, ErrParentTaskNotFound, "find parent task")
	}

	subtask := &models.Task{
		ParentTaskID:   &parent.ID,
		ProjectID:      parent.ProjectID,
		ProductID:      parent.ProductID,
		Title:          title,
		Description:    input.Description,
		AssigneeID:     input.AssigneeID,
		Priority:       1,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
		CreatedBy:      input.CreatorID,
	}
	if input.Priority != nil {
		subtask.Priority = *input.Priority
	}
	if err := s.applyStatus(ctx, subtask, input.StatusID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, subtask); err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}

	s.created(ctx, subtask)
	return s.reload(ctx, subtask.ID)
}

// ListWatchers lists the watchers of a task
func (s *TaskService) ListWatchers(ctx context.Context, taskID string) ([]models.Watcher, error) {
	watchers, err := s.taskRepo.ListWatchers(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers: %w", err)
	}
	return watchers, nil
}

// AddWatcher makes userID watch the task. It reports false when the user
// was already watching, in which case nobody is notified.
func (s *TaskService) AddWatcher(ctx context.Context, taskID, userID, actorID string) (bool, error) {
	if userID == "" {
		return false, invalid("user_id is required")
	}
	watching, err := s.taskRepo.IsWatching(ctx, taskID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check watcher: %w", err)
	}
	if watching {
		return false, nil
	}
	if err := s.taskRepo.AddWatchers(ctx, taskID, []string{userID}); err != nil {
		return false, fmt.Errorf("failed to add watcher: %w", err)
	}
	s.notifier.WatcherAdded(ctx, taskID, userID, actorID)
	return true, nil
}

// RemoveWatcher stops userID watching the task. Users may only remove
// themselves unless they hold a management role.
func (s *TaskService) RemoveWatcher(ctx context.Context, principal *models.User, taskID, userID string) error {
	if userID != principal.ID && !principal.Role.In(models.ManagementRoles...) {
		return ErrCannotRemoveWatcher
	}
	if err := s.taskRepo.RemoveWatcher(ctx, taskID, userID); err != nil {
		return fmt.Errorf("failed to remove watcher: %w", err)
	}
	return nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// uniqueIDs drops empty and repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sameID(current *string, id string) bool {
	return current != nil && *current == id
}
