package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskSortFields lists the columns a task listing may be ordered by.
var TaskSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"due_date":       true,
	"priority":       true,
	"priority_order": true,
	"title":          true,
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	if filter.RestrictIDs && len(filter.IDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.RestrictIDs {
		query = query.Where("tasks.id IN ?", filter.IDs)
	}
	if filter.TopLevelOnly {
		query = query.Where("tasks.parent_task_id IS NULL")
	}

	// Apply filters
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.ProductID != nil {
		query = query.Where("tasks.product_id = ?", *filter.ProductID)
	}
	if filter.StatusID != nil {
		query = query.Where("tasks.status_id = ?", *filter.StatusID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AgencyID != nil {
		agencySubQuery := r.db.Model(&models.TaskAgency{}).
			Select("1").
			Where("task_agencies.task_id = tasks.id").
			Where("task_agencies.agency_id = ?", *filter.AgencyID)
		query = query.Where("EXISTS (?)", agencySubQuery)
	}
	if filter.TeamID != nil {
		teamSubQuery := r.db.Model(&models.TaskTeam{}).
			Select("1").
			Where("task_teams.task_id = tasks.id").
			Where("task_teams.team_id = ?", *filter.TeamID)
		query = query.Where("EXISTS (?)", teamSubQuery)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueDateTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("tasks.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("tasks.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(taskOrder(filter.SortBy, filter.SortAsc))
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	tasks := []models.Task{}
	if err := listQuery.
		Preload("Project").
		Preload("Product").
		Preload("Status").
		Preload("Assignee").
		Preload("Creator").
		Preload("Labels").
		Preload("Agencies").
		Preload("Teams").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// taskOrder builds the ORDER BY for a listing. Unknown columns fall back to
// created_at; priority_order always puts unordered tasks last.
func taskOrder(sortBy string, asc bool) clause.OrderBy {
	if !TaskSortFields[sortBy] {
		sortBy = "created_at"
	}
	column := clause.OrderByColumn{Column: clause.Column{Table: "tasks", Name: sortBy}, Desc: !asc}
	if sortBy != "priority_order" {
		return clause.OrderBy{Columns: []clause.OrderByColumn{column}}
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "CASE WHEN tasks.priority_order IS NULL THEN 1 ELSE 0 END", Raw: true}},
		column,
	}}
}

// ListSubtasks lists the direct subtasks of a task, oldest first
func (r *GormTaskRepository) ListSubtasks(ctx context.Context, parentID string, preload ...string) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Where("parent_task_id = ?", parentID)
	for _, p := range preload {
		query = query.Preload(p)
	}

	subtasks := []models.Task{}
	if err := query.Order("created_at ASC").Find(&subtasks).Error; err != nil {
		return nil, err
	}
	return subtasks, nil
}

// Updates applies a partial update to a task
func (r *GormTaskRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a task, its subtasks and every association row
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Task{}).Where("parent_task_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		ids = append(ids, id)

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("task_id IN ?", ids)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentMention{}).Error; err != nil {
			return err
		}
		for _, assoc := range []any{
			&models.Comment{}, &models.TaskAgency{}, &models.TaskTeam{}, &models.TaskLabel{},
			&models.Watcher{}, &models.ChecklistItem{}, &models.TaskCustomFieldValue{},
		} {
			if err := tx.Where("task_id IN ?", ids).Delete(assoc).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id IN ?", ids).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddLabels tags a task with labels
func (r *GormTaskRepository) AddLabels(ctx context.Context, taskID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}
	rows := make([]models.TaskLabel, len(labelIDs))
	for i, labelID := range labelIDs {
		rows[i] = models.TaskLabel{TaskID: taskID, LabelID: labelID}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// ListLabels lists the labels on a task by name
func (r *GormTaskRepository) ListLabels(ctx context.Context, taskID string) ([]models.Label, error) {
	labels := []models.Label{}
	err := r.db.WithContext(ctx).
		Joins("JOIN task_labels ON task_labels.label_id = labels.id").
		Where("task_labels.task_id = ?", taskID).
		Order("labels.name ASC").
		Find(&labels).Error
	return labels, err
}

// AddLabel tags a task with one label. A second tag with the same label is
// a unique violation.
func (r *GormTaskRepository) AddLabel(ctx context.Context, taskID, labelID string) error {
	return r.db.WithContext(ctx).Create(&models.TaskLabel{TaskID: taskID, LabelID: labelID}).Error
}

// RemoveLabel untags a task, reporting gorm.ErrRecordNotFound when the label was not on it
func (r *GormTaskRepository) RemoveLabel(ctx context.Context, taskID, labelID string) error {
	return deleteLink(r.db.WithContext(ctx).Where("task_id = ? AND label_id = ?", taskID, labelID), &models.TaskLabel{})
}

// AddAgencies tags a task with agencies
func (r *GormTaskRepository) AddAgencies(ctx context.Context, taskID string, agencyIDs []string) error {
	return insertTaskAgencies(r.db.WithContext(ctx), taskID, agencyIDs)
}

// ReplaceAgencies drops the task's agencies and inserts the given ones
func (r *GormTaskRepository) ReplaceAgencies(ctx context.Context, taskID string, agencyIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAgency{}).Error; err != nil {
			return err
		}
		return insertTaskAgencies(tx, taskID, agencyIDs)
	})
}

func insertTaskAgencies(db *gorm.DB, taskID string, agencyIDs []string) error {
	if len(agencyIDs) == 0 {
		return nil
	}
	rows := make([]models.TaskAgency, len(agencyIDs))
	for i, agencyID := range agencyIDs {
		rows[i] = models.TaskAgency{TaskID: taskID, AgencyID: agencyID}
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// AddTeams tags a task with teams. A team already on the task is a unique
// violation, which callers report as a validation error.
func (r *GormTaskRepository) AddTeams(ctx context.Context, taskID string, teamIDs []string) error {
	return insertTaskTeams(r.db.WithContext(ctx), taskID, teamIDs)
}

// ReplaceTeams drops the task's teams and inserts the given ones
func (r *GormTaskRepository) ReplaceTeams(ctx context.Context, taskID string, teamIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskTeam{}).Error; err != nil {
			return err
		}
		return insertTaskTeams(tx, taskID, teamIDs)
	})
}

func insertTaskTeams(db *gorm.DB, taskID string, teamIDs []string) error {
	if len(teamIDs) == 0 {
		return nil
	}
	rows := make([]models.TaskTeam, len(teamIDs))
	for i, teamID := range teamIDs {
		rows[i] = models.TaskTeam{TaskID: taskID, TeamID: teamID}
	}
	return db.Create(&rows).Error
}

// AddWatchers registers watchers, ignoring ones already watching
func (r *GormTaskRepository) AddWatchers(ctx context.Context, taskID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]models.Watcher, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = models.Watcher{TaskID: taskID, UserID: userID}
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// RemoveWatcher unregisters a watcher
func (r *GormTaskRepository) RemoveWatcher(ctx context.Context, taskID, userID string) error {
	return r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&models.Watcher{}).Error
}

// ListWatchers lists the watchers of a task with their users
func (r *GormTaskRepository) ListWatchers(ctx context.Context, taskID string) ([]models.Watcher, error) {
	watchers := []models.Watcher{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&watchers).Error
	return watchers, err
}

// IsWatching reports whether a user watches a task
func (r *GormTaskRepository) IsWatching(ctx context.Context, taskID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Watcher{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&count).Error
	return count > 0, err
}

// UpdatePriorityOrder sets the manual ordering slot of a task
func (r *GormTaskRepository) UpdatePriorityOrder(ctx context.Context, id string, order *int) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Update("priority_order", order).Error
}
