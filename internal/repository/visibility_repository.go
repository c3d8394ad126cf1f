package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormVisibilityRepository is a GORM implementation of VisibilityRepository.
// Every predicate joins tasks so a check on a missing task is false and the
// collect form never returns IDs of deleted tasks.
type GormVisibilityRepository struct {
	db *gorm.DB
}

// NewVisibilityRepository creates a new VisibilityRepository
func NewVisibilityRepository(db *gorm.DB) VisibilityRepository {
	return &GormVisibilityRepository{db: db}
}

func (r *GormVisibilityRepository) exists(ctx context.Context, query *gorm.DB) (bool, error) {
	var count int64
	if err := query.WithContext(ctx).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormVisibilityRepository) pluck(ctx context.Context, query *gorm.DB, column string) ([]string, error) {
	ids := []string{}
	err := query.WithContext(ctx).Distinct(column).Pluck(column, &ids).Error
	return ids, err
}

func (r *GormVisibilityRepository) assigned(userID string) *gorm.DB {
	return r.db.Table("tasks").Where("tasks.assignee_id = ?", userID)
}

func (r *GormVisibilityRepository) subtaskAssigned(userID string) *gorm.DB {
	return r.db.Table("tasks AS subtasks").
		Joins("JOIN tasks ON tasks.id = subtasks.parent_task_id").
		Where("subtasks.assignee_id = ?", userID)
}

func (r *GormVisibilityRepository) agencyTeam(userID string) *gorm.DB {
	return r.db.Table("task_agencies").
		Joins("JOIN tasks ON tasks.id = task_agencies.task_id").
		Joins("JOIN teams ON teams.agency_id = task_agencies.agency_id").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID)
}

func (r *GormVisibilityRepository) watched(userID string) *gorm.DB {
	return r.db.Table("watchers").
		Joins("JOIN tasks ON tasks.id = watchers.task_id").
		Where("watchers.user_id = ?", userID)
}

func (r *GormVisibilityRepository) mentioned(userID string) *gorm.DB {
	return r.db.Table("comment_mentions").
		Joins("JOIN comments ON comments.id = comment_mentions.comment_id").
		Joins("JOIN tasks ON tasks.id = comments.task_id").
		Where("comment_mentions.user_id = ?", userID)
}

// IsAssignee reports whether the user is the task's assignee
func (r *GormVisibilityRepository) IsAssignee(ctx context.Context, userID, taskID string) (bool, error) {
	return r.exists(ctx, r.assigned(userID).Where("tasks.id = ?", taskID))
}

// IsSubtaskAssignee reports whether the user is assigned any subtask of the task
func (r *GormVisibilityRepository) IsSubtaskAssignee(ctx context.Context, userID, taskID string) (bool, error) {
	return r.exists(ctx, r.subtaskAssigned(userID).Where("tasks.id = ?", taskID))
}

// IsAgencyTeamMember reports whether the user belongs to a team of an agency tagged on the task
func (r *GormVisibilityRepository) IsAgencyTeamMember(ctx context.Context, userID, taskID string) (bool, error) {
	return r.exists(ctx, r.agencyTeam(userID).Where("tasks.id = ?", taskID))
}

// IsWatcher reports whether the user watches the task
func (r *GormVisibilityRepository) IsWatcher(ctx context.Context, userID, taskID string) (bool, error) {
	return r.exists(ctx, r.watched(userID).Where("tasks.id = ?", taskID))
}

// IsMentioned reports whether the user is mentioned in any comment on the task
func (r *GormVisibilityRepository) IsMentioned(ctx context.Context, userID, taskID string) (bool, error) {
	return r.exists(ctx, r.mentioned(userID).Where("tasks.id = ?", taskID))
}

// AssignedTaskIDs returns the tasks assigned to the user
func (r *GormVisibilityRepository) AssignedTaskIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, r.assigned(userID), "tasks.id")
}

// SubtaskParentIDs returns the parents of subtasks assigned to the user
func (r *GormVisibilityRepository) SubtaskParentIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, r.subtaskAssigned(userID), "tasks.id")
}

// AgencyTeamTaskIDs returns the tasks tagged with an agency one of the user's teams belongs to
func (r *GormVisibilityRepository) AgencyTeamTaskIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, r.agencyTeam(userID), "tasks.id")
}

// WatchedTaskIDs returns the tasks the user watches
func (r *GormVisibilityRepository) WatchedTaskIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, r.watched(userID), "tasks.id")
}

// MentionedTaskIDs returns the tasks with a comment mentioning the user
func (r *GormVisibilityRepository) MentionedTaskIDs(ctx context.Context, userID string) ([]string, error) {
	return r.pluck(ctx, r.mentioned(userID), "tasks.id")
}

// ProjectIDsForTasks returns the distinct non-null project IDs of tasks
func (r *GormVisibilityRepository) ProjectIDsForTasks(ctx context.Context, taskIDs []string) ([]string, error) {
	if len(taskIDs) == 0 {
		return []string{}, nil
	}
	query := r.db.Table("tasks").Where("tasks.id IN ? AND tasks.project_id IS NOT NULL", taskIDs)
	return r.pluck(ctx, query, "tasks.project_id")
}

// ProductIDsForTasks returns the distinct non-null product IDs of tasks
func (r *GormVisibilityRepository) ProductIDsForTasks(ctx context.Context, taskIDs []string) ([]string, error) {
	if len(taskIDs) == 0 {
		return []string{}, nil
	}
	query := r.db.Table("tasks").Where("tasks.id IN ? AND tasks.product_id IS NOT NULL", taskIDs)
	return r.pluck(ctx, query, "tasks.product_id")
}
