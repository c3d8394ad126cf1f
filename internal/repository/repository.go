package repository

import (
	"context"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Search lists users matching the filter
	Search(ctx context.Context, filter UserFilter) ([]models.User, error)

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id string, role models.Role) error

	// Deactivate marks a user inactive
	Deactivate(ctx context.Context, id string) error
}

// UserFilter holds filtering options for searching users
type UserFilter struct {
	Search     string
	Role       *models.Role
	ActiveOnly bool
	Limit      int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListSubtasks lists the direct subtasks of a task, oldest first
	ListSubtasks(ctx context.Context, parentID string, preload ...string) ([]models.Task, error)

	// Updates applies a partial update to a task
	Updates(ctx context.Context, id string, fields map[string]any) error

	// Delete removes a task, its subtasks and every association row
	Delete(ctx context.Context, id string) error

	// AddLabels tags a task with labels
	AddLabels(ctx context.Context, taskID string, labelIDs []string) error

	// ListLabels lists the labels on a task
	ListLabels(ctx context.Context, taskID string) ([]models.Label, error)

	// AddLabel tags a task with one label
	AddLabel(ctx context.Context, taskID, labelID string) error

	// RemoveLabel untags a task
	RemoveLabel(ctx context.Context, taskID, labelID string) error

	// AddAgencies tags a task with agencies
	AddAgencies(ctx context.Context, taskID string, agencyIDs []string) error

	// ReplaceAgencies drops the task's agencies and inserts the given ones
	ReplaceAgencies(ctx context.Context, taskID string, agencyIDs []string) error

	// AddTeams tags a task with teams
	AddTeams(ctx context.Context, taskID string, teamIDs []string) error

	// ReplaceTeams drops the task's teams and inserts the given ones
	ReplaceTeams(ctx context.Context, taskID string, teamIDs []string) error

	// AddWatchers registers watchers, ignoring ones already watching
	AddWatchers(ctx context.Context, taskID string, userIDs []string) error

	// RemoveWatcher unregisters a watcher
	RemoveWatcher(ctx context.Context, taskID, userID string) error

	// ListWatchers lists the watchers of a task with their users
	ListWatchers(ctx context.Context, taskID string) ([]models.Watcher, error)

	// IsWatching reports whether a user watches a task
	IsWatching(ctx context.Context, taskID, userID string) (bool, error)

	// UpdatePriorityOrder sets the manual ordering slot of a task
	UpdatePriorityOrder(ctx context.Context, id string, order *int) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID   *string
	ProductID   *string
	StatusID    *string
	AssigneeID  *string
	AgencyID    *string
	TeamID      *string
	Priority    *int
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time

	// RestrictIDs limits the result to IDs, even when IDs is empty.
	RestrictIDs bool
	IDs         []string

	TopLevelOnly bool
	SortBy       string
	SortAsc      bool
	Page         int
	PageSize     int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string, preload ...string) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)
	Updates(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	UpdatePriorityOrder(ctx context.Context, id string, order *int) error

	// TaskProgress counts top-level tasks per project and how many are closed
	TaskProgress(ctx context.Context, projectIDs []string) (map[string]TaskProgress, error)

	ListLabels(ctx context.Context, projectID string) ([]models.Label, error)
	AddLabel(ctx context.Context, projectID, labelID string) error
	RemoveLabel(ctx context.Context, projectID, labelID string) error
	ListTeams(ctx context.Context, projectID string) ([]models.Team, error)
	AddTeams(ctx context.Context, projectID string, teamIDs []string) error
	RemoveTeam(ctx context.Context, projectID, teamID string) error

	// CountWithStatus counts the projects whose status is slug
	CountWithStatus(ctx context.Context, slug string) (int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	ProductID       *string
	OwnerID         *string
	Status          *models.ProjectStatus
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Search          string
	IncludeArchived bool
	RestrictIDs     bool
	IDs             []string
	SortBy          string
	SortAsc         bool
	Page            int
	PageSize        int
}

// TaskProgress summarises the tasks of one project
type TaskProgress struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id string, preload ...string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Updates(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// ProductFilter holds filtering options for listing products
type ProductFilter struct {
	OwnerID         *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Search          string
	IncludeArchived bool
	RestrictIDs     bool
	IDs             []string
	SortBy          string
	SortAsc         bool
	Page            int
	PageSize        int
}

// TeamRepository defines the interface for team and membership data access
type TeamRepository interface {
	CrudRepository[models.Team]

	// AddMember adds a user to a team, ignoring an existing membership
	AddMember(ctx context.Context, teamID, userID string) error

	// RemoveMember removes a user from a team
	RemoveMember(ctx context.Context, teamID, userID string) error

	// ListMembers lists the members of a team with their users
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)

	// ListForUser lists the teams a user belongs to
	ListForUser(ctx context.Context, userID string) ([]models.Team, error)

	// IsMember reports whether a user belongs to a team
	IsMember(ctx context.Context, teamID, userID string) (bool, error)

	// CountByIDs counts how many of ids exist
	CountByIDs(ctx context.Context, ids []string) (int64, error)
}

// AgencyRepository defines the interface for agency data access
type AgencyRepository interface {
	CrudRepository[models.Agency]
}

// LabelRepository defines the interface for label data access
type LabelRepository interface {
	CrudRepository[models.Label]
}

// StatusRepository defines the interface for workflow status data access
type StatusRepository interface {
	CrudRepository[models.Status]

	// FindDefault returns the status flagged as default
	FindDefault(ctx context.Context) (*models.Status, error)
}

// ProjectStatusRepository defines the interface for project status data access
type ProjectStatusRepository interface {
	CrudRepository[models.ProjectStatusDefinition]

	// Slugs lists every configured slug in display order
	Slugs(ctx context.Context) ([]string, error)

	// FindDefault returns the status flagged as default
	FindDefault(ctx context.Context) (*models.ProjectStatusDefinition, error)
}

// ChecklistRepository defines the interface for task checklist data access
type ChecklistRepository interface {
	CrudRepository[models.ChecklistItem]

	// NextOrderIndex returns the slot after the task's last item
	NextOrderIndex(ctx context.Context, taskID string) (int, error)

	// Reorder moves the listed items of a task atomically
	Reorder(ctx context.Context, taskID string, order []ChecklistOrder) error
}

// ChecklistOrder moves one checklist item to a slot
type ChecklistOrder struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"order_index"`
}

// FieldValueRepository defines the interface for task custom field values
type FieldValueRepository interface {
	// ListByTask lists a task's values with their field definitions
	ListByTask(ctx context.Context, taskID string) ([]models.TaskCustomFieldValue, error)

	// Upsert creates or replaces values keyed by task and field
	Upsert(ctx context.Context, values []models.TaskCustomFieldValue) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a comment together with its mention rows
	Create(ctx context.Context, comment *models.Comment, mentionIDs []string) error

	// ListByTask lists a task's comments, oldest first, with authors and mentions
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)

	// FindForTask finds a comment that belongs to the given task
	FindForTask(ctx context.Context, taskID, commentID string) (*models.Comment, error)

	// Delete removes a comment and its mentions
	Delete(ctx context.Context, commentID string) error
}

// ReportRepository defines the interface for saved report data access
type ReportRepository interface {
	// Create creates a report and its queries
	Create(ctx context.Context, report *models.Report) error

	// FindByID finds a report with its queries and creator
	FindByID(ctx context.Context, id string) (*models.Report, error)

	// ListCandidates lists reports the user created or that are shared
	ListCandidates(ctx context.Context, userID string) ([]models.Report, error)

	// Update saves report fields and, when queries is non-nil, replaces its queries
	Update(ctx context.Context, report *models.Report, queries []models.ReportQuery) error

	// Delete removes a report and its queries
	Delete(ctx context.Context, id string) error
}

// WidgetReportRepository defines the interface for widget report data access
type WidgetReportRepository interface {
	CrudRepository[models.WidgetReport]

	// ListAccessible lists reports the user created or that are shared, newest first
	ListAccessible(ctx context.Context, userID string) ([]models.WidgetReport, error)
}

// AuditLogRepository defines the interface for audit trail data access
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
}

// AuditLogFilter holds filtering options for browsing the audit trail
type AuditLogFilter struct {
	// Actor matches a user ID exactly or a user email by substring.
	Actor      string
	UserID     *string
	EntityType *string
	EntityID   *string
	Action     *string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// NotificationRepository defines the interface for email and notification data access
type NotificationRepository interface {
	// EmailSettings returns the single email settings row
	EmailSettings(ctx context.Context) (*models.EmailSettings, error)

	// SaveEmailSettings creates or replaces the email settings row
	SaveEmailSettings(ctx context.Context, settings *models.EmailSettings) error

	// ActiveTemplate finds the active template for a notification type
	ActiveTemplate(ctx context.Context, t models.NotificationType) (*models.NotificationTemplate, error)

	// ListTemplates lists every template
	ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error)

	// UpdateTemplate applies a partial update to a template
	UpdateTemplate(ctx context.Context, id string, fields map[string]any) error

	// Preferences returns a user's notification settings
	Preferences(ctx context.Context, userID string) (*models.UserNotificationSettings, error)

	// CreateNotification stores a notification
	CreateNotification(ctx context.Context, n *models.Notification) error

	// MarkSent stamps a notification as delivered
	MarkSent(ctx context.Context, id string, at time.Time) error

	// CreateEmailLog records a delivery attempt
	CreateEmailLog(ctx context.Context, entry *models.EmailLog) error
}

// VisibilityRepository answers the agency visibility predicates. Check
// methods answer for one task, collect methods return every matching task ID.
type VisibilityRepository interface {
	IsAssignee(ctx context.Context, userID, taskID string) (bool, error)
	IsSubtaskAssignee(ctx context.Context, userID, taskID string) (bool, error)
	IsAgencyTeamMember(ctx context.Context, userID, taskID string) (bool, error)
	IsWatcher(ctx context.Context, userID, taskID string) (bool, error)
	IsMentioned(ctx context.Context, userID, taskID string) (bool, error)

	AssignedTaskIDs(ctx context.Context, userID string) ([]string, error)
	SubtaskParentIDs(ctx context.Context, userID string) ([]string, error)
	AgencyTeamTaskIDs(ctx context.Context, userID string) ([]string, error)
	WatchedTaskIDs(ctx context.Context, userID string) ([]string, error)
	MentionedTaskIDs(ctx context.Context, userID string) ([]string, error)

	// ProjectIDsForTasks returns the distinct non-null project IDs of tasks
	ProjectIDsForTasks(ctx context.Context, taskIDs []string) ([]string, error)

	// ProductIDsForTasks returns the distinct non-null product IDs of tasks
	ProductIDsForTasks(ctx context.Context, taskIDs []string) ([]string, error)
}
