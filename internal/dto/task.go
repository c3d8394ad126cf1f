package dto

import (
	"time"

	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// TaskQuery is the query string of the task listing
type TaskQuery struct {
	ProjectID   string `form:"project_id"`
	ProductID   string `form:"product_id"`
	StatusID    string `form:"status_id"`
	AssigneeID  string `form:"assignee_id"`
	AgencyID    string `form:"agency_id"`
	TeamID      string `form:"team_id"`
	Priority    *int   `form:"priority"`
	DueDateFrom string `form:"due_date_from"`
	DueDateTo   string `form:"due_date_to"`
	CreatedFrom string `form:"created_from"`
	CreatedTo   string `form:"created_to"`
	SortBy      string `form:"sort_by"`
	SortOrder   string `form:"sort_order"`
}

// Filter converts the query into a repository filter for one page
func (q TaskQuery) Filter(params utils.PaginationParams) (repository.TaskFilter, error) {
	due, err := parseRange("due_date_from", q.DueDateFrom, "due_date_to", q.DueDateTo)
	if err != nil {
		return repository.TaskFilter{}, err
	}
	created, err := parseRange("created_from", q.CreatedFrom, "created_to", q.CreatedTo)
	if err != nil {
		return repository.TaskFilter{}, err
	}
	return repository.TaskFilter{
		ProjectID:    optionalString(q.ProjectID),
		ProductID:    optionalString(q.ProductID),
		StatusID:     optionalString(q.StatusID),
		AssigneeID:   optionalString(q.AssigneeID),
		AgencyID:     optionalString(q.AgencyID),
		TeamID:       optionalString(q.TeamID),
		Priority:     q.Priority,
		DueDateFrom:  due.from,
		DueDateTo:    due.to,
		CreatedFrom:  created.from,
		CreatedTo:    created.to,
		TopLevelOnly: true,
		SortBy:       q.SortBy,
		SortAsc:      ascending(q.SortOrder, false),
		Page:         params.Page,
		PageSize:     params.Limit,
	}, nil
}

// CreateTaskRequest is the body of task and subtask creation. There is no
// product_id: a task's product is always its project's.
type CreateTaskRequest struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	ProjectID      *string    `json:"project_id"`
	AssigneeID     *string    `json:"assignee_id"`
	StatusID       *string    `json:"status_id"`
	Priority       *int       `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	LabelIDs       []string   `json:"label_ids"`
	AgencyIDs      []string   `json:"agency_ids"`
	TeamIDs        []string   `json:"team_ids"`
	WatcherIDs     []string   `json:"watcher_ids"`
}

// Input converts the request for the task service
func (r CreateTaskRequest) Input(creatorID string) services.CreateTaskInput {
	return services.CreateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		ProjectID:      r.ProjectID,
		AssigneeID:     r.AssigneeID,
		StatusID:       r.StatusID,
		Priority:       r.Priority,
		DueDate:        r.DueDate,
		EstimatedHours: r.EstimatedHours,
		LabelIDs:       r.LabelIDs,
		AgencyIDs:      r.AgencyIDs,
		TeamIDs:        r.TeamIDs,
		WatcherIDs:     r.WatcherIDs,
		CreatorID:      creatorID,
	}
}

// UpdateTaskRequest is a partial task update. A field sent as null clears
// the column; an omitted field is left alone.
type UpdateTaskRequest struct {
	Title          utils.Optional[string]    `json:"title"`
	Description    utils.Optional[string]    `json:"description"`
	ProjectID      utils.Optional[string]    `json:"project_id"`
	AssigneeID     utils.Optional[string]    `json:"assignee_id"`
	StatusID       utils.Optional[string]    `json:"status_id"`
	Priority       utils.Optional[int]       `json:"priority"`
	PriorityOrder  utils.Optional[int]       `json:"priority_order"`
	DueDate        utils.Optional[time.Time] `json:"due_date"`
	EstimatedHours utils.Optional[float64]   `json:"estimated_hours"`
	ActualHours    utils.Optional[float64]   `json:"actual_hours"`
	IsArchived     utils.Optional[bool]      `json:"is_archived"`
	AgencyIDs      *[]string                 `json:"agency_ids"`
	TeamIDs        *[]string                 `json:"team_ids"`
}

// Input converts the request for the task service
func (r UpdateTaskRequest) Input() services.UpdateTaskInput {
	return services.UpdateTaskInput{
		Title:          r.Title,
		Description:    r.Description,
		ProjectID:      r.ProjectID,
		AssigneeID:     r.AssigneeID,
		StatusID:       r.StatusID,
		Priority:       r.Priority,
		PriorityOrder:  r.PriorityOrder,
		DueDate:        r.DueDate,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		IsArchived:     r.IsArchived,
		AgencyIDs:      r.AgencyIDs,
		TeamIDs:        r.TeamIDs,
	}
}

// PrioritiesRequest reorders tasks or projects. Priorities must be an
// array; anything else fails to bind.
type PrioritiesRequest struct {
	Priorities *[]services.PriorityUpdate `json:"priorities"`
}

// CommentRequest is the body of comment creation
type CommentRequest struct {
	Content        string   `json:"content"`
	IsInternalOnly bool     `json:"is_internal_only"`
	Mentions       []string `json:"mentions"`
}

// Input converts the request for the comment service
func (r CommentRequest) Input() services.AddCommentInput {
	return services.AddCommentInput{
		Content:        r.Content,
		IsInternalOnly: r.IsInternalOnly,
		Mentions:       r.Mentions,
	}
}

// WatcherRequest names the user to add as a watcher
type WatcherRequest struct {
	UserID string `json:"user_id"`
}

// ChecklistItemRequest is the body of checklist item creation
type ChecklistItemRequest struct {
	Title string `json:"title"`
}

// ChecklistUpdateRequest is a partial checklist item update
type ChecklistUpdateRequest struct {
	Title      utils.Optional[string] `json:"title"`
	IsChecked  utils.Optional[bool]   `json:"is_checked"`
	OrderIndex utils.Optional[int]    `json:"order_index"`
}

// Input converts the request for the checklist service
func (r ChecklistUpdateRequest) Input() services.ChecklistItemInput {
	return services.ChecklistItemInput{
		Title:      r.Title,
		IsChecked:  r.IsChecked,
		OrderIndex: r.OrderIndex,
	}
}

// ChecklistReorderRequest moves checklist items. Like PrioritiesRequest,
// anything but an array fails to bind.
type ChecklistReorderRequest struct {
	Priorities *[]repository.ChecklistOrder `json:"priorities"`
}

// FieldValuesRequest sets custom field values of a task
type FieldValuesRequest struct {
	Values *[]services.FieldValueInput `json:"values"`
}
