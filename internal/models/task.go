package models

import (
	"encoding/json"
	"time"
)

type Task struct {
	Base
	ProjectID    *string `gorm:"type:varchar(36);index" json:"project_id"`
	ProductID    *string `gorm:"type:varchar(36);index" json:"product_id"`
	ParentTaskID *string `gorm:"type:varchar(36);index" json:"parent_task_id"`
	Title        string  `gorm:"type:varchar(500);not null" json:"title"`
	Description  *string `gorm:"type:text" json:"description"`
	AssigneeID   *string `gorm:"type:varchar(36);index" json:"assignee_id"`
	StatusID     *string `gorm:"type:varchar(36)" json:"status_id"`
	// StatusName mirrors the referenced status name so reports can group on it.
	StatusName     string     `gorm:"column:status;type:varchar(100)" json:"status_name"`
	Priority       int        `gorm:"not null;default:0" json:"priority"`
	PriorityOrder  *int       `json:"priority_order"`
	DueDate        *time.Time `json:"due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	ActualHours    *float64   `json:"actual_hours"`
	IsArchived     bool       `gorm:"not null;default:false" json:"is_archived"`
	CreatedBy      string     `gorm:"type:varchar(36);not null" json:"created_by"`

	// Relations
	Project  *Project  `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Product  *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Status   *Status   `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Creator  *User     `gorm:"foreignKey:CreatedBy" json:"created_by_user,omitempty"`
	Labels   []Label   `gorm:"many2many:task_labels" json:"labels,omitempty"`
	Agencies []Agency  `gorm:"many2many:task_agencies" json:"agencies,omitempty"`
	Teams    []Team    `gorm:"many2many:task_teams" json:"teams,omitempty"`
	Watchers []Watcher `gorm:"foreignKey:TaskID" json:"watchers,omitempty"`
	Subtasks []Task    `gorm:"foreignKey:ParentTaskID" json:"subtasks,omitempty"`
}

// TaskSummary is the short form of a parent task shown on subtasks.
type TaskSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type TaskAgency struct {
	TaskID   string `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	AgencyID string `gorm:"type:varchar(36);primaryKey;index" json:"agency_id"`
}

type TaskTeam struct {
	TaskID string `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	TeamID string `gorm:"type:varchar(36);primaryKey;index" json:"team_id"`
}

type TaskLabel struct {
	TaskID  string `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	LabelID string `gorm:"type:varchar(36);primaryKey" json:"label_id"`
}

type Watcher struct {
	TaskID    string    `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	UserID    string    `gorm:"type:varchar(36);primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type ChecklistItem struct {
	Base
	TaskID      string     `gorm:"type:varchar(36);not null;index" json:"task_id"`
	Title       string     `gorm:"type:varchar(500);not null" json:"title"`
	OrderIndex  int        `gorm:"not null;default:0" json:"order_index"`
	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *string    `gorm:"type:varchar(36)" json:"completed_by"`
}

// TaskCustomFieldValue holds one custom field value of a task. Value is any
// JSON document; its shape follows the field type.
type TaskCustomFieldValue struct {
	TaskID        string          `gorm:"type:varchar(36);primaryKey" json:"task_id"`
	CustomFieldID string          `gorm:"type:varchar(36);primaryKey" json:"custom_field_id"`
	Value         json.RawMessage `gorm:"serializer:json;type:text" json:"value"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	CustomField *CustomField `gorm:"foreignKey:CustomFieldID" json:"custom_field,omitempty"`
}
