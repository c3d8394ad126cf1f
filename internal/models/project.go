package models

import "time"

type Product struct {
	Base
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	OwnerID     *string `gorm:"type:varchar(36)" json:"owner_id"`
	IsArchived  bool    `gorm:"not null;default:false" json:"is_archived"`

	// Relations
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

type ProjectStatus string

const (
	ProjectOngoing   ProjectStatus = "ongoing"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectBlocked   ProjectStatus = "blocked"
	ProjectDone      ProjectStatus = "done"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project lifecycle status.
var ProjectStatuses = []ProjectStatus{ProjectOngoing, ProjectOnHold, ProjectBlocked, ProjectDone, ProjectCancelled}

// Finished reports whether the project no longer needs a priority slot.
func (s ProjectStatus) Finished() bool {
	return s == ProjectDone || s == ProjectCancelled
}

type Project struct {
	Base
	ProductID     *string       `gorm:"type:varchar(36);index" json:"product_id"`
	Name          string        `gorm:"type:varchar(255);not null" json:"name"`
	Description   *string       `gorm:"type:text" json:"description"`
	OwnerID       *string       `gorm:"type:varchar(36)" json:"owner_id"`
	Status        ProjectStatus `gorm:"type:varchar(32);not null;default:'ongoing'" json:"status"`
	StartDate     *time.Time    `json:"start_date"`
	EndDate       *time.Time    `json:"end_date"`
	PriorityOrder *int          `json:"priority_order"`
	IsArchived    bool          `gorm:"not null;default:false" json:"is_archived"`

	// Relations
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Labels  []Label  `gorm:"many2many:project_labels" json:"labels,omitempty"`
	Teams   []Team   `gorm:"many2many:project_teams" json:"teams,omitempty"`
}

type ProjectLabel struct {
	ProjectID string `gorm:"type:varchar(36);primaryKey" json:"project_id"`
	LabelID   string `gorm:"type:varchar(36);primaryKey" json:"label_id"`
}

type ProjectTeam struct {
	ProjectID string `gorm:"type:varchar(36);primaryKey" json:"project_id"`
	TeamID    string `gorm:"type:varchar(36);primaryKey" json:"team_id"`
}

// ProjectStatusDefinition is an admin-managed project status. Projects
// store the Slug in their Status column.
type ProjectStatusDefinition struct {
	Base
	Name        string  `gorm:"type:varchar(100);not null" json:"name"`
	Slug        string  `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Color       string  `gorm:"type:varchar(20);not null;default:'#6B7280'" json:"color"`
	Description *string `gorm:"type:text" json:"description"`
	OrderIndex  int     `gorm:"not null;default:0" json:"order_index"`
	IsDefault   bool    `gorm:"not null;default:false" json:"is_default"`
	IsClosed    bool    `gorm:"not null;default:false" json:"is_closed"`
}

func (ProjectStatusDefinition) TableName() string {
	return "project_statuses"
}
