package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID primary key and timestamps shared by most tables.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random UUID when the caller did not set one.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every model, in dependency order, for migrations.
func All() []any {
	return []any{
		&User{},
		&Agency{},
		&Team{},
		&TeamMember{},
		&Product{},
		&Project{},
		&ProjectStatusDefinition{},
		&ProjectLabel{},
		&ProjectTeam{},
		&Status{},
		&Label{},
		&Task{},
		&TaskAgency{},
		&TaskTeam{},
		&TaskLabel{},
		&Watcher{},
		&ChecklistItem{},
		&TaskCustomFieldValue{},
		&Comment{},
		&CommentMention{},
		&CustomField{},
		&AuditLog{},
		&Report{},
		&ReportQuery{},
		&WidgetReport{},
		&EmailSettings{},
		&NotificationTemplate{},
		&Notification{},
		&UserNotificationSettings{},
		&EmailLog{},
		&Automation{},
		&ApprovalWorkflow{},
		&SLARule{},
	}
}
