package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     *string        `gorm:"type:varchar(36);index" json:"user_id"`
	Action     string         `gorm:"type:varchar(100);not null" json:"action"`
	EntityType string         `gorm:"type:varchar(100);not null;index" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(36)" json:"entity_id"`
	Metadata   map[string]any `gorm:"serializer:json;type:text" json:"metadata"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
