package models

import "time"

type NotificationType string

const (
	NotificationAssignment   NotificationType = "assignment"
	NotificationMention      NotificationType = "mention"
	NotificationStatusChange NotificationType = "status_change"
	NotificationSLAAlert     NotificationType = "sla_alert"
	NotificationApproval     NotificationType = "approval"
	NotificationComment      NotificationType = "comment"
	NotificationAutomation   NotificationType = "automation"
	NotificationWatcher      NotificationType = "watcher"
)

type EmailSettings struct {
	Base
	Provider     string `gorm:"type:varchar(50);not null;default:'smtp'" json:"provider"`
	SMTPHost     string `gorm:"column:smtp_host;type:varchar(255)" json:"smtp_host"`
	SMTPPort     int    `gorm:"column:smtp_port" json:"smtp_port"`
	SMTPUser     string `gorm:"column:smtp_user;type:varchar(255)" json:"smtp_user"`
	SMTPPassword string `gorm:"column:smtp_password;type:varchar(255)" json:"-"`
	SMTPSecure   bool   `gorm:"column:smtp_secure;not null;default:false" json:"smtp_secure"`
	FromEmail    string `gorm:"type:varchar(255)" json:"from_email"`
	FromName     string `gorm:"type:varchar(255)" json:"from_name"`
}

// Usable reports whether the row carries enough to open an SMTP session.
func (s *EmailSettings) Usable() bool {
	return s != nil && s.SMTPHost != "" && s.SMTPUser != ""
}

type NotificationTemplate struct {
	Base
	Name             string           `gorm:"type:varchar(255);not null" json:"name"`
	NotificationType NotificationType `gorm:"type:varchar(50);not null;index" json:"notification_type"`
	SubjectTemplate  string           `gorm:"type:text;not null" json:"subject_template"`
	BodyTemplate     string           `gorm:"type:text;not null" json:"body_template"`
	IsActive         bool             `gorm:"not null;default:true" json:"is_active"`
}

type Notification struct {
	Base
	RecipientID      string           `gorm:"type:varchar(36);not null;index" json:"recipient_id"`
	NotificationType NotificationType `gorm:"type:varchar(50);not null" json:"notification_type"`
	Subject          string           `gorm:"type:text;not null" json:"subject"`
	Body             string           `gorm:"type:text;not null" json:"body"`
	EntityType       *string          `gorm:"type:varchar(100)" json:"entity_type"`
	EntityID         *string          `gorm:"type:varchar(36)" json:"entity_id"`
	SentAt           *time.Time       `json:"sent_at"`
}

// UserNotificationSettings holds per-user opt-outs. A missing row means
// every notification type is enabled.
type UserNotificationSettings struct {
	UserID                string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	EnableAssignment      bool      `json:"enable_assignment"`
	EnableMentions        bool      `json:"enable_mentions"`
	EnableSLAAlerts       bool      `gorm:"column:enable_sla_alerts" json:"enable_sla_alerts"`
	EnableApprovalChanges bool      `json:"enable_approval_changes"`
	EnableStatusChanges   bool      `json:"enable_status_changes"`
	EnableComments        bool      `json:"enable_comments"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Allows reports whether a notification of type t may be sent.
func (s *UserNotificationSettings) Allows(t NotificationType) bool {
	if s == nil {
		return true
	}
	switch t {
	case NotificationAssignment:
		return s.EnableAssignment
	case NotificationMention:
		return s.EnableMentions
	case NotificationSLAAlert:
		return s.EnableSLAAlerts
	case NotificationApproval:
		return s.EnableApprovalChanges
	case NotificationStatusChange:
		return s.EnableStatusChanges
	case NotificationComment:
		return s.EnableComments
	default:
		return true
	}
}

type EmailLogStatus string

const (
	EmailLogSent   EmailLogStatus = "sent"
	EmailLogFailed EmailLogStatus = "failed"
)

type EmailLog struct {
	Base
	NotificationID *string        `gorm:"type:varchar(36);index" json:"notification_id"`
	RecipientEmail string         `gorm:"type:varchar(255);not null" json:"recipient_email"`
	Subject        string         `gorm:"type:text" json:"subject"`
	Status         EmailLogStatus `gorm:"type:varchar(20);not null" json:"status"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	SentAt         *time.Time     `json:"sent_at"`
}
