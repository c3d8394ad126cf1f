package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// EmailSettings returns the single email settings row
func (r *GormNotificationRepository) EmailSettings(ctx context.Context) (*models.EmailSettings, error) {
	var settings models.EmailSettings
	if err := r.db.WithContext(ctx).Order("created_at ASC").First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveEmailSettings creates or replaces the email settings row
func (r *GormNotificationRepository) SaveEmailSettings(ctx context.Context, settings *models.EmailSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.EmailSettings
		err := tx.Order("created_at ASC").First(&existing).Error
		switch {
		case err == nil:
			settings.ID = existing.ID
			settings.CreatedAt = existing.CreatedAt
			return tx.Save(settings).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(settings).Error
		default:
			return err
		}
	})
}

// ActiveTemplate finds the active template for a notification type
func (r *GormNotificationRepository) ActiveTemplate(ctx context.Context, t models.NotificationType) (*models.NotificationTemplate, error) {
	var template models.NotificationTemplate
	err := r.db.WithContext(ctx).
		Where("notification_type = ? AND is_active = ?", t, true).
		Order("created_at ASC").
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListTemplates lists every template
func (r *GormNotificationRepository) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	templates := []models.NotificationTemplate{}
	err := r.db.WithContext(ctx).Order("notification_type ASC, name ASC").Find(&templates).Error
	return templates, err
}

// UpdateTemplate applies a partial update to a template
func (r *GormNotificationRepository) UpdateTemplate(ctx context.Context, id string, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.NotificationTemplate{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Preferences returns a user's notification settings
func (r *GormNotificationRepository) Preferences(ctx context.Context, userID string) (*models.UserNotificationSettings, error) {
	var settings models.UserNotificationSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// CreateNotification stores a notification
func (r *GormNotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// MarkSent stamps a notification as delivered
func (r *GormNotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("sent_at", at).Error
}

// CreateEmailLog records a delivery attempt
func (r *GormNotificationRepository) CreateEmailLog(ctx context.Context, entry *models.EmailLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
