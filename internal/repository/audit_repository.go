package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create appends an entry to the audit trail
func (r *GormAuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List browses the audit trail, newest first
func (r *GormAuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})

	if actor := strings.TrimSpace(filter.Actor); actor != "" {
		emailMatches := r.db.Model(&models.User{}).
			Select("id").
			Where("LOWER(email) LIKE ?", "%"+strings.ToLower(actor)+"%")
		query = query.Where("audit_logs.user_id = ? OR audit_logs.user_id IN (?)", actor, emailMatches)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		listQuery = listQuery.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	logs := []models.AuditLog{}
	if err := listQuery.Preload("User").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
