package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectStatusRepository is a GORM implementation of ProjectStatusRepository
type GormProjectStatusRepository struct {
	*GormCrudRepository[models.ProjectStatusDefinition]
	db *gorm.DB
}

// NewProjectStatusRepository creates a new ProjectStatusRepository
func NewProjectStatusRepository(db *gorm.DB) ProjectStatusRepository {
	return &GormProjectStatusRepository{
		GormCrudRepository: NewCrudRepository[models.ProjectStatusDefinition](db),
		db:                 db,
	}
}

// Create stores a status. A new default status takes the flag from the others.
func (r *GormProjectStatusRepository) Create(ctx context.Context, status *models.ProjectStatusDefinition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status.IsDefault {
			if err := clearDefault(tx, ""); err != nil {
				return err
			}
		}
		return tx.Create(status).Error
	})
}

// Updates applies a partial update. Becoming default clears the flag on the
// others, and a new slug is carried over to the projects using the old one.
func (r *GormProjectStatusRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ProjectStatusDefinition
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if isDefault, ok := fields["is_default"].(bool); ok && isDefault {
			if err := clearDefault(tx, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.ProjectStatusDefinition{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		slug, ok := fields["slug"].(string)
		if !ok || slug == current.Slug {
			return nil
		}
		return tx.Model(&models.Project{}).Where("status = ?", current.Slug).Update("status", slug).Error
	})
}

func clearDefault(tx *gorm.DB, exceptID string) error {
	query := tx.Model(&models.ProjectStatusDefinition{}).Where("is_default = ?", true)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	return query.Update("is_default", false).Error
}

// Slugs lists every configured slug in display order
func (r *GormProjectStatusRepository) Slugs(ctx context.Context) ([]string, error) {
	slugs := []string{}
	err := r.db.WithContext(ctx).Model(&models.ProjectStatusDefinition{}).
		Order("order_index ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

// FindDefault returns the status flagged as default
func (r *GormProjectStatusRepository) FindDefault(ctx context.Context) (*models.ProjectStatusDefinition, error) {
	var status models.ProjectStatusDefinition
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("order_index ASC").
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}
