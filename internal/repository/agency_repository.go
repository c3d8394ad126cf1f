package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
)

// GormAgencyRepository is a GORM implementation of AgencyRepository
type GormAgencyRepository struct {
	*GormCrudRepository[models.Agency]
	db *gorm.DB
}

// NewAgencyRepository creates a new AgencyRepository
func NewAgencyRepository(db *gorm.DB) AgencyRepository {
	return &GormAgencyRepository{
		GormCrudRepository: NewCrudRepository[models.Agency](db),
		db:                 db,
	}
}

// Delete removes an agency and its task tags. Its teams stay, detached.
func (r *GormAgencyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Team{}).Where("agency_id = ?", id).Update("agency_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("agency_id = ?", id).Delete(&models.TaskAgency{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Agency{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GormLabelRepository is a GORM implementation of LabelRepository
type GormLabelRepository struct {
	*GormCrudRepository[models.Label]
	db *gorm.DB
}

// NewLabelRepository creates a new LabelRepository
func NewLabelRepository(db *gorm.DB) LabelRepository {
	return &GormLabelRepository{
		GormCrudRepository: NewCrudRepository[models.Label](db),
		db:                 db,
	}
}

// Delete removes a label and untags every task and project carrying it
func (r *GormLabelRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, assoc := range []any{&models.TaskLabel{}, &models.ProjectLabel{}} {
			if err := tx.Where("label_id = ?", id).Delete(assoc).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Label{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
