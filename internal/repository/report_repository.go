package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReportRepository is a GORM implementation of ReportRepository
type GormReportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &GormReportRepository{db: db}
}

// Create creates a report and its queries
func (r *GormReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(report).Error; err != nil {
			return err
		}
		return insertQueries(tx, report.ID, report.Queries)
	})
}

func insertQueries(tx *gorm.DB, reportID string, queries []models.ReportQuery) error {
	if len(queries) == 0 {
		return nil
	}
	for i := range queries {
		queries[i].ReportID = reportID
		if queries[i].SortOrder == 0 {
			queries[i].SortOrder = i
		}
	}
	return tx.Create(&queries).Error
}

// FindByID finds a report with its queries and creator
func (r *GormReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Queries", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListCandidates lists reports the user created or that are shared
func (r *GormReportRepository) ListCandidates(ctx context.Context, userID string) ([]models.Report, error) {
	reports := []models.Report{}
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("created_by = ? OR is_shared = ?", userID, true).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

// Update saves report fields and, when queries is non-nil, replaces its queries
func (r *GormReportRepository) Update(ctx context.Context, report *models.Report, queries []models.ReportQuery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Report{}).
			Where("id = ?", report.ID).
			Select("name", "description", "is_template", "is_shared", "shared_with_roles").
			Updates(report).Error
		if err != nil {
			return err
		}
		if queries == nil {
			return nil
		}
		if err := tx.Where("report_id = ?", report.ID).Delete(&models.ReportQuery{}).Error; err != nil {
			return err
		}
		return insertQueries(tx, report.ID, queries)
	})
}

// Delete removes a report and its queries
func (r *GormReportRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", id).Delete(&models.ReportQuery{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Report{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GormWidgetReportRepository is a GORM implementation of WidgetReportRepository
type GormWidgetReportRepository struct {
	*GormCrudRepository[models.WidgetReport]
	db *gorm.DB
}

// NewWidgetReportRepository creates a new WidgetReportRepository
func NewWidgetReportRepository(db *gorm.DB) WidgetReportRepository {
	return &GormWidgetReportRepository{
		GormCrudRepository: NewCrudRepository[models.WidgetReport](db),
		db:                 db,
	}
}

// ListAccessible lists reports the user created or that are shared, newest first
func (r *GormWidgetReportRepository) ListAccessible(ctx context.Context, userID string) ([]models.WidgetReport, error) {
	reports := []models.WidgetReport{}
	err := r.db.WithContext(ctx).
		Where("created_by = ? OR is_shared = ?", userID, true).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}
