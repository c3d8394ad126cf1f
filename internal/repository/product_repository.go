package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository is a GORM implementation of ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// Create creates a new product
func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// FindByID finds a product by ID with optional preloading
func (r *GormProductRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Product, error) {
	var product models.Product
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List retrieves products with filtering and pagination
func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	if filter.RestrictIDs && len(filter.IDs) == 0 {
		return []models.Product{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.RestrictIDs {
		query = query.Where("products.id IN ?", filter.IDs)
	}
	if filter.OwnerID != nil {
		query = query.Where("products.owner_id = ?", *filter.OwnerID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("products.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("products.created_at <= ?", *filter.CreatedTo)
	}
	if !filter.IncludeArchived {
		query = query.Where("products.is_archived = ?", false)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = query.Where(searchClause(r.db, []string{"products.name", "products.description"}, term))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	if sortBy == "priority_order" {
		sortBy = "created_at"
	}
	listQuery := query.Order(catalogOrder("products", sortBy, filter.SortAsc))
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	products := []models.Product{}
	if err := listQuery.Preload("Owner").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Updates applies a partial update to a product
func (r *GormProductRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a product, detaching its projects and tasks
func (r *GormProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("product_id = ?", id).Update("product_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
