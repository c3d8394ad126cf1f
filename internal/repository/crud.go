package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// CrudRepository is the plain create/read/update/delete surface shared by
// the catalog entities.
type CrudRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id string, preload ...string) (*T, error)
	List(ctx context.Context, opts ListOptions) ([]T, int64, error)
	Updates(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// ListOptions narrows a CrudRepository listing. Equals keys are column
// names and must come from a fixed set chosen by the caller.
type ListOptions struct {
	Equals        map[string]any
	Search        string
	SearchColumns []string
	Order         string
	Preload       []string
	Page          int
	PageSize      int
}

// GormCrudRepository is a GORM implementation of CrudRepository
type GormCrudRepository[T any] struct {
	db *gorm.DB
}

// NewCrudRepository creates a new CrudRepository for T
func NewCrudRepository[T any](db *gorm.DB) *GormCrudRepository[T] {
	return &GormCrudRepository[T]{db: db}
}

// Create creates a new entity
func (r *GormCrudRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// FindByID finds an entity by ID with optional preloading
func (r *GormCrudRepository[T]) FindByID(ctx context.Context, id string, preload ...string) (*T, error) {
	var entity T
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// List retrieves entities with filtering and pagination
func (r *GormCrudRepository[T]) List(ctx context.Context, opts ListOptions) ([]T, int64, error) {
	query := r.db.WithContext(ctx).Model(new(T))

	for column, value := range opts.Equals {
		query = query.Where(column+" = ?", value)
	}
	if search := strings.TrimSpace(opts.Search); search != "" && len(opts.SearchColumns) > 0 {
		query = query.Where(searchClause(r.db, opts.SearchColumns, search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if opts.Order != "" {
		query = query.Order(opts.Order)
	}
	for _, p := range opts.Preload {
		query = query.Preload(p)
	}
	if opts.Page > 0 && opts.PageSize > 0 {
		query = query.Offset((opts.Page - 1) * opts.PageSize).Limit(opts.PageSize)
	}

	items := []T{}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Updates applies a partial update to an entity
func (r *GormCrudRepository[T]) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields).Error
}

// Delete deletes an entity, reporting gorm.ErrRecordNotFound when nothing matched
func (r *GormCrudRepository[T]) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// searchClause builds a case-insensitive OR match of term across columns.
// LOWER/LIKE keeps it portable across postgres, mysql and sqlite.
func searchClause(db *gorm.DB, columns []string, term string) *gorm.DB {
	pattern := "%" + strings.ToLower(term) + "%"
	cond := db.Session(&gorm.Session{NewDB: true})
	for i, column := range columns {
		expr := "LOWER(" + column + ") LIKE ?"
		if i == 0 {
			cond = cond.Where(expr, pattern)
		} else {
			cond = cond.Or(expr, pattern)
		}
	}
	return cond
}
