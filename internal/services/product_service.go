package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var ErrProductNotFound = errors.New("product not found")

// ProductService handles product business logic
type ProductService struct {
	repo       repository.ProductRepository
	visibility *VisibilityService
	audit      *AuditService
}

// NewProductService creates a new ProductService
func NewProductService(repo repository.ProductRepository, visibility *VisibilityService, audit *AuditService) *ProductService {
	return &ProductService{repo: repo, visibility: visibility, audit: audit}
}

// ListProducts returns products matching filter. External Agency principals
// only see products of their visible tasks.
func (s *ProductService) ListProducts(ctx context.Context, principal *models.User, filter repository.ProductFilter) ([]models.Product, int64, error) {
	scope, err := s.visibility.Scope(ctx, principal, ScopeProducts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve product visibility: %w", err)
	}
	filter.RestrictIDs = scope.Restricted
	filter.IDs = scope.IDs

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns a product with its owner
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id, "Owner")
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, "find product")
	}
	return product, nil
}

// GetProductFor returns a product the principal may see. A product outside
// an External Agency principal's scope reads as missing.
func (s *ProductService) GetProductFor(ctx context.Context, principal *models.User, id string) (*models.Product, error) {
	scope, err := s.visibility.Scope(ctx, principal, ScopeProducts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product visibility: %w", err)
	}
	if !scope.Allows(id) {
		return nil, ErrProductNotFound
	}
	return s.GetProduct(ctx, id)
}

// CreateProductInput represents input for creating a product
type CreateProductInput struct {
	Name        string
	Description *string
	OwnerID     *string
	ActorID     string
}

// CreateProduct creates a product owned by the actor unless another owner is given
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	product := &models.Product{
		Name:        name,
		Description: input.Description,
		OwnerID:     input.OwnerID,
	}
	if product.OwnerID == nil {
		product.OwnerID = &input.ActorID
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.audit.Log(ctx, input.ActorID, AuditCreate, "product", product.ID, map[string]any{"name": name})

	return s.GetProduct(ctx, product.ID)
}

// UpdateProductInput represents input for updating a product
type UpdateProductInput struct {
	Name        utils.Optional[string] `json:"name"`
	Description utils.Optional[string] `json:"description"`
	OwnerID     utils.Optional[string] `json:"owner_id"`
	IsArchived  utils.Optional[bool]   `json:"is_archived"`
}

// UpdateProduct applies a partial update
func (s *ProductService) UpdateProduct(ctx context.Context, id, actorID string, input UpdateProductInput) (*models.Product, error) {
	fields := map[string]any{}
	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, ErrNameRequired
		}
		fields["name"] = strings.TrimSpace(*input.Name.Value)
	}
	setColumn(fields, "description", input.Description)
	setColumn(fields, "owner_id", input.OwnerID)
	if input.IsArchived.Value != nil {
		fields["is_archived"] = *input.IsArchived.Value
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, ErrProductNotFound, "find product")
	}
	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "product", id, nil)

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product; its projects and tasks are kept without one
func (s *ProductService) DeleteProduct(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound, "delete product")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "product", id, nil)
	return nil
}
