package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// ProductHandler serves products
type ProductHandler struct {
	products *services.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts returns products visible to the current user
func (h *ProductHandler) ListProducts(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var query dto.ProductQuery
	if !bindQuery(c, &query) {
		return
	}
	params := utils.GetPaginationParams(c)
	filter, err := query.Filter(params)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	products, total, err := h.products.ListProducts(c.Request.Context(), user, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Paged(c, products, params, total)
}

// GetProduct returns one product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	product, err := h.products.GetProductFor(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, product)
}

// CreateProduct creates a product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), req.Input(user.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, product)
}

// UpdateProduct applies a partial update
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input services.UpdateProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), c.Param("id"), user.ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, product)
}

// DeleteProduct deletes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "Product deleted successfully")
}
