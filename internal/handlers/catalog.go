package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// CatalogHandler serves the CRUD routes of a small catalog entity such as
// labels, statuses or custom fields. I is the request body type.
type CatalogHandler[T any, I any] struct {
	service *services.CatalogService[T]
	build   func(I) (*T, error)
	fields  func(I) (map[string]any, error)
	noun    string
}

// NewCatalogHandler creates a CatalogHandler. build turns a create body
// into an entity, fields turns an update body into column updates.
func NewCatalogHandler[T any, I any](
	service *services.CatalogService[T],
	build func(I) (*T, error),
	fields func(I) (map[string]any, error),
	noun string,
) *CatalogHandler[T, I] {
	return &CatalogHandler[T, I]{
		service: service,
		build:   build,
		fields:  fields,
		noun:    noun,
	}
}

// List returns every entry
func (h *CatalogHandler[T, I]) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, items)
}

// Create creates an entry
func (h *CatalogHandler[T, I]) Create(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input I
	if !bindJSON(c, &input) {
		return
	}
	item, err := h.build(input)
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.service.Create(c.Request.Context(), user.ID, item)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, created)
}

// Update applies a partial update
func (h *CatalogHandler[T, I]) Update(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var input I
	if !bindJSON(c, &input) {
		return
	}
	fields, err := h.fields(input)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), user.ID, fields)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, updated)
}

// Delete deletes an entry
func (h *CatalogHandler[T, I]) Delete(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, h.noun+" deleted successfully")
}
