package dto

import (
	"time"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// ProjectQuery is the query string of the project listing
type ProjectQuery struct {
	ProductID       string `form:"product_id"`
	OwnerID         string `form:"owner_id"`
	Status          string `form:"status"`
	CreatedFrom     string `form:"created_from"`
	CreatedTo       string `form:"created_to"`
	Search          string `form:"search"`
	IncludeArchived bool   `form:"include_archived"`
	SortBy          string `form:"sort_by"`
	SortOrder       string `form:"sort_order"`
}

// Filter converts the query into a repository filter for one page
func (q ProjectQuery) Filter(params utils.PaginationParams) (repository.ProjectFilter, error) {
	created, err := parseRange("created_from", q.CreatedFrom, "created_to", q.CreatedTo)
	if err != nil {
		return repository.ProjectFilter{}, err
	}
	filter := repository.ProjectFilter{
		ProductID:       optionalString(q.ProductID),
		OwnerID:         optionalString(q.OwnerID),
		CreatedFrom:     created.from,
		CreatedTo:       created.to,
		Search:          q.Search,
		IncludeArchived: q.IncludeArchived,
		SortBy:          q.SortBy,
		SortAsc:         ascending(q.SortOrder, true),
		Page:            params.Page,
		PageSize:        params.Limit,
	}
	if q.Status != "" {
		status := models.ProjectStatus(q.Status)
		filter.Status = &status
	}
	return filter, nil
}

// ProductQuery is the query string of the product listing
type ProductQuery struct {
	OwnerID         string `form:"owner_id"`
	CreatedFrom     string `form:"created_from"`
	CreatedTo       string `form:"created_to"`
	Search          string `form:"search"`
	IncludeArchived bool   `form:"include_archived"`
	SortBy          string `form:"sort_by"`
	SortOrder       string `form:"sort_order"`
}

// Filter converts the query into a repository filter for one page
func (q ProductQuery) Filter(params utils.PaginationParams) (repository.ProductFilter, error) {
	created, err := parseRange("created_from", q.CreatedFrom, "created_to", q.CreatedTo)
	if err != nil {
		return repository.ProductFilter{}, err
	}
	return repository.ProductFilter{
		OwnerID:         optionalString(q.OwnerID),
		CreatedFrom:     created.from,
		CreatedTo:       created.to,
		Search:          q.Search,
		IncludeArchived: q.IncludeArchived,
		SortBy:          q.SortBy,
		SortAsc:         ascending(q.SortOrder, true),
		Page:            params.Page,
		PageSize:        params.Limit,
	}, nil
}

// CreateProjectRequest is the body of project creation
type CreateProjectRequest struct {
	Name        string               `json:"name"`
	Description *string              `json:"description"`
	ProductID   *string              `json:"product_id"`
	OwnerID     *string              `json:"owner_id"`
	Status      models.ProjectStatus `json:"status"`
	StartDate   *time.Time           `json:"start_date"`
	EndDate     *time.Time           `json:"end_date"`
	TeamIDs     []string             `json:"team_ids"`
}

// Input converts the request for the project service
func (r CreateProjectRequest) Input(actorID string) services.CreateProjectInput {
	return services.CreateProjectInput{
		Name:        r.Name,
		Description: r.Description,
		ProductID:   r.ProductID,
		OwnerID:     r.OwnerID,
		Status:      r.Status,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		TeamIDs:     r.TeamIDs,
		ActorID:     actorID,
	}
}

// CreateProductRequest is the body of product creation
type CreateProductRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	OwnerID     *string `json:"owner_id"`
}

// Input converts the request for the product service
func (r CreateProductRequest) Input(actorID string) services.CreateProductInput {
	return services.CreateProductInput{
		Name:        r.Name,
		Description: r.Description,
		OwnerID:     r.OwnerID,
		ActorID:     actorID,
	}
}

// MemberRequest names the user to add to a team
type MemberRequest struct {
	UserID string `json:"user_id"`
}

// LabelRequest names the label to attach
type LabelRequest struct {
	LabelID string `json:"label_id"`
}

// TeamRequest names the team to attach
type TeamRequest struct {
	TeamID string `json:"team_id"`
}
