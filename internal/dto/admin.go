package dto

import (
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

// AuditLogQuery is the query string of the audit log listing and export
type AuditLogQuery struct {
	Actor      string `form:"actor"`
	EntityType string `form:"entity_type"`
	FromDate   string `form:"from_date"`
	ToDate     string `form:"to_date"`
}

// Input converts the query for the audit service
func (q AuditLogQuery) Input(params utils.PaginationParams) (services.ListAuditLogsInput, error) {
	dates, err := parseRange("from_date", q.FromDate, "to_date", q.ToDate)
	if err != nil {
		return services.ListAuditLogsInput{}, err
	}
	return services.ListAuditLogsInput{
		Actor:      q.Actor,
		EntityType: q.EntityType,
		From:       dates.from,
		To:         dates.to,
		Page:       params.Page,
		PageSize:   params.Limit,
	}, nil
}

// RoleRequest is the body of a role change
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// RegisterRequest is the body of profile creation. Email defaults to the
// token's email claim.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
