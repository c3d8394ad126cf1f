package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"go.uber.org/zap"
)

// Audit actions
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// AuditService records and browses the audit trail
type AuditService struct {
	repo repository.AuditLogRepository
	log  *zap.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo repository.AuditLogRepository, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Log records an entry. Failures are logged and never returned: an audit
// write must not fail the request that caused it.
func (s *AuditService) Log(ctx context.Context, userID, action, entityType, entityID string, metadata map[string]any) {
	entry := &models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// ListAuditLogsInput represents filters for browsing the audit trail
type ListAuditLogsInput struct {
	Actor      string
	EntityType string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

func (in ListAuditLogsInput) filter() repository.AuditLogFilter {
	filter := repository.AuditLogFilter{
		Actor:    in.Actor,
		From:     in.From,
		To:       in.To,
		Page:     in.Page,
		PageSize: in.PageSize,
	}
	if in.EntityType != "" {
		filter.EntityType = &in.EntityType
	}
	return filter
}

// List returns a page of audit entries, newest first
func (s *AuditService) List(ctx context.Context, input ListAuditLogsInput) ([]models.AuditLog, int64, error) {
	entries, total, err := s.repo.List(ctx, input.filter())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, total, nil
}

var auditCSVHeader = []string{"Timestamp", "Actor", "Action", "Entity Type", "Entity ID", "Details"}

// ExportCSV writes the matching entries, newest first, as CSV. Page and
// PageSize of input are ignored; at most MaxAuditExportRows rows are written.
func (s *AuditService) ExportCSV(ctx context.Context, w io.Writer, input ListAuditLogsInput) error {
	input.Page = 1
	input.PageSize = constants.MaxAuditExportRows

	entries, _, err := s.repo.List(ctx, input.filter())
	if err != nil {
		return fmt.Errorf("failed to export audit logs: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(auditCSVHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		actor := "System"
		if entry.User != nil {
			actor = entry.User.Email
		} else if entry.UserID != nil {
			actor = *entry.UserID
		}
		details := ""
		if len(entry.Metadata) > 0 {
			raw, err := json.Marshal(entry.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode audit metadata: %w", err)
			}
			details = string(raw)
		}
		record := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			actor,
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			details,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
