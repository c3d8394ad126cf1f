package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

// indexes lists the composite indexes the visibility and listing queries rely
// on. Single-column indexes are declared on the models.
var indexes = []indexSpec{
	// Task listing and ordering
	{"tasks", "idx_tasks_parent_created", "parent_task_id, created_at"},
	{"tasks", "idx_tasks_project_priority_order", "project_id, priority_order"},
	{"tasks", "idx_tasks_due_date", "due_date"},

	// Visibility predicates
	{"tasks", "idx_tasks_parent_assignee", "parent_task_id, assignee_id"},
	{"task_agencies", "idx_task_agencies_agency_task", "agency_id, task_id"},
	{"team_members", "idx_team_members_user_team", "user_id, team_id"},
	{"watchers", "idx_watchers_user_task", "user_id, task_id"},
	{"comment_mentions", "idx_comment_mentions_user_comment", "user_id, comment_id"},

	// Audit log browsing
	{"audit_logs", "idx_audit_logs_entity", "entity_type, entity_id"},
	{"checklist_items", "idx_checklist_items_task_order", "task_id, order_index"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table), zap.String("columns", idx.columns))
	}

	return nil
}
