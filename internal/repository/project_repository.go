package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogSortFields lists the columns project and product listings may be ordered by.
var CatalogSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"priority_order": true,
}

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	if filter.RestrictIDs && len(filter.IDs) == 0 {
		return []models.Project{}, 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Project{})
	if filter.RestrictIDs {
		query = query.Where("projects.id IN ?", filter.IDs)
	}
	if filter.ProductID != nil {
		query = query.Where("projects.product_id = ?", *filter.ProductID)
	}
	if filter.OwnerID != nil {
		query = query.Where("projects.owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("projects.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("projects.created_at <= ?", *filter.CreatedTo)
	}
	if !filter.IncludeArchived {
		query = query.Where("projects.is_archived = ?", false)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query = query.Where(searchClause(r.db, []string{"projects.name", "projects.description"}, term))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(catalogOrder("projects", filter.SortBy, filter.SortAsc))
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	projects := []models.Project{}
	if err := listQuery.Preload("Product").Preload("Owner").Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func catalogOrder(table, sortBy string, asc bool) clause.OrderBy {
	if !CatalogSortFields[sortBy] {
		sortBy = "created_at"
	}
	column := clause.OrderByColumn{Column: clause.Column{Table: table, Name: sortBy}, Desc: !asc}
	if sortBy != "priority_order" {
		return clause.OrderBy{Columns: []clause.OrderByColumn{column}}
	}
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "CASE WHEN " + table + ".priority_order IS NULL THEN 1 ELSE 0 END", Raw: true}},
		column,
	}}
}

// Updates applies a partial update to a project
func (r *GormProjectRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(fields).Error
}

// Delete removes a project. Its tasks keep their rows with a cleared project.
func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("project_id = ?", id).Update("project_id", nil).Error; err != nil {
			return err
		}
		for _, assoc := range []any{&models.ProjectLabel{}, &models.ProjectTeam{}} {
			if err := tx.Where("project_id = ?", id).Delete(assoc).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdatePriorityOrder sets the manual ordering slot of a project
func (r *GormProjectRepository) UpdatePriorityOrder(ctx context.Context, id string, order *int) error {
	return r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update("priority_order", order).Error
}

// TaskProgress counts top-level tasks per project and how many sit in a closed status
func (r *GormProjectRepository) TaskProgress(ctx context.Context, projectIDs []string) (map[string]TaskProgress, error) {
	progress := make(map[string]TaskProgress, len(projectIDs))
	if len(projectIDs) == 0 {
		return progress, nil
	}

	var rows []struct {
		ProjectID string
		Total     int64
		Completed int64
	}
	err := r.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.project_id AS project_id, COUNT(*) AS total, "+
			"SUM(CASE WHEN statuses.is_closed = ? THEN 1 ELSE 0 END) AS completed", true).
		Joins("LEFT JOIN statuses ON statuses.id = tasks.status_id").
		Where("tasks.project_id IN ? AND tasks.parent_task_id IS NULL", projectIDs).
		Group("tasks.project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		progress[row.ProjectID] = TaskProgress{Total: row.Total, Completed: row.Completed}
	}
	return progress, nil
}

// ListLabels lists the labels on a project by name
func (r *GormProjectRepository) ListLabels(ctx context.Context, projectID string) ([]models.Label, error) {
	labels := []models.Label{}
	err := r.db.WithContext(ctx).
		Joins("JOIN project_labels ON project_labels.label_id = labels.id").
		Where("project_labels.project_id = ?", projectID).
		Order("labels.name ASC").
		Find(&labels).Error
	return labels, err
}

// AddLabel tags a project with a label
func (r *GormProjectRepository) AddLabel(ctx context.Context, projectID, labelID string) error {
	return r.db.WithContext(ctx).Create(&models.ProjectLabel{ProjectID: projectID, LabelID: labelID}).Error
}

// RemoveLabel untags a project
func (r *GormProjectRepository) RemoveLabel(ctx context.Context, projectID, labelID string) error {
	return deleteLink(r.db.WithContext(ctx).Where("project_id = ? AND label_id = ?", projectID, labelID), &models.ProjectLabel{})
}

// ListTeams lists the teams on a project by name
func (r *GormProjectRepository) ListTeams(ctx context.Context, projectID string) ([]models.Team, error) {
	teams := []models.Team{}
	err := r.db.WithContext(ctx).
		Joins("JOIN project_teams ON project_teams.team_id = teams.id").
		Where("project_teams.project_id = ?", projectID).
		Order("teams.name ASC").
		Find(&teams).Error
	return teams, err
}

// AddTeams attaches teams to a project
func (r *GormProjectRepository) AddTeams(ctx context.Context, projectID string, teamIDs []string) error {
	if len(teamIDs) == 0 {
		return nil
	}
	rows := make([]models.ProjectTeam, len(teamIDs))
	for i, teamID := range teamIDs {
		rows[i] = models.ProjectTeam{ProjectID: projectID, TeamID: teamID}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// RemoveTeam detaches a team from a project
func (r *GormProjectRepository) RemoveTeam(ctx context.Context, projectID, teamID string) error {
	return deleteLink(r.db.WithContext(ctx).Where("project_id = ? AND team_id = ?", projectID, teamID), &models.ProjectTeam{})
}

// deleteLink deletes the join rows matched by query, reporting
// gorm.ErrRecordNotFound when there were none
func deleteLink(query *gorm.DB, model any) error {
	result := query.Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountWithStatus counts the projects whose status is slug
func (r *GormProjectRepository) CountWithStatus(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).Where("status = ?", slug).Count(&count).Error
	return count, err
}
