package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrLabelNotOnProject = errors.New("label not on project")
	ErrTeamNotOnProject  = errors.New("team not on project")

	ErrNameRequired          = &ValidationError{Message: "Name is required"}
	ErrTeamIDRequired        = &ValidationError{Message: "team_id is required"}
	ErrLabelAlreadyOnProject = &ValidationError{Message: "Label is already on this project"}
	ErrTeamAlreadyOnProject  = &ValidationError{Message: "Team is already on this project"}
)

// ProjectService handles project business logic
type ProjectService struct {
	repo       repository.ProjectRepository
	statuses   repository.ProjectStatusRepository
	labels     repository.LabelRepository
	teams      repository.TeamRepository
	visibility *VisibilityService
	audit      *AuditService
	log        *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	repo repository.ProjectRepository,
	statuses repository.ProjectStatusRepository,
	labels repository.LabelRepository,
	teams repository.TeamRepository,
	visibility *VisibilityService,
	audit *AuditService,
	log *zap.Logger,
) *ProjectService {
	return &ProjectService{
		repo:       repo,
		statuses:   statuses,
		labels:     labels,
		teams:      teams,
		visibility: visibility,
		audit:      audit,
		log:        log,
	}
}

// ProjectWithProgress is a project with the completion stats of its
// top-level tasks
type ProjectWithProgress struct {
	models.Project
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	TaskProgress   int   `json:"task_progress"`
}

// ListProjects returns projects matching filter with their task progress.
// External Agency principals only see projects of their visible tasks.
func (s *ProjectService) ListProjects(ctx context.Context, principal *models.User, filter repository.ProjectFilter) ([]ProjectWithProgress, int64, error) {
	scope, err := s.visibility.Scope(ctx, principal, ScopeProjects)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve project visibility: %w", err)
	}
	filter.RestrictIDs = scope.Restricted
	filter.IDs = scope.IDs

	projects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	progress, err := s.repo.TaskProgress(ctx, ids)
	if err != nil {
		s.log.Warn("failed to load project task progress", zap.Error(err))
		progress = map[string]repository.TaskProgress{}
	}

	out := make([]ProjectWithProgress, len(projects))
	for i, p := range projects {
		stats := progress[p.ID]
		out[i] = ProjectWithProgress{
			Project:        p,
			TotalTasks:     stats.Total,
			CompletedTasks: stats.Completed,
			TaskProgress:   percent(stats.Completed, stats.Total),
		}
	}
	return out, total, nil
}

func percent(part, whole int64) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// GetProject returns a project with its product and owner
func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, id, "Product", "Owner")
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return project, nil
}

// GetProjectFor returns a project the principal may see. A project outside
// an External Agency principal's scope reads as missing.
func (s *ProjectService) GetProjectFor(ctx context.Context, principal *models.User, id string) (*models.Project, error) {
	scope, err := s.visibility.Scope(ctx, principal, ScopeProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project visibility: %w", err)
	}
	if !scope.Allows(id) {
		return nil, ErrProjectNotFound
	}
	return s.GetProject(ctx, id)
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description *string
	ProductID   *string
	OwnerID     *string
	Status      models.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	TeamIDs     []string
	ActorID     string
}

// CreateProject creates a project owned by the actor unless another owner
// is given. Without a status it starts in the default project status.
// Teams are checked up front and attached best-effort after the insert.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	status := input.Status
	if status == "" {
		var err error
		if status, err = s.defaultStatus(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.checkStatus(ctx, status); err != nil {
		return nil, err
	}
	teamIDs := uniqueIDs(input.TeamIDs)
	if err := s.verifyTeams(ctx, teamIDs); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: input.Description,
		ProductID:   input.ProductID,
		OwnerID:     input.OwnerID,
		Status:      status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if project.OwnerID == nil {
		project.OwnerID = &input.ActorID
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	if err := s.repo.AddTeams(ctx, project.ID, teamIDs); err != nil {
		s.log.Error("failed to add teams to project", zap.String("project_id", project.ID), zap.Error(err))
	}
	s.audit.Log(ctx, input.ActorID, AuditCreate, "project", project.ID, map[string]any{"name": name})

	return s.GetProject(ctx, project.ID)
}

// allowedStatuses returns the configured project status slugs, or the
// built-in lifecycle when none are configured
func (s *ProjectService) allowedStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	slugs, err := s.statuses.Slugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list project statuses: %w", err)
	}
	if len(slugs) == 0 {
		return models.ProjectStatuses, nil
	}
	allowed := make([]models.ProjectStatus, len(slugs))
	for i, slug := range slugs {
		allowed[i] = models.ProjectStatus(slug)
	}
	return allowed, nil
}

func (s *ProjectService) checkStatus(ctx context.Context, status models.ProjectStatus) error {
	allowed, err := s.allowedStatuses(ctx)
	if err != nil {
		return err
	}
	for _, a := range allowed {
		if status == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return invalid("Invalid status. Must be one of: %s", strings.Join(names, ", "))
}

// defaultStatus is the status flagged as default, else the first allowed one
func (s *ProjectService) defaultStatus(ctx context.Context) (models.ProjectStatus, error) {
	status, err := s.statuses.FindDefault(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		allowed, err := s.allowedStatuses(ctx)
		if err != nil {
			return "", err
		}
		return allowed[0], nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find default project status: %w", err)
	}
	return models.ProjectStatus(status.Slug), nil
}

func (s *ProjectService) verifyTeams(ctx context.Context, teamIDs []string) error {
	if len(teamIDs) == 0 {
		return nil
	}
	count, err := s.teams.CountByIDs(ctx, teamIDs)
	if err != nil {
		return fmt.Errorf("failed to verify teams: %w", err)
	}
	if count != int64(len(teamIDs)) {
		return ErrInvalidTeams
	}
	return nil
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Name        utils.Optional[string]               `json:"name"`
	Description utils.Optional[string]               `json:"description"`
	ProductID   utils.Optional[string]               `json:"product_id"`
	OwnerID     utils.Optional[string]               `json:"owner_id"`
	Status      utils.Optional[models.ProjectStatus] `json:"status"`
	StartDate   utils.Optional[time.Time]            `json:"start_date"`
	EndDate     utils.Optional[time.Time]            `json:"end_date"`
	IsArchived  utils.Optional[bool]                 `json:"is_archived"`
}

// UpdateProject applies a partial update. Finishing a project (done or
// cancelled) drops it out of the manual ordering.
func (s *ProjectService) UpdateProject(ctx context.Context, id, actorID string, input UpdateProjectInput) (*models.Project, error) {
	fields := map[string]any{}
	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, ErrNameRequired
		}
		fields["name"] = strings.TrimSpace(*input.Name.Value)
	}
	setColumn(fields, "description", input.Description)
	setColumn(fields, "product_id", input.ProductID)
	setColumn(fields, "owner_id", input.OwnerID)
	setColumn(fields, "start_date", input.StartDate)
	setColumn(fields, "end_date", input.EndDate)
	if input.IsArchived.Value != nil {
		fields["is_archived"] = *input.IsArchived.Value
	}
	if input.Status.Set {
		if input.Status.Value == nil {
			return nil, s.checkStatus(ctx, "")
		}
		if err := s.checkStatus(ctx, *input.Status.Value); err != nil {
			return nil, err
		}
		fields["status"] = *input.Status.Value
		if input.Status.Value.Finished() {
			fields["priority_order"] = 0
		}
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "project", id, nil)

	return s.GetProject(ctx, id)
}

// DeleteProject removes a project; its tasks are kept without a project
func (s *ProjectService) DeleteProject(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrProjectNotFound, "delete project")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "project", id, nil)
	return nil
}

// UpdatePriorities applies every ordering update concurrently, without atomicity
func (s *ProjectService) UpdatePriorities(ctx context.Context, actorID string, updates []PriorityUpdate) error {
	if err := validatePriorities(updates); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.PriorityUpdateConcurrency)
	for _, u := range updates {
		g.Go(func() error {
			return s.repo.UpdatePriorityOrder(gctx, u.ID, u.PriorityOrder)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to update project priorities: %w", err)
	}

	s.audit.Log(ctx, actorID, AuditUpdate, "project", "bulk", map[string]any{"priorities": len(updates)})
	return nil
}

// ListLabels lists the labels on a project the principal may see
func (s *ProjectService) ListLabels(ctx context.Context, principal *models.User, projectID string) ([]models.Label, error) {
	if _, err := s.GetProjectFor(ctx, principal, projectID); err != nil {
		return nil, err
	}
	labels, err := s.repo.ListLabels(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project labels: %w", err)
	}
	return labels, nil
}

// AddLabel tags a project with an existing label
func (s *ProjectService) AddLabel(ctx context.Context, projectID, labelID, actorID string) (*models.Label, error) {
	if labelID == "" {
		return nil, ErrLabelIDRequired
	}
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	label, err := s.labels.FindByID(ctx, labelID)
	if err != nil {
		return nil, notFound(err, ErrLabelNotFound, "find label")
	}
	if err := s.repo.AddLabel(ctx, projectID, labelID); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrLabelAlreadyOnProject
		}
		return nil, fmt.Errorf("failed to add project label: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "project", projectID, map[string]any{"label_added": labelID})
	return label, nil
}

// RemoveLabel untags a project
func (s *ProjectService) RemoveLabel(ctx context.Context, projectID, labelID, actorID string) error {
	if err := s.repo.RemoveLabel(ctx, projectID, labelID); err != nil {
		return notFound(err, ErrLabelNotOnProject, "remove project label")
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "project", projectID, map[string]any{"label_removed": labelID})
	return nil
}

// ListTeams lists the teams on a project the principal may see
func (s *ProjectService) ListTeams(ctx context.Context, principal *models.User, projectID string) ([]models.Team, error) {
	if _, err := s.GetProjectFor(ctx, principal, projectID); err != nil {
		return nil, err
	}
	teams, err := s.repo.ListTeams(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project teams: %w", err)
	}
	return teams, nil
}

// AddTeam attaches an existing team to a project
func (s *ProjectService) AddTeam(ctx context.Context, projectID, teamID, actorID string) (*models.Team, error) {
	if teamID == "" {
		return nil, ErrTeamIDRequired
	}
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound, "find team")
	}
	if err := s.repo.AddTeams(ctx, projectID, []string{teamID}); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrTeamAlreadyOnProject
		}
		return nil, fmt.Errorf("failed to add project team: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "project", projectID, map[string]any{"team_added": teamID})
	return team, nil
}

// RemoveTeam detaches a team from a project
func (s *ProjectService) RemoveTeam(ctx context.Context, projectID, teamID, actorID string) error {
	if err := s.repo.RemoveTeam(ctx, projectID, teamID); err != nil {
		return notFound(err, ErrTeamNotOnProject, "remove project team")
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "project", projectID, map[string]any{"team_removed": teamID})
	return nil
}
