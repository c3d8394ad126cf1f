package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

func newProjectStatuses(f *fixture) *CatalogService[models.ProjectStatusDefinition] {
	return NewProjectStatusService(
		repository.NewProjectStatusRepository(f.db),
		repository.NewProjectRepository(f.db),
		f.audit,
	)
}

func createProjectStatus(t *testing.T, f *fixture, in ProjectStatusInput) *models.ProjectStatusDefinition {
	t.Helper()
	status, err := in.ProjectStatus()
	require.NoError(t, err)
	created, err := newProjectStatuses(f).Create(context.Background(), f.owner.ID, status)
	require.NoError(t, err)
	return created
}

func TestProjectStatusInput(t *testing.T) {
	status, err := ProjectStatusInput{Name: utils.Some("  In Review ")}.ProjectStatus()
	require.NoError(t, err)
	assert.Equal(t, "In Review", status.Name)
	assert.Equal(t, "in_review", status.Slug)
	assert.Equal(t, "#6B7280", status.Color)

	status, err = ProjectStatusInput{Name: utils.Some("Review"), Slug: utils.Some("qa"), Color: utils.Some("#000000")}.ProjectStatus()
	require.NoError(t, err)
	assert.Equal(t, "qa", status.Slug)
	assert.Equal(t, "#000000", status.Color)

	_, err = ProjectStatusInput{}.ProjectStatus()
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = ProjectStatusInput{Slug: utils.Some(" ")}.Fields()
	assert.ErrorIs(t, err, ErrSlugRequired)
}

func TestProjectStatus_SingleDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := newProjectStatuses(f)
	active := createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Active"), IsDefault: utils.Some(true)})
	planned := createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Planned"), IsDefault: utils.Some(true)})

	stored, err := statuses.Get(ctx, active.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDefault, "a new default takes the flag")

	_, err = statuses.Update(ctx, active.ID, f.owner.ID, map[string]any{"is_default": true})
	require.NoError(t, err)
	stored, err = statuses.Get(ctx, planned.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDefault)

	project, err := f.projects.CreateProject(ctx, CreateProjectInput{Name: "Website", ActorID: f.manager.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatus("active"), project.Status)
}

func TestProjectStatus_ConfiguredSlugsValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Active"), OrderIndex: utils.Some(0)})
	createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Archived"), OrderIndex: utils.Some(1)})

	project, err := f.projects.CreateProject(ctx, CreateProjectInput{Name: "Website", Status: "archived", ActorID: f.manager.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatus("archived"), project.Status)

	_, err = f.projects.CreateProject(ctx, CreateProjectInput{Name: "Intranet", Status: models.ProjectOngoing, ActorID: f.manager.ID})
	require.Error(t, err)
	assert.Equal(t, "Invalid status. Must be one of: active, archived", err.Error())

	project, err = f.projects.CreateProject(ctx, CreateProjectInput{Name: "Intranet", ActorID: f.manager.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatus("active"), project.Status, "without a default the first status is used")
}

func TestProjectStatus_SlugRenameMovesProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := newProjectStatuses(f)
	active := createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Active"), IsDefault: utils.Some(true)})
	project, err := f.projects.CreateProject(ctx, CreateProjectInput{Name: "Website", ActorID: f.manager.ID})
	require.NoError(t, err)

	_, err = statuses.Update(ctx, active.ID, f.owner.ID, map[string]any{"slug": "running"})
	require.NoError(t, err)

	stored, err := f.projects.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatus("running"), stored.Status)
}

func TestProjectStatus_DeleteInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := newProjectStatuses(f)
	active := createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Active"), IsDefault: utils.Some(true)})
	spare := createProjectStatus(t, f, ProjectStatusInput{Name: utils.Some("Spare")})
	project := testutil.CreateProject(t, f.db, "Website", nil, &f.owner.ID)
	require.NoError(t, f.db.Model(project).Update("status", "active").Error)

	err := statuses.Delete(ctx, active.ID, f.owner.ID)
	assert.ErrorIs(t, err, ErrProjectStatusInUse)
	assert.True(t, IsValidation(err))

	require.NoError(t, statuses.Delete(ctx, spare.ID, f.owner.ID))
	assert.ErrorIs(t, statuses.Delete(ctx, spare.ID, f.owner.ID), ErrProjectStatusNotFound)
}
