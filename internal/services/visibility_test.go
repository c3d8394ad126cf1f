package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
)

func TestVisibility_InternalRolesSeeEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Private", f.owner.ID)

	for _, user := range []*models.User{f.owner, f.manager, f.author} {
		ok, err := f.visibility.CanSeeTask(ctx, user.ID, task.ID)
		require.NoError(t, err)
		assert.True(t, ok, user.Role)
	}

	ok, err := f.visibility.CanSeeTask(ctx, f.external.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.visibility.CanSeeTask(ctx, "ghost", task.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVisibility_VisibleIDsAreTheUnionOfRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := testutil.CreateProduct(t, f.db, "Brand", &f.owner.ID)
	project := testutil.CreateProject(t, f.db, "Launch", &product.ID, &f.owner.ID)
	otherProject := testutil.CreateProject(t, f.db, "Internal", nil, &f.owner.ID)

	assigned := testutil.CreateTask(t, f.db, "Assigned", f.owner.ID, func(task *models.Task) {
		task.AssigneeID = &f.external.ID
		task.ProjectID = &project.ID
		task.ProductID = &product.ID
	})
	// Assigned and watched: listed once
	require.NoError(t, f.db.Create(&models.Watcher{TaskID: assigned.ID, UserID: f.external.ID}).Error)
	parent := testutil.CreateTask(t, f.db, "Parent", f.owner.ID)
	testutil.CreateTask(t, f.db, "Child", f.owner.ID, func(task *models.Task) {
		task.ParentTaskID = &parent.ID
		task.AssigneeID = &f.external.ID
	})
	hidden := testutil.CreateTask(t, f.db, "Hidden", f.owner.ID, func(task *models.Task) {
		task.ProjectID = &otherProject.ID
	})

	ids, err := f.visibility.VisibleTaskIDs(ctx, f.external.ID)
	require.NoError(t, err)
	assert.IsNonDecreasing(t, ids)
	assert.ElementsMatch(t, []string{assigned.ID, parent.ID, childOf(t, f, parent.ID)}, ids)
	assert.NotContains(t, ids, hidden.ID)

	// Every listed task passes the per-task check
	for _, id := range ids {
		ok, err := f.visibility.CanSeeTask(ctx, f.external.ID, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}

	projects, err := f.visibility.VisibleProjectIDs(ctx, f.external.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, projects)

	products, err := f.visibility.VisibleProductIDs(ctx, f.external.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{product.ID}, products)
}

// childOf returns the single subtask of parentID; the subtask is visible
// through its own assignee
func childOf(t *testing.T, f *fixture, parentID string) string {
	t.Helper()
	var child models.Task
	require.NoError(t, f.db.Where("parent_task_id = ?", parentID).First(&child).Error)
	return child.ID
}

func TestVisibility_NothingVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateTask(t, f.db, "Hidden", f.owner.ID)

	ids, err := f.visibility.VisibleTaskIDs(ctx, f.external.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	projects, err := f.visibility.VisibleProjectIDs(ctx, f.external.ID)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	scope, err := f.visibility.Scope(ctx, f.external, ScopeProducts)
	require.NoError(t, err)
	assert.True(t, scope.Restricted)
	assert.False(t, scope.Allows("anything"))
}

func TestScope(t *testing.T) {
	f := newFixture(t)
	scope, err := f.visibility.Scope(context.Background(), f.manager, ScopeTasks)
	require.NoError(t, err)
	assert.False(t, scope.Restricted)
	assert.True(t, scope.Allows("anything"))

	scope = Scope{Restricted: true, IDs: []string{"a", "b"}}
	assert.True(t, scope.Allows("b"))
	assert.False(t, scope.Allows("c"))
}

func TestListTasks_ExternalOnlySeesVisibleTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visible := testutil.CreateTask(t, f.db, "Visible", f.owner.ID, func(task *models.Task) { task.AssigneeID = &f.external.ID })
	testutil.CreateTask(t, f.db, "Hidden", f.owner.ID)

	tasks, total, err := f.tasks.ListTasks(ctx, f.external, repository.TaskFilter{TopLevelOnly: true, Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, visible.ID, tasks[0].ID)

	_, total, err = f.tasks.ListTasks(ctx, f.manager, repository.TaskFilter{TopLevelOnly: true, Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

type flagged struct {
	name     string
	internal bool
}

func (f flagged) InternalOnly() bool { return f.internal }

func TestFilterInternalOnly(t *testing.T) {
	items := []flagged{{"public", false}, {"secret", true}}

	assert.Equal(t, items, FilterInternalOnly(items, models.RoleViewer))

	filtered := FilterInternalOnly(items, models.RoleExternalAgency)
	require.Len(t, filtered, 1)
	assert.Equal(t, "public", filtered[0].name)
}
