package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product := testutil.CreateProduct(t, f.db, "Brand", &f.owner.ID)
	project := testutil.CreateProject(t, f.db, "Launch", &product.ID, &f.owner.ID)
	todo := testutil.CreateStatus(t, f.db, "Todo", true, false)

	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{
		Title:      "  Write copy ",
		ProjectID:  &project.ID,
		AssigneeID: &f.external.ID,
		CreatorID:  f.author.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "Write copy", task.Title)
	require.NotNil(t, task.ProductID)
	assert.Equal(t, product.ID, *task.ProductID, "product follows the project")
	require.NotNil(t, task.StatusID)
	assert.Equal(t, todo.ID, *task.StatusID)
	assert.Equal(t, "Todo", task.StatusName)

	watchers := make([]string, len(task.Watchers))
	for i, w := range task.Watchers {
		watchers[i] = w.UserID
	}
	assert.ElementsMatch(t, []string{f.author.ID, f.external.ID}, watchers)
	assert.Equal(t, []string{"assigned"}, f.notifier.kinds())

	var logs []models.AuditLog
	require.NoError(t, f.db.Where("entity_type = ?", "task").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, AuditCreate, logs[0].Action)
}

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, f.db, "Launch", nil, &f.owner.ID)

	_, err := f.tasks.CreateTask(ctx, CreateTaskInput{Title: " ", ProjectID: &project.ID, CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{Title: "x", ProjectID: &project.ID, TeamIDs: []string{"a", "a"}, CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrDuplicateTeams)

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{Title: "x", ProjectID: &project.ID, StatusID: ptr("missing"), CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestCreateTask_RequiresProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tasks.CreateTask(ctx, CreateTaskInput{Title: "x", CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{Title: "x", ProjectID: ptr(""), CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = f.tasks.CreateTask(ctx, CreateTaskInput{Title: "x", ProjectID: ptr("missing"), CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "no row is written for a rejected task")
}

func TestCreateTask_ProjectWithoutProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, f.db, "Internal", nil, &f.owner.ID)

	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{Title: "Tidy", ProjectID: &project.ID, CreatorID: f.author.ID})
	require.NoError(t, err)
	require.NotNil(t, task.ProjectID)
	assert.Equal(t, project.ID, *task.ProjectID)
	assert.Nil(t, task.ProductID)
}

func TestCreateTask_Teams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, f.db, "Launch", nil, &f.owner.ID)
	team := testutil.CreateAgencyTeam(t, f.db, "Designers", nil)

	_, err := f.tasks.CreateTask(ctx, CreateTaskInput{
		Title:     "Mockups",
		ProjectID: &project.ID,
		TeamIDs:   []string{team.ID, "missing"},
		CreatorID: f.author.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidTeams)

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "unknown teams are rejected before the insert")

	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{
		Title:     "Mockups",
		ProjectID: &project.ID,
		TeamIDs:   []string{team.ID},
		CreatorID: f.author.ID,
	})
	require.NoError(t, err)
	require.Len(t, task.Teams, 1)
	assert.Equal(t, team.ID, task.Teams[0].ID)
}

func TestUpdateTask_ProjectMovesProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	brand := testutil.CreateProduct(t, f.db, "Brand", &f.owner.ID)
	web := testutil.CreateProduct(t, f.db, "Web", &f.owner.ID)
	launch := testutil.CreateProject(t, f.db, "Launch", &brand.ID, &f.owner.ID)
	relaunch := testutil.CreateProject(t, f.db, "Relaunch", &web.ID, &f.owner.ID)

	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{Title: "Hero", ProjectID: &launch.ID, CreatorID: f.author.ID})
	require.NoError(t, err)
	require.Equal(t, brand.ID, *task.ProductID)

	updated, err := f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{ProjectID: utils.Some(relaunch.ID)})
	require.NoError(t, err)
	assert.Equal(t, relaunch.ID, *updated.ProjectID)
	require.NotNil(t, updated.ProductID)
	assert.Equal(t, web.ID, *updated.ProductID)

	_, err = f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{ProjectID: utils.Some("missing")})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	updated, err = f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{ProjectID: utils.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.ProjectID)
	assert.Nil(t, updated.ProductID, "clearing the project clears the product")
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	todo := testutil.CreateStatus(t, f.db, "Todo", true, false)
	done := testutil.CreateStatus(t, f.db, "Done", false, true)
	project := testutil.CreateProject(t, f.db, "Launch", nil, &f.owner.ID)
	task, err := f.tasks.CreateTask(ctx, CreateTaskInput{Title: "Draft", Description: ptr("first"), ProjectID: &project.ID, CreatorID: f.author.ID})
	require.NoError(t, err)
	require.Equal(t, todo.ID, *task.StatusID)

	updated, err := f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{
		AssigneeID:  utils.Some(f.external.ID),
		StatusID:    utils.Some(done.ID),
		Description: utils.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, "Draft", updated.Title, "omitted fields are untouched")
	assert.Nil(t, updated.Description, "null clears the column")
	assert.Equal(t, "Done", updated.StatusName)
	assert.Equal(t, []string{"assigned", "status"}, f.notifier.kinds())

	// Re-sending the same assignee does not notify again
	_, err = f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{AssigneeID: utils.Some(f.external.ID)})
	require.NoError(t, err)
	assert.Len(t, f.notifier.kinds(), 2)

	_, err = f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{Title: utils.Null[string]()})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = f.tasks.UpdateTask(ctx, "missing", f.manager.ID, UpdateTaskInput{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateTask_Teams(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Teamwork", f.owner.ID)
	team := testutil.CreateAgencyTeam(t, f.db, "Designers", nil)

	_, err := f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{TeamIDs: &[]string{team.ID, "missing"}})
	assert.ErrorIs(t, err, ErrInvalidTeams)

	updated, err := f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{TeamIDs: &[]string{team.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Teams, 1)

	updated, err = f.tasks.UpdateTask(ctx, task.ID, f.manager.ID, UpdateTaskInput{TeamIDs: &[]string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Teams)
}

func TestUpdatePriorities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := testutil.CreateTask(t, f.db, "A", f.owner.ID)
	b := testutil.CreateTask(t, f.db, "B", f.owner.ID)

	err := f.tasks.UpdatePriorities(ctx, f.manager.ID, []PriorityUpdate{
		{ID: a.ID, PriorityOrder: ptr(2)},
		{ID: b.ID, PriorityOrder: ptr(1)},
	})
	require.NoError(t, err)

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", b.ID).Error)
	assert.Equal(t, 1, *stored.PriorityOrder)

	err = f.tasks.UpdatePriorities(ctx, f.manager.ID, []PriorityUpdate{{PriorityOrder: ptr(1)}})
	assert.ErrorIs(t, err, ErrPriorityIDRequired)
}

func TestSubtasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := testutil.CreateProject(t, f.db, "Launch", nil, &f.owner.ID)
	parent := testutil.CreateTask(t, f.db, "Parent", f.owner.ID, func(task *models.Task) { task.ProjectID = &project.ID })

	child, err := f.tasks.CreateSubtask(ctx, parent.ID, CreateTaskInput{Title: "Child", CreatorID: f.author.ID})
	require.NoError(t, err)
	assert.Equal(t, project.ID, *child.ProjectID)
	assert.Equal(t, 1, child.Priority)

	_, err = f.tasks.CreateSubtask(ctx, "missing", CreateTaskInput{Title: "Orphan", CreatorID: f.author.ID})
	assert.ErrorIs(t, err, ErrParentTaskNotFound)

	detail, err := f.tasks.GetTask(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.ParentTask)
	assert.Equal(t, "Parent", detail.ParentTask.Title)

	detail, err = f.tasks.GetTask(ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Subtasks, 1)
}

func TestWatchers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Watch me", f.owner.ID)

	added, err := f.tasks.AddWatcher(ctx, task.ID, f.author.ID, f.manager.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.tasks.AddWatcher(ctx, task.ID, f.author.ID, f.manager.ID)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"watcher"}, f.notifier.kinds())

	err = f.tasks.RemoveWatcher(ctx, f.external, task.ID, f.author.ID)
	assert.ErrorIs(t, err, ErrCannotRemoveWatcher)
	require.NoError(t, f.tasks.RemoveWatcher(ctx, f.author, task.ID, f.author.ID))

	watchers, err := f.tasks.ListWatchers(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, watchers)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := testutil.CreateTask(t, f.db, "Parent", f.owner.ID)
	testutil.CreateTask(t, f.db, "Child", f.owner.ID, func(task *models.Task) { task.ParentTaskID = &parent.ID })

	require.NoError(t, f.tasks.DeleteTask(ctx, parent.ID, f.manager.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count, "subtasks go with their parent")

	assert.ErrorIs(t, f.tasks.DeleteTask(ctx, parent.ID, f.manager.ID), ErrTaskNotFound)
}

func TestTaskLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Launch", f.owner.ID)
	urgent := testutil.CreateLabel(t, f.db, "Urgent")

	label, err := f.tasks.AddLabel(ctx, task.ID, urgent.ID, f.author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Urgent", label.Name)

	labels, err := f.tasks.ListLabels(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	assert.Equal(t, urgent.ID, labels[0].ID)

	_, err = f.tasks.AddLabel(ctx, task.ID, urgent.ID, f.author.ID)
	assert.ErrorIs(t, err, ErrLabelAlreadyOnTask)
	_, err = f.tasks.AddLabel(ctx, task.ID, "missing", f.author.ID)
	assert.ErrorIs(t, err, ErrLabelNotFound)
	_, err = f.tasks.AddLabel(ctx, task.ID, "", f.author.ID)
	assert.ErrorIs(t, err, ErrLabelIDRequired)
	_, err = f.tasks.AddLabel(ctx, "missing", urgent.ID, f.author.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, f.tasks.RemoveLabel(ctx, task.ID, urgent.ID, f.author.ID))
	assert.ErrorIs(t, f.tasks.RemoveLabel(ctx, task.ID, urgent.ID, f.author.ID), ErrLabelNotOnTask)

	labels, err = f.tasks.ListLabels(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, labels)
}
