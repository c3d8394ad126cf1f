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

func TestStatusRenameReachesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := NewStatusService(repository.NewStatusRepository(f.db), f.audit)
	review := testutil.CreateStatus(t, f.db, "Review", false, false)
	task := testutil.CreateTask(t, f.db, "Copy", f.owner.ID, func(task *models.Task) {
		task.StatusID = &review.ID
		task.StatusName = review.Name
	})
	other := testutil.CreateTask(t, f.db, "Other", f.owner.ID)

	_, err := statuses.Update(ctx, review.ID, f.owner.ID, map[string]any{"name": "In review"})
	require.NoError(t, err)

	detail, err := f.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "In review", detail.StatusName)

	detail, err = f.tasks.GetTask(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.StatusName)

	_, err = statuses.Update(ctx, review.ID, f.owner.ID, map[string]any{"color": "#ff0000"})
	require.NoError(t, err)
	detail, err = f.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "In review", detail.StatusName, "other columns leave the name alone")
}

func TestStatusDeleteClearsTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	statuses := NewStatusService(repository.NewStatusRepository(f.db), f.audit)
	review := testutil.CreateStatus(t, f.db, "Review", false, false)
	task := testutil.CreateTask(t, f.db, "Copy", f.owner.ID, func(task *models.Task) {
		task.StatusID = &review.ID
		task.StatusName = review.Name
	})

	require.NoError(t, statuses.Delete(ctx, review.ID, f.owner.ID))

	var stored models.Task
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.Nil(t, stored.StatusID)
	assert.Empty(t, stored.StatusName)

	assert.ErrorIs(t, statuses.Delete(ctx, review.ID, f.owner.ID), ErrStatusNotFound)
}
