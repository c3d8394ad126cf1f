package repository

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
)

func TestVisibilityRepository_ChecksAgreeWithCollects(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVisibilityRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	agent := testutil.CreateUser(t, db, "agent@example.com", models.RoleExternalAgency)

	assigned := testutil.CreateTask(t, db, "Assigned", owner.ID, func(task *models.Task) { task.AssigneeID = &agent.ID })
	parent := testutil.CreateTask(t, db, "Parent", owner.ID)
	testutil.CreateTask(t, db, "Child", owner.ID, func(task *models.Task) {
		task.ParentTaskID = &parent.ID
		task.AssigneeID = &agent.ID
	})
	teamTask := testutil.CreateTask(t, db, "Team", owner.ID)
	agency := testutil.CreateAgency(t, db, "Acme Creative")
	testutil.CreateAgencyTeam(t, db, "Agency crew", &agency.ID, agent.ID)
	require.NoError(t, db.Create(&models.TaskAgency{TaskID: teamTask.ID, AgencyID: agency.ID}).Error)
	watched := testutil.CreateTask(t, db, "Watched", owner.ID)
	require.NoError(t, db.Create(&models.Watcher{TaskID: watched.ID, UserID: agent.ID}).Error)
	mentioned := testutil.CreateTask(t, db, "Mentioned", owner.ID)
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{TaskID: mentioned.ID, UserID: owner.ID, Content: "@agent"}, []string{agent.ID}))
	hidden := testutil.CreateTask(t, db, "Hidden", owner.ID)

	tests := []struct {
		name    string
		check   func(ctx context.Context, userID, taskID string) (bool, error)
		collect func(ctx context.Context, userID string) ([]string, error)
		want    string
	}{
		{"assignee", repo.IsAssignee, repo.AssignedTaskIDs, assigned.ID},
		{"subtask assignee", repo.IsSubtaskAssignee, repo.SubtaskParentIDs, parent.ID},
		{"agency team", repo.IsAgencyTeamMember, repo.AgencyTeamTaskIDs, teamTask.ID},
		{"watcher", repo.IsWatcher, repo.WatchedTaskIDs, watched.ID},
		{"mention", repo.IsMentioned, repo.MentionedTaskIDs, mentioned.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tt.check(ctx, agent.ID, tt.want)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = tt.check(ctx, agent.ID, hidden.ID)
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = tt.check(ctx, agent.ID, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			ids, err := tt.collect(ctx, agent.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, ids)
		})
	}
}

func TestVisibilityRepository_TeamOfOtherAgencyIgnored(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVisibilityRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	agent := testutil.CreateUser(t, db, "agent@example.com", models.RoleExternalAgency)
	task := testutil.CreateTask(t, db, "Tagged elsewhere", owner.ID)
	tagged := testutil.CreateAgency(t, db, "Tagged")
	other := testutil.CreateAgency(t, db, "Other")
	testutil.CreateAgencyTeam(t, db, "Other crew", &other.ID, agent.ID)
	require.NoError(t, db.Create(&models.TaskAgency{TaskID: task.ID, AgencyID: tagged.ID}).Error)

	ok, err := repo.IsAgencyTeamMember(ctx, agent.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := repo.AgencyTeamTaskIDs(ctx, agent.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVisibilityRepository_ProjectAndProductIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVisibilityRepository(db)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	product := testutil.CreateProduct(t, db, "Product", &owner.ID)
	project := testutil.CreateProject(t, db, "Project", &product.ID, &owner.ID)
	a := testutil.CreateTask(t, db, "A", owner.ID, func(task *models.Task) {
		task.ProjectID = &project.ID
		task.ProductID = &product.ID
	})
	b := testutil.CreateTask(t, db, "B", owner.ID, func(task *models.Task) { task.ProjectID = &project.ID })
	c := testutil.CreateTask(t, db, "C", owner.ID)

	projectIDs, err := repo.ProjectIDsForTasks(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, projectIDs)

	productIDs, err := repo.ProductIDsForTasks(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	sort.Strings(productIDs)
	assert.Equal(t, []string{product.ID}, productIDs)

	empty, err := repo.ProjectIDsForTasks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
