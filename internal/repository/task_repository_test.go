package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"gorm.io/gorm"
)

// TaskRepositoryTestSuite defines the test suite for GormTaskRepository
type TaskRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	repo  TaskRepository
	ctx   context.Context
	owner *models.User
}

// SetupTest runs before each test
func (suite *TaskRepositoryTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.repo = NewTaskRepository(suite.db)
	suite.ctx = context.Background()
	suite.owner = testutil.CreateUser(suite.T(), suite.db, "owner@example.com", models.RoleOwner)
}

func intPtr(v int) *int { return &v }

func (suite *TaskRepositoryTestSuite) TestList_TopLevelOnly() {
	parent := testutil.CreateTask(suite.T(), suite.db, "Parent", suite.owner.ID)
	testutil.CreateTask(suite.T(), suite.db, "Child", suite.owner.ID, func(t *models.Task) {
		t.ParentTaskID = &parent.ID
	})

	tasks, total, err := suite.repo.List(suite.ctx, TaskFilter{TopLevelOnly: true})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Len(tasks, 1)
	suite.Equal("Parent", tasks[0].Title)
}

func (suite *TaskRepositoryTestSuite) TestList_RestrictIDsEmpty() {
	testutil.CreateTask(suite.T(), suite.db, "Hidden", suite.owner.ID)

	tasks, total, err := suite.repo.List(suite.ctx, TaskFilter{RestrictIDs: true})
	suite.Require().NoError(err)
	suite.Zero(total)
	suite.Empty(tasks)
}

func (suite *TaskRepositoryTestSuite) TestList_FilterByTeam() {
	tagged := testutil.CreateTask(suite.T(), suite.db, "Tagged", suite.owner.ID)
	testutil.CreateTask(suite.T(), suite.db, "Untagged", suite.owner.ID)
	team := testutil.CreateAgencyTeam(suite.T(), suite.db, "Design", nil)
	suite.Require().NoError(suite.repo.AddTeams(suite.ctx, tagged.ID, []string{team.ID}))

	tasks, total, err := suite.repo.List(suite.ctx, TaskFilter{TeamID: &team.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Equal(tagged.ID, tasks[0].ID)
	suite.Len(tasks[0].Teams, 1)
}

func (suite *TaskRepositoryTestSuite) TestList_PriorityOrderNullsLast() {
	testutil.CreateTask(suite.T(), suite.db, "Unordered", suite.owner.ID)
	testutil.CreateTask(suite.T(), suite.db, "Second", suite.owner.ID, func(t *models.Task) { t.PriorityOrder = intPtr(2) })
	testutil.CreateTask(suite.T(), suite.db, "First", suite.owner.ID, func(t *models.Task) { t.PriorityOrder = intPtr(1) })

	tasks, _, err := suite.repo.List(suite.ctx, TaskFilter{SortBy: "priority_order", SortAsc: true})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 3)
	suite.Equal([]string{"First", "Second", "Unordered"}, []string{tasks[0].Title, tasks[1].Title, tasks[2].Title})
}

func (suite *TaskRepositoryTestSuite) TestList_Pagination() {
	for _, title := range []string{"a", "b", "c"} {
		testutil.CreateTask(suite.T(), suite.db, title, suite.owner.ID)
	}

	tasks, total, err := suite.repo.List(suite.ctx, TaskFilter{SortBy: "title", SortAsc: true, Page: 2, PageSize: 2})
	suite.Require().NoError(err)
	suite.Equal(int64(3), total)
	suite.Require().Len(tasks, 1)
	suite.Equal("c", tasks[0].Title)
}

func (suite *TaskRepositoryTestSuite) TestAddTeams_DuplicateIsUniqueViolation() {
	task := testutil.CreateTask(suite.T(), suite.db, "Task", suite.owner.ID)
	team := testutil.CreateAgencyTeam(suite.T(), suite.db, "Ops", nil)
	suite.Require().NoError(suite.repo.AddTeams(suite.ctx, task.ID, []string{team.ID}))

	err := suite.repo.AddTeams(suite.ctx, task.ID, []string{team.ID})
	suite.ErrorIs(err, gorm.ErrDuplicatedKey)
}

func (suite *TaskRepositoryTestSuite) TestWatchers_Idempotent() {
	task := testutil.CreateTask(suite.T(), suite.db, "Task", suite.owner.ID)

	suite.Require().NoError(suite.repo.AddWatchers(suite.ctx, task.ID, []string{suite.owner.ID}))
	suite.Require().NoError(suite.repo.AddWatchers(suite.ctx, task.ID, []string{suite.owner.ID}))

	watchers, err := suite.repo.ListWatchers(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Len(watchers, 1)

	watching, err := suite.repo.IsWatching(suite.ctx, task.ID, suite.owner.ID)
	suite.Require().NoError(err)
	suite.True(watching)
}

func (suite *TaskRepositoryTestSuite) TestDelete_RemovesSubtasksAndAssociations() {
	parent := testutil.CreateTask(suite.T(), suite.db, "Parent", suite.owner.ID)
	child := testutil.CreateTask(suite.T(), suite.db, "Child", suite.owner.ID, func(t *models.Task) {
		t.ParentTaskID = &parent.ID
	})
	suite.Require().NoError(suite.repo.AddWatchers(suite.ctx, parent.ID, []string{suite.owner.ID}))
	comment := &models.Comment{TaskID: parent.ID, UserID: suite.owner.ID, Content: "hi"}
	suite.Require().NoError(NewCommentRepository(suite.db).Create(suite.ctx, comment, []string{suite.owner.ID}))

	suite.Require().NoError(suite.repo.Delete(suite.ctx, parent.ID))

	var count int64
	suite.db.Model(&models.Task{}).Where("id IN ?", []string{parent.ID, child.ID}).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.Watcher{}).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.Comment{}).Count(&count)
	suite.Zero(count)
	suite.db.Model(&models.CommentMention{}).Count(&count)
	suite.Zero(count)
}

func (suite *TaskRepositoryTestSuite) TestDelete_NotFound() {
	err := suite.repo.Delete(suite.ctx, "missing")
	suite.ErrorIs(err, gorm.ErrRecordNotFound)
}

// TestTaskRepositoryTestSuite runs the test suite
func TestTaskRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TaskRepositoryTestSuite))
}
