package services

import (
	"context"
	"sync"
	"testing"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/reporting"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// notification is one call recorded by recordingNotifier
type notification struct {
	kind      string
	taskID    string
	recipient string
	actor     string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) record(kind, taskID, recipient, actor string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind, taskID, recipient, actor})
}

func (n *recordingNotifier) TaskAssigned(_ context.Context, taskID, assigneeID, actorID string) {
	n.record("assigned", taskID, assigneeID, actorID)
}

func (n *recordingNotifier) StatusChanged(_ context.Context, taskID, _, _, actorID string) {
	n.record("status", taskID, "", actorID)
}

func (n *recordingNotifier) Mentioned(_ context.Context, taskID, mentionedID, _, actorID string) {
	n.record("mentioned", taskID, mentionedID, actorID)
}

func (n *recordingNotifier) WatcherAdded(_ context.Context, taskID, watcherID, actorID string) {
	n.record("watcher", taskID, watcherID, actorID)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.kind
	}
	return out
}

// fixture wires every service against a fresh in-memory database
type fixture struct {
	db         *gorm.DB
	notifier   *recordingNotifier
	visibility *VisibilityService
	audit      *AuditService
	tasks      *TaskService
	comments   *CommentService
	checklist  *ChecklistService
	values     *FieldValueService
	projects   *ProjectService
	products   *ProductService
	teams      *TeamService
	users      *UserService
	auth       *AuthService
	reports    *ReportService
	widgets    *WidgetReportService

	owner    *models.User
	manager  *models.User
	author   *models.User
	external *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	notifier := &recordingNotifier{}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	labelRepo := repository.NewLabelRepository(db)
	projectStatusRepo := repository.NewProjectStatusRepository(db)

	visibility := NewVisibilityService(userRepo, repository.NewVisibilityRepository(db))
	audit := NewAuditService(repository.NewAuditLogRepository(db), log)
	engine := reporting.NewEngine(db, visibility, log)

	return &fixture{
		db:         db,
		notifier:   notifier,
		visibility: visibility,
		audit:      audit,
		tasks:      NewTaskService(taskRepo, projectRepo, repository.NewStatusRepository(db), labelRepo, teamRepo, visibility, notifier, audit, log),
		comments:   NewCommentService(repository.NewCommentRepository(db), taskRepo, notifier, log),
		checklist:  NewChecklistService(repository.NewChecklistRepository(db), taskRepo, audit),
		values:     NewFieldValueService(repository.NewFieldValueRepository(db), repository.NewCrudRepository[models.CustomField](db), taskRepo, audit),
		projects:   NewProjectService(projectRepo, projectStatusRepo, labelRepo, teamRepo, visibility, audit, log),
		products:   NewProductService(repository.NewProductRepository(db), visibility, audit),
		teams:      NewTeamService(teamRepo, audit),
		users:      NewUserService(userRepo, audit),
		auth:       NewAuthService(userRepo),
		reports:    NewReportService(repository.NewReportRepository(db), engine, audit),
		widgets:    NewWidgetReportService(repository.NewWidgetReportRepository(db), engine),

		owner:    testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner),
		manager:  testutil.CreateUser(t, db, "manager@example.com", models.RoleManager),
		author:   testutil.CreateUser(t, db, "author@example.com", models.RoleContributor),
		external: testutil.CreateUser(t, db, "agency@example.com", models.RoleExternalAgency),
	}
}

func ptr[T any](v T) *T {
	return &v
}
