package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu     sync.Mutex
	sent   []Email
	result Result
}

func (m *recordingMailer) Send(_ context.Context, email Email) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return m.result
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.sent {
		out = append(out, e.To...)
	}
	return out
}

type notifierFixture struct {
	db       *gorm.DB
	notifier *Notifier
	mailer   *recordingMailer
	owner    *models.User
	dana     *models.User
	task     *models.Task
}

func newNotifierFixture(t *testing.T, result Result) *notifierFixture {
	t.Helper()
	db := testutil.NewDB(t)
	mailer := &recordingMailer{result: result}
	notifier := NewNotifier(
		repository.NewNotificationRepository(db),
		repository.NewTaskRepository(db),
		repository.NewUserRepository(db),
		repository.NewStatusRepository(db),
		mailer,
		zap.NewNop(),
	)

	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	dana := testutil.CreateUser(t, db, "dana@example.com", models.RoleContributor)
	product := testutil.CreateProduct(t, db, "Marketing", &owner.ID)
	project := testutil.CreateProject(t, db, "Website", &product.ID, &owner.ID)
	task := testutil.CreateTask(t, db, "Ship landing page", owner.ID, func(task *models.Task) {
		task.ProjectID = &project.ID
		task.ProductID = &product.ID
		task.AssigneeID = &dana.ID
	})

	return &notifierFixture{db: db, notifier: notifier, mailer: mailer, owner: owner, dana: dana, task: task}
}

func (f *notifierFixture) template(t *testing.T, typ models.NotificationType, subject, body string) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.NotificationTemplate{
		Name:             string(typ),
		NotificationType: typ,
		SubjectTemplate:  subject,
		BodyTemplate:     body,
		IsActive:         true,
	}).Error)
}

func (f *notifierFixture) notifications(t *testing.T) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Order("created_at ASC").Find(&out).Error)
	return out
}

func (f *notifierFixture) emailLogs(t *testing.T) []models.EmailLog {
	t.Helper()
	var out []models.EmailLog
	require.NoError(t, f.db.Find(&out).Error)
	return out
}

func TestNotifier_TaskAssigned(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})
	f.template(t, models.NotificationAssignment, "Assigned: {{task.title}}", "{{actor.name}} assigned you to {{task.title}} in {{project.name}}")

	f.notifier.TaskAssigned(context.Background(), f.task.ID, f.dana.ID, f.owner.ID)
	f.notifier.Wait()

	notifications := f.notifications(t)
	require.Len(t, notifications, 1)
	n := notifications[0]
	assert.Equal(t, f.dana.ID, n.RecipientID)
	assert.Equal(t, "Assigned: Ship landing page", n.Subject)
	assert.Equal(t, "owner@example.com assigned you to Ship landing page in Website", n.Body)
	assert.Equal(t, "task", *n.EntityType)
	assert.Equal(t, f.task.ID, *n.EntityID)
	assert.NotNil(t, n.SentAt)

	assert.Equal(t, []string{"dana@example.com"}, f.mailer.recipients())
	logs := f.emailLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailLogSent, logs[0].Status)
	assert.Equal(t, "dana@example.com", logs[0].RecipientEmail)
}

func TestNotifier_TaskAssignedWithoutTemplate(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})

	f.notifier.TaskAssigned(context.Background(), f.task.ID, f.dana.ID, f.owner.ID)
	f.notifier.Wait()

	assert.Empty(t, f.notifications(t))
	assert.Empty(t, f.mailer.recipients())
}

func TestNotifier_RespectsPreferences(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})
	f.template(t, models.NotificationAssignment, "Assigned", "body")
	require.NoError(t, f.db.Create(&models.UserNotificationSettings{UserID: f.dana.ID, EnableMentions: true}).Error)

	f.notifier.TaskAssigned(context.Background(), f.task.ID, f.dana.ID, f.owner.ID)
	f.notifier.Wait()

	assert.Empty(t, f.notifications(t))
}

func TestNotifier_FailedDeliveryIsLogged(t *testing.T) {
	f := newNotifierFixture(t, Result{Error: "connection refused"})

	f.notifier.Mentioned(context.Background(), f.task.ID, f.dana.ID, "please review", f.owner.ID)
	f.notifier.Wait()

	notifications := f.notifications(t)
	require.Len(t, notifications, 1)
	assert.Equal(t, "You were mentioned in: Ship landing page", notifications[0].Subject)
	assert.Contains(t, notifications[0].Body, `"please review"`)
	assert.Nil(t, notifications[0].SentAt)

	logs := f.emailLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmailLogFailed, logs[0].Status)
	require.NotNil(t, logs[0].ErrorMessage)
	assert.Equal(t, "connection refused", *logs[0].ErrorMessage)
}

func TestNotifier_StatusChangedSkipsActor(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})
	f.template(t, models.NotificationStatusChange, "Status of {{task.title}}", "{{old_status}} -> {{new_status}}")
	watcher := testutil.CreateUser(t, f.db, "watcher@example.com", models.RoleViewer)
	require.NoError(t, f.db.Create(&models.Watcher{TaskID: f.task.ID, UserID: watcher.ID}).Error)
	require.NoError(t, f.db.Create(&models.Watcher{TaskID: f.task.ID, UserID: f.owner.ID}).Error)
	todo := testutil.CreateStatus(t, f.db, "Todo", true, false)
	done := testutil.CreateStatus(t, f.db, "Done", false, true)

	f.notifier.StatusChanged(context.Background(), f.task.ID, todo.ID, done.ID, f.owner.ID)
	f.notifier.Wait()

	notifications := f.notifications(t)
	require.Len(t, notifications, 2)
	recipients := []string{notifications[0].RecipientID, notifications[1].RecipientID}
	assert.ElementsMatch(t, []string{f.dana.ID, watcher.ID}, recipients)
	assert.Equal(t, "Todo -> Done", notifications[0].Body)
}

func TestNotifier_WatcherAddedIgnoresSelf(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})
	ctx := context.Background()

	f.notifier.WatcherAdded(ctx, f.task.ID, f.owner.ID, f.owner.ID)
	f.notifier.WatcherAdded(ctx, f.task.ID, f.dana.ID, f.owner.ID)
	f.notifier.Wait()

	notifications := f.notifications(t)
	require.Len(t, notifications, 1)
	assert.Equal(t, f.dana.ID, notifications[0].RecipientID)
	assert.Equal(t, "You've been added as a watcher on: Ship landing page", notifications[0].Subject)
	assert.Contains(t, notifications[0].Body, "in project Website")
}

func TestNotifier_MissingTaskIsLoggedNotReturned(t *testing.T) {
	f := newNotifierFixture(t, Result{Success: true})

	assert.NotPanics(t, func() {
		f.notifier.TaskAssigned(context.Background(), "missing", f.dana.ID, f.owner.ID)
	})
	f.notifier.Wait()
	assert.Empty(t, f.notifications(t))
}
