package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityTask = "task"

// Notifier records task notifications and emails them in the background.
// Its methods never fail the caller: every error is logged.
type Notifier struct {
	repo     repository.NotificationRepository
	tasks    repository.TaskRepository
	users    repository.UserRepository
	statuses repository.StatusRepository
	mailer   Mailer
	log      *zap.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewNotifier creates a new Notifier
func NewNotifier(
	repo repository.NotificationRepository,
	tasks repository.TaskRepository,
	users repository.UserRepository,
	statuses repository.StatusRepository,
	mailer Mailer,
	log *zap.Logger,
) *Notifier {
	return &Notifier{
		repo:     repo,
		tasks:    tasks,
		users:    users,
		statuses: statuses,
		mailer:   mailer,
		log:      log,
		now:      time.Now,
	}
}

// Wait blocks until every pending email has been handled
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) loadTask(ctx context.Context, taskID string, preload ...string) (*models.Task, error) {
	preload = append([]string{"Project", "Product"}, preload...)
	return n.tasks.FindByID(ctx, taskID, preload...)
}

// user returns the named user, or nil when it cannot be loaded
func (n *Notifier) user(ctx context.Context, id string) *models.User {
	user, err := n.users.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			n.log.Warn("failed to load notification user", zap.String("user_id", id), zap.Error(err))
		}
		return nil
	}
	return user
}

// template returns the active template for t, or nil when there is none
func (n *Notifier) template(ctx context.Context, t models.NotificationType) (*models.NotificationTemplate, error) {
	tpl, err := n.repo.ActiveTemplate(ctx, t)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return tpl, err
}

// TaskAssigned notifies the new assignee of a task
func (n *Notifier) TaskAssigned(ctx context.Context, taskID, assigneeID, actorID string) {
	if err := n.taskAssigned(ctx, taskID, assigneeID, actorID); err != nil {
		n.log.Error("failed to notify task assignment", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (n *Notifier) taskAssigned(ctx context.Context, taskID, assigneeID, actorID string) error {
	task, err := n.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	tpl, err := n.template(ctx, models.NotificationAssignment)
	if err != nil || tpl == nil {
		return err
	}
	data := TemplateData{Task: task, Actor: n.user(ctx, actorID), Recipient: n.user(ctx, assigneeID)}
	return n.create(ctx, models.Notification{
		RecipientID:      assigneeID,
		NotificationType: models.NotificationAssignment,
		Subject:          Render(tpl.SubjectTemplate, data),
		Body:             Render(tpl.BodyTemplate, data),
	}, taskID)
}

// StatusChanged notifies the assignee and watchers of a task, except the actor
func (n *Notifier) StatusChanged(ctx context.Context, taskID, oldStatusID, newStatusID, actorID string) {
	if err := n.statusChanged(ctx, taskID, oldStatusID, newStatusID, actorID); err != nil {
		n.log.Error("failed to notify status change", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (n *Notifier) statusName(ctx context.Context, id string) string {
	if id == "" {
		return ""
	}
	status, err := n.statuses.FindByID(ctx, id)
	if err != nil {
		return ""
	}
	return status.Name
}

func (n *Notifier) statusChanged(ctx context.Context, taskID, oldStatusID, newStatusID, actorID string) error {
	task, err := n.loadTask(ctx, taskID, "Watchers")
	if err != nil {
		return err
	}
	tpl, err := n.template(ctx, models.NotificationStatusChange)
	if err != nil || tpl == nil {
		return err
	}

	data := TemplateData{
		Task:      task,
		Actor:     n.user(ctx, actorID),
		OldStatus: n.statusName(ctx, oldStatusID),
		NewStatus: n.statusName(ctx, newStatusID),
	}

	var recipients []string
	seen := map[string]bool{actorID: true}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}
	if task.AssigneeID != nil {
		add(*task.AssigneeID)
	}
	for _, w := range task.Watchers {
		add(w.UserID)
	}

	var errs []error
	for _, id := range recipients {
		data.Recipient = n.user(ctx, id)
		err := n.create(ctx, models.Notification{
			RecipientID:      id,
			NotificationType: models.NotificationStatusChange,
			Subject:          Render(tpl.SubjectTemplate, data),
			Body:             Render(tpl.BodyTemplate, data),
		}, taskID)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Mentioned notifies a user mentioned in a comment. Without an active
// mention template a built-in message is used.
func (n *Notifier) Mentioned(ctx context.Context, taskID, mentionedID, content, actorID string) {
	if err := n.mentioned(ctx, taskID, mentionedID, content, actorID); err != nil {
		n.log.Error("failed to notify mention", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (n *Notifier) mentioned(ctx context.Context, taskID, mentionedID, content, actorID string) error {
	task, err := n.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	tpl, err := n.template(ctx, models.NotificationMention)
	if err != nil {
		return err
	}

	actor := n.user(ctx, actorID)
	var subject, body string
	if tpl != nil {
		data := TemplateData{Task: task, Actor: actor, Recipient: n.user(ctx, mentionedID), Comment: &content}
		subject = Render(tpl.SubjectTemplate, data)
		body = Render(tpl.BodyTemplate, data)
	} else {
		n.log.Warn("no mention template found, using fallback")
		subject = "You were mentioned in: " + task.Title
		body = fmt.Sprintf("%s mentioned you in a comment on %q:\n\n%q", nameOr(actor, "Someone"), task.Title, content)
	}

	return n.create(ctx, models.Notification{
		RecipientID:      mentionedID,
		NotificationType: models.NotificationMention,
		Subject:          subject,
		Body:             body,
	}, taskID)
}

// WatcherAdded notifies a user added as a watcher by someone else
func (n *Notifier) WatcherAdded(ctx context.Context, taskID, watcherID, actorID string) {
	if watcherID == actorID {
		return
	}
	if err := n.watcherAdded(ctx, taskID, watcherID, actorID); err != nil {
		n.log.Error("failed to notify watcher", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (n *Notifier) watcherAdded(ctx context.Context, taskID, watcherID, actorID string) error {
	task, err := n.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	project := "Unknown"
	if task.Project != nil {
		project = task.Project.Name
	}
	return n.create(ctx, models.Notification{
		RecipientID:      watcherID,
		NotificationType: models.NotificationWatcher,
		Subject:          "You've been added as a watcher on: " + task.Title,
		Body: fmt.Sprintf("%s added you as a watcher on the task %q in project %s.\n\n"+
			"You will now receive notifications about updates to this task.",
			nameOr(n.user(ctx, actorID), "Someone"), task.Title, project),
	}, taskID)
}

// create stores a notification the recipient has not opted out of and
// emails it in the background
func (n *Notifier) create(ctx context.Context, notification models.Notification, taskID string) error {
	prefs, err := n.repo.Preferences(ctx, notification.RecipientID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load notification preferences: %w", err)
	}
	if !prefs.Allows(notification.NotificationType) {
		n.log.Debug("notification skipped by preference",
			zap.String("recipient_id", notification.RecipientID),
			zap.String("type", string(notification.NotificationType)),
		)
		return nil
	}

	entityType, entityID := entityTask, taskID
	notification.EntityType = &entityType
	notification.EntityID = &entityID
	if err := n.repo.CreateNotification(ctx, &notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.NotificationDeadline)
		defer cancel()
		n.deliver(sendCtx, notification)
	}()
	return nil
}

// deliver emails a stored notification and records the attempt
func (n *Notifier) deliver(ctx context.Context, notification models.Notification) {
	entry := &models.EmailLog{
		NotificationID: &notification.ID,
		RecipientEmail: "unknown",
		Subject:        notification.Subject,
		Status:         models.EmailLogFailed,
	}
	defer func() {
		if err := n.repo.CreateEmailLog(ctx, entry); err != nil {
			n.log.Error("failed to record email log", zap.String("notification_id", notification.ID), zap.Error(err))
		}
	}()

	recipient, err := n.users.FindByID(ctx, notification.RecipientID)
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
		n.log.Error("notification recipient not found", zap.String("recipient_id", notification.RecipientID), zap.Error(err))
		return
	}
	entry.RecipientEmail = recipient.Email

	result := n.mailer.Send(ctx, Email{
		To:      []string{recipient.Email},
		Subject: notification.Subject,
		Text:    notification.Body,
		HTML:    htmlBody(notification.Body),
	})
	if !result.Success {
		entry.ErrorMessage = &result.Error
		return
	}

	sentAt := n.now()
	entry.Status = models.EmailLogSent
	entry.SentAt = &sentAt
	if err := n.repo.MarkSent(ctx, notification.ID, sentAt); err != nil {
		n.log.Error("failed to mark notification sent", zap.String("notification_id", notification.ID), zap.Error(err))
	}
}
