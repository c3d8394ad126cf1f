package services

import "context"

// TaskNotifier delivers task notifications. Implementations must not block
// the caller on delivery and report their own failures.
type TaskNotifier interface {
	TaskAssigned(ctx context.Context, taskID, assigneeID, actorID string)
	StatusChanged(ctx context.Context, taskID, oldStatusID, newStatusID, actorID string)
	Mentioned(ctx context.Context, taskID, mentionedID, content, actorID string)
	WatcherAdded(ctx context.Context, taskID, watcherID, actorID string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) TaskAssigned(context.Context, string, string, string)          {}
func (NopNotifier) StatusChanged(context.Context, string, string, string, string) {}
func (NopNotifier) Mentioned(context.Context, string, string, string, string)     {}
func (NopNotifier) WatcherAdded(context.Context, string, string, string)          {}
