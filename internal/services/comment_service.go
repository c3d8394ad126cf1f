package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrCommentNotFound = errors.New("comment not found")

	ErrContentRequired = &ValidationError{Message: "Comment content is required"}
)

// CommentService handles task comments and mentions
type CommentService struct {
	repo     repository.CommentRepository
	taskRepo repository.TaskRepository
	notifier TaskNotifier
	log      *zap.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(repo repository.CommentRepository, taskRepo repository.TaskRepository, notifier TaskNotifier, log *zap.Logger) *CommentService {
	return &CommentService{repo: repo, taskRepo: taskRepo, notifier: notifier, log: log}
}

// ListComments lists a task's comments oldest first. Internal-only
// comments are dropped for External Agency principals.
func (s *CommentService) ListComments(ctx context.Context, principal *models.User, taskID string) ([]models.Comment, error) {
	comments, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return FilterInternalOnly(comments, principal.Role), nil
}

// AddCommentInput represents input for adding a comment
type AddCommentInput struct {
	Content        string
	IsInternalOnly bool
	Mentions       []string
}

// AddComment posts a comment on a task and notifies every mentioned user.
// External Agency principals can only post public comments.
func (s *CommentService) AddComment(ctx context.Context, principal *models.User, taskID string, input AddCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}

	comment := &models.Comment{
		TaskID:         taskID,
		UserID:         principal.ID,
		Content:        input.Content,
		IsInternalOnly: input.IsInternalOnly && !principal.IsExternal(),
	}
	mentions := uniqueIDs(input.Mentions)
	if err := s.repo.Create(ctx, comment, mentions); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.log.Debug("comment created",
		zap.String("task_id", taskID),
		zap.String("comment_id", comment.ID),
		zap.Int("mentions", len(mentions)),
	)
	for _, userID := range mentions {
		s.notifier.Mentioned(ctx, taskID, userID, input.Content, principal.ID)
	}

	return comment, nil
}

// DeleteComment removes a comment. Authors may delete their own comments,
// management roles may delete any.
func (s *CommentService) DeleteComment(ctx context.Context, principal *models.User, taskID, commentID string) error {
	comment, err := s.repo.FindForTask(ctx, taskID, commentID)
	if err != nil {
		return notFound(err, ErrCommentNotFound, "find comment")
	}
	if comment.UserID != principal.ID && !principal.Role.In(models.ManagementRoles...) {
		return ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
