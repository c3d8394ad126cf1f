package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a comment together with its mention rows
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment, mentionIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		if len(mentionIDs) == 0 {
			return nil
		}
		mentions := make([]models.CommentMention, 0, len(mentionIDs))
		for _, userID := range mentionIDs {
			mentions = append(mentions, models.CommentMention{CommentID: comment.ID, UserID: userID})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mentions).Error
	})
}

// ListByTask lists a task's comments, oldest first, with authors and mentions
func (r *GormCommentRepository) ListByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Mentions.User").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// FindForTask finds a comment that belongs to the given task
func (r *GormCommentRepository) FindForTask(ctx context.Context, taskID, commentID string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", commentID, taskID).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Delete removes a comment and its mentions
func (r *GormCommentRepository) Delete(ctx context.Context, commentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", commentID).Delete(&models.CommentMention{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", commentID).Delete(&models.Comment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
