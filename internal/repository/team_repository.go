package repository

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	*GormCrudRepository[models.Team]
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{
		GormCrudRepository: NewCrudRepository[models.Team](db),
		db:                 db,
	}
}

// Delete removes a team together with its memberships and task tags
func (r *GormTeamRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		for _, assoc := range []any{&models.TaskTeam{}, &models.ProjectTeam{}} {
			if err := tx.Where("team_id = ?", id).Delete(assoc).Error; err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Team{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddMember adds a user to a team, ignoring an existing membership
func (r *GormTeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TeamMember{TeamID: teamID, UserID: userID}).Error
}

// RemoveMember removes a user from a team
func (r *GormTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMembers lists the members of a team with their users
func (r *GormTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	members := []models.TeamMember{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// ListForUser lists the teams a user belongs to
func (r *GormTeamRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	teams := []models.Team{}
	err := r.db.WithContext(ctx).
		Preload("Agency").
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Order("teams.name ASC").
		Find(&teams).Error
	return teams, err
}

// CountByIDs counts how many of ids exist
func (r *GormTeamRepository) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Team{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

// GormStatusRepository is a GORM implementation of StatusRepository
type GormStatusRepository struct {
	*GormCrudRepository[models.Status]
	db *gorm.DB
}

// NewStatusRepository creates a new StatusRepository
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &GormStatusRepository{
		GormCrudRepository: NewCrudRepository[models.Status](db),
		db:                 db,
	}
}

// FindDefault returns the status flagged as default
func (r *GormStatusRepository) FindDefault(ctx context.Context) (*models.Status, error) {
	var status models.Status
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("order_index ASC").
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Updates applies a partial update to a status. A rename is copied onto
// the denormalised status name of every task in that status.
func (r *GormStatusRepository) Updates(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Status{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		name, ok := fields["name"]
		if !ok {
			return nil
		}
		return tx.Model(&models.Task{}).Where("status_id = ?", id).Update("status", name).Error
	})
}

// Delete removes a status. Tasks in it are left without a status.
func (r *GormStatusRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Task{}).Where("status_id = ?", id).
			Updates(map[string]any{"status_id": nil, "status": ""}).Error
		if err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.Status{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsMember reports whether a user belongs to a team
func (r *GormTeamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}
