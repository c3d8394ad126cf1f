package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrAgencyNotFound = errors.New("agency not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrMemberNotFound = errors.New("team member not found")

	ErrAlreadyTeamMember = &ValidationError{Message: "User is already a member of this team"}
	ErrUserIDRequired    = &ValidationError{Message: "user_id is required"}
)

// AgencyService handles agency business logic
type AgencyService struct {
	repo     repository.AgencyRepository
	teamRepo repository.TeamRepository
	audit    *AuditService
}

// NewAgencyService creates a new AgencyService
func NewAgencyService(repo repository.AgencyRepository, teamRepo repository.TeamRepository, audit *AuditService) *AgencyService {
	return &AgencyService{repo: repo, teamRepo: teamRepo, audit: audit}
}

// ListAgencies lists agencies by name, optionally matching search
func (s *AgencyService) ListAgencies(ctx context.Context, search string) ([]models.Agency, error) {
	agencies, _, err := s.repo.List(ctx, repository.ListOptions{
		Search:        search,
		SearchColumns: []string{"name", "description"},
		Order:         "name ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	return agencies, nil
}

// AgencyUser is a member of one or more of an agency's teams
type AgencyUser struct {
	models.User
	Teams []string `json:"teams"`
}

// AgencyDetail is an agency with its teams, their members, and the
// distinct users across those teams
type AgencyDetail struct {
	models.Agency
	Users []AgencyUser `json:"users"`
}

// GetAgency returns an agency with its teams and members
func (s *AgencyService) GetAgency(ctx context.Context, id string) (*AgencyDetail, error) {
	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAgencyNotFound, "find agency")
	}

	teams, _, err := s.teamRepo.List(ctx, repository.ListOptions{
		Equals:  map[string]any{"agency_id": id},
		Order:   "name ASC",
		Preload: []string{"Members.User"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agency teams: %w", err)
	}
	agency.Teams = teams

	detail := &AgencyDetail{Agency: *agency, Users: []AgencyUser{}}
	index := map[string]int{}
	for _, team := range teams {
		for _, member := range team.Members {
			if member.User == nil {
				continue
			}
			if i, ok := index[member.UserID]; ok {
				detail.Users[i].Teams = append(detail.Users[i].Teams, team.Name)
				continue
			}
			index[member.UserID] = len(detail.Users)
			detail.Users = append(detail.Users, AgencyUser{User: *member.User, Teams: []string{team.Name}})
		}
	}
	return detail, nil
}

// AgencyInput represents input for creating or updating an agency
type AgencyInput struct {
	Name         utils.Optional[string] `json:"name"`
	Description  utils.Optional[string] `json:"description"`
	ContactEmail utils.Optional[string] `json:"contact_email"`
	IsActive     utils.Optional[bool]   `json:"is_active"`
}

// CreateAgency creates an active agency
func (s *AgencyService) CreateAgency(ctx context.Context, actorID string, input AgencyInput) (*models.Agency, error) {
	if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
		return nil, invalid("Agency name is required")
	}
	agency := &models.Agency{
		Name:         strings.TrimSpace(*input.Name.Value),
		Description:  trimmedOrNil(input.Description.Value),
		ContactEmail: trimmedOrNil(input.ContactEmail.Value),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, agency); err != nil {
		return nil, fmt.Errorf("failed to create agency: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditCreate, "agency", agency.ID, map[string]any{"name": agency.Name})
	return agency, nil
}

// UpdateAgency applies a partial update
func (s *AgencyService) UpdateAgency(ctx context.Context, id, actorID string, input AgencyInput) (*models.Agency, error) {
	fields := map[string]any{}
	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, invalid("Agency name is required")
		}
		fields["name"] = strings.TrimSpace(*input.Name.Value)
	}
	if input.Description.Set {
		fields["description"] = trimmedOrNil(input.Description.Value)
	}
	if input.ContactEmail.Set {
		fields["contact_email"] = trimmedOrNil(input.ContactEmail.Value)
	}
	if input.IsActive.Value != nil {
		fields["is_active"] = *input.IsActive.Value
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, ErrAgencyNotFound, "find agency")
	}
	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update agency: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "agency", id, nil)

	agency, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrAgencyNotFound, "reload agency")
	}
	return agency, nil
}

// DeleteAgency removes an agency
func (s *AgencyService) DeleteAgency(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrAgencyNotFound, "delete agency")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "agency", id, nil)
	return nil
}

// trimmedOrNil returns nil for a missing or blank string.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// TeamService handles team and membership business logic
type TeamService struct {
	repo  repository.TeamRepository
	audit *AuditService
}

// NewTeamService creates a new TeamService
func NewTeamService(repo repository.TeamRepository, audit *AuditService) *TeamService {
	return &TeamService{repo: repo, audit: audit}
}

// ListTeams lists teams by name, optionally of one agency and with members
func (s *TeamService) ListTeams(ctx context.Context, agencyID string, withMembers bool) ([]models.Team, error) {
	opts := repository.ListOptions{Order: "name ASC"}
	if agencyID != "" {
		opts.Equals = map[string]any{"agency_id": agencyID}
	}
	if withMembers {
		opts.Preload = []string{"Members.User"}
	}
	teams, _, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

// GetTeam returns a team with its agency and members
func (s *TeamService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, id, "Agency", "Members.User")
	if err != nil {
		return nil, notFound(err, ErrTeamNotFound, "find team")
	}
	return team, nil
}

// TeamInput represents input for creating or updating a team
type TeamInput struct {
	Name         utils.Optional[string] `json:"name"`
	Description  utils.Optional[string] `json:"description"`
	AgencyID     utils.Optional[string] `json:"agency_id"`
	IsAgencyTeam utils.Optional[bool]   `json:"is_agency_team"`
}

// CreateTeam creates a team
func (s *TeamService) CreateTeam(ctx context.Context, actorID string, input TeamInput) (*models.Team, error) {
	if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
		return nil, ErrNameRequired
	}
	team := &models.Team{
		Name:        strings.TrimSpace(*input.Name.Value),
		Description: input.Description.Value,
		AgencyID:    trimmedOrNil(input.AgencyID.Value),
	}
	if input.IsAgencyTeam.Value != nil {
		team.IsAgencyTeam = *input.IsAgencyTeam.Value
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditCreate, "team", team.ID, map[string]any{"name": team.Name})
	return team, nil
}

// UpdateTeam applies a partial update
func (s *TeamService) UpdateTeam(ctx context.Context, id, actorID string, input TeamInput) (*models.Team, error) {
	fields := map[string]any{}
	if input.Name.Set {
		if input.Name.Value == nil || strings.TrimSpace(*input.Name.Value) == "" {
			return nil, ErrNameRequired
		}
		fields["name"] = strings.TrimSpace(*input.Name.Value)
	}
	setColumn(fields, "description", input.Description)
	if input.AgencyID.Set {
		fields["agency_id"] = trimmedOrNil(input.AgencyID.Value)
	}
	if input.IsAgencyTeam.Value != nil {
		fields["is_agency_team"] = *input.IsAgencyTeam.Value
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, notFound(err, ErrTeamNotFound, "find team")
	}
	if err := s.repo.Updates(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	s.audit.Log(ctx, actorID, AuditUpdate, "team", id, nil)
	return s.GetTeam(ctx, id)
}

// DeleteTeam removes a team with its memberships
func (s *TeamService) DeleteTeam(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, ErrTeamNotFound, "delete team")
	}
	s.audit.Log(ctx, actorID, AuditDelete, "team", id, nil)
	return nil
}

// ListMembers lists the users of a team
func (s *TeamService) ListMembers(ctx context.Context, teamID string) ([]models.User, error) {
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	users := make([]models.User, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			users = append(users, *m.User)
		}
	}
	return users, nil
}

// AddMember adds userID to a team
func (s *TeamService) AddMember(ctx context.Context, teamID, userID, actorID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return notFound(err, ErrTeamNotFound, "find team")
	}
	member, err := s.repo.IsMember(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to check team membership: %w", err)
	}
	if member {
		return ErrAlreadyTeamMember
	}
	if err := s.repo.AddMember(ctx, teamID, userID); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	s.audit.Log(ctx, actorID, "member_added", "team", teamID, map[string]any{"user_id": userID})
	return nil
}

// RemoveMember removes userID from a team
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID, actorID string) error {
	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return notFound(err, ErrMemberNotFound, "remove team member")
	}
	s.audit.Log(ctx, actorID, "member_removed", "team", teamID, map[string]any{"user_id": userID})
	return nil
}

// TeamsForUser lists the teams a user belongs to
func (s *TeamService) TeamsForUser(ctx context.Context, userID string) ([]models.Team, error) {
	teams, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	return teams, nil
}
