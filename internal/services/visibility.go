package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// visibilityRule is one way an External Agency user can come to see a task.
// check answers for a single task, collect lists every task it admits.
type visibilityRule struct {
	name    string
	check   func(ctx context.Context, userID, taskID string) (bool, error)
	collect func(ctx context.Context, userID string) ([]string, error)
}

// VisibilityService decides which tasks, projects and products an External
// Agency user may see. Every other role sees everything.
type VisibilityService struct {
	userRepo repository.UserRepository
	repo     repository.VisibilityRepository
	rules    []visibilityRule
}

// NewVisibilityService creates a new VisibilityService
func NewVisibilityService(userRepo repository.UserRepository, repo repository.VisibilityRepository) *VisibilityService {
	return &VisibilityService{
		userRepo: userRepo,
		repo:     repo,
		rules: []visibilityRule{
			{"assignee", repo.IsAssignee, repo.AssignedTaskIDs},
			{"subtask_assignee", repo.IsSubtaskAssignee, repo.SubtaskParentIDs},
			{"agency_team", repo.IsAgencyTeamMember, repo.AgencyTeamTaskIDs},
			{"watcher", repo.IsWatcher, repo.WatchedTaskIDs},
			{"mention", repo.IsMentioned, repo.MentionedTaskIDs},
		},
	}
}

// CanSeeTask reports whether the user may see the task. A missing user sees
// nothing; a failed role lookup denies and returns the error.
func (s *VisibilityService) CanSeeTask(ctx context.Context, userID, taskID string) (bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve role: %w", err)
	}
	if !user.IsExternal() {
		return true, nil
	}
	return s.matchesAnyRule(ctx, userID, taskID)
}

func (s *VisibilityService) matchesAnyRule(ctx context.Context, userID, taskID string) (bool, error) {
	for _, rule := range s.rules {
		ok, err := rule.check(ctx, userID, taskID)
		if err != nil {
			return false, fmt.Errorf("visibility rule %s: %w", rule.name, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// VisibleTaskIDs returns, sorted, every task the rules admit for userID.
// It evaluates the rules regardless of role; callers gate on role.
func (s *VisibilityService) VisibleTaskIDs(ctx context.Context, userID string) ([]string, error) {
	var (
		mu   sync.Mutex
		seen = map[string]struct{}{}
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, rule := range s.rules {
		g.Go(func() error {
			ids, err := rule.collect(gctx, userID)
			if err != nil {
				return fmt.Errorf("visibility rule %s: %w", rule.name, err)
			}
			mu.Lock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// VisibleProjectIDs returns the projects of the user's visible tasks.
func (s *VisibilityService) VisibleProjectIDs(ctx context.Context, userID string) ([]string, error) {
	taskIDs, err := s.VisibleTaskIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(taskIDs) == 0 {
		return []string{}, nil
	}
	ids, err := s.repo.ProjectIDsForTasks(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visible projects: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// VisibleProductIDs returns the products of the user's visible tasks.
func (s *VisibilityService) VisibleProductIDs(ctx context.Context, userID string) ([]string, error) {
	taskIDs, err := s.VisibleTaskIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(taskIDs) == 0 {
		return []string{}, nil
	}
	ids, err := s.repo.ProductIDsForTasks(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visible products: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Scope is the row restriction a listing applies for a principal.
type Scope struct {
	Restricted bool
	IDs        []string
}

// Allows reports whether the scope admits id
func (s Scope) Allows(id string) bool {
	if !s.Restricted {
		return true
	}
	for _, allowed := range s.IDs {
		if allowed == id {
			return true
		}
	}
	return false
}

type ScopeKind int

const (
	ScopeTasks ScopeKind = iota
	ScopeProjects
	ScopeProducts
)

// Scope resolves the listing restriction for a principal. Only External
// Agency principals are restricted.
func (s *VisibilityService) Scope(ctx context.Context, principal *models.User, kind ScopeKind) (Scope, error) {
	if !principal.IsExternal() {
		return Scope{}, nil
	}

	var (
		ids []string
		err error
	)
	switch kind {
	case ScopeProjects:
		ids, err = s.VisibleProjectIDs(ctx, principal.ID)
	case ScopeProducts:
		ids, err = s.VisibleProductIDs(ctx, principal.ID)
	default:
		ids, err = s.VisibleTaskIDs(ctx, principal.ID)
	}
	if err != nil {
		return Scope{}, err
	}
	return Scope{Restricted: true, IDs: ids}, nil
}

// InternalOnlyFlagged is anything that can be hidden from External Agency users.
type InternalOnlyFlagged interface {
	InternalOnly() bool
}

// FilterInternalOnly drops internal-only items when role is External Agency
// and returns items unchanged for every other role.
func FilterInternalOnly[T InternalOnlyFlagged](items []T, role models.Role) []T {
	if role != models.RoleExternalAgency {
		return items
	}
	visible := make([]T, 0, len(items))
	for _, item := range items {
		if !item.InternalOnly() {
			visible = append(visible, item)
		}
	}
	return visible
}
