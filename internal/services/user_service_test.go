package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
)

func TestUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin@example.com", models.RoleAdmin)

	_, err := f.users.UpdateRole(ctx, f.manager, f.author.ID, models.RoleViewer)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.users.UpdateRole(ctx, admin, f.author.ID, models.Role("Root"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.users.UpdateRole(ctx, admin, f.author.ID, models.RoleOwner)
	assert.ErrorIs(t, err, ErrOwnerProtected)

	_, err = f.users.UpdateRole(ctx, admin, f.owner.ID, models.RoleViewer)
	assert.ErrorIs(t, err, ErrOwnerProtected)

	_, err = f.users.UpdateRole(ctx, admin, "missing", models.RoleViewer)
	assert.ErrorIs(t, err, ErrUserNotFound)

	updated, err := f.users.UpdateRole(ctx, admin, f.author.ID, models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, updated.Role)

	var entry models.AuditLog
	require.NoError(t, f.db.Where("action = ?", "role_changed").First(&entry).Error)
	assert.Equal(t, f.author.ID, entry.EntityID)
	assert.Equal(t, "Contributor", entry.Metadata["from"])
	assert.Equal(t, "Manager", entry.Metadata["to"])
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.users.Deactivate(ctx, f.manager, f.author.ID), ErrPermissionDenied)
	assert.ErrorIs(t, f.users.Deactivate(ctx, f.owner, f.owner.ID), ErrOwnerProtected)
	require.NoError(t, f.users.Deactivate(ctx, f.owner, f.author.ID))

	_, err := f.auth.Authenticate(ctx, f.author.ID)
	assert.ErrorIs(t, err, ErrUserInactive)

	users, err := f.users.SearchUsers(ctx, "author")
	require.NoError(t, err)
	assert.Empty(t, users, "inactive users are not listed")
}

func TestSearchUsers_Capped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < constants.MaxUserSearchResults+5; i++ {
		testutil.CreateUser(t, f.db, fmt.Sprintf("bulk%03d@example.com", i), models.RoleViewer)
	}

	users, err := f.users.SearchUsers(context.Background(), "BULK")
	require.NoError(t, err)
	assert.Len(t, users, constants.MaxUserSearchResults)
}

func TestAuthService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, RegisterInput{ID: "sub-1", Email: " new@example.com ", FullName: "New Person"})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, models.RoleViewer, user.Role)

	_, err = f.auth.Register(ctx, RegisterInput{ID: "sub-1", Email: "again@example.com"})
	assert.ErrorIs(t, err, ErrProfileExists)

	_, err = f.auth.Register(ctx, RegisterInput{ID: "sub-2"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	got, err := f.auth.Authenticate(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)

	_, err = f.auth.Authenticate(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
