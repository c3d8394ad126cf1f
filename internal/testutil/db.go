// Package testutil holds the in-memory database and fixtures shared by
// package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/database"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so all queries see the same memory DB.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	database.SetDB(db)
	return db
}

// CreateUser inserts an active user with the given role.
func CreateUser(t testing.TB, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Email: email, FullName: email, Role: role, IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProduct inserts a product owned by ownerID.
func CreateProduct(t testing.TB, db *gorm.DB, name string, ownerID *string) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, OwnerID: ownerID}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateProject inserts a project under productID.
func CreateProject(t testing.TB, db *gorm.DB, name string, productID, ownerID *string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, ProductID: productID, OwnerID: ownerID}
	require.NoError(t, db.Create(project).Error)
	return project
}

// CreateStatus inserts a workflow status.
func CreateStatus(t testing.TB, db *gorm.DB, name string, isDefault, isClosed bool) *models.Status {
	t.Helper()
	status := &models.Status{Name: name, IsDefault: isDefault, IsClosed: isClosed}
	require.NoError(t, db.Create(status).Error)
	return status
}

// CreateTask inserts a task. Optional fields are set by the caller through mutate.
func CreateTask(t testing.TB, db *gorm.DB, title, createdBy string, mutate ...func(*models.Task)) *models.Task {
	t.Helper()
	task := &models.Task{Title: title, CreatedBy: createdBy}
	for _, m := range mutate {
		m(task)
	}
	require.NoError(t, db.Omit(clause.Associations).Create(task).Error)
	return task
}

// CreateAgency inserts an active agency.
func CreateAgency(t testing.TB, db *gorm.DB, name string) *models.Agency {
	t.Helper()
	agency := &models.Agency{Name: name, IsActive: true}
	require.NoError(t, db.Create(agency).Error)
	return agency
}

// CreateAgencyTeam inserts a team under agencyID and adds members to it.
func CreateAgencyTeam(t testing.TB, db *gorm.DB, name string, agencyID *string, memberIDs ...string) *models.Team {
	t.Helper()
	team := &models.Team{Name: name, AgencyID: agencyID, IsAgencyTeam: agencyID != nil}
	require.NoError(t, db.Omit(clause.Associations).Create(team).Error)
	for _, id := range memberIDs {
		require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: id}).Error)
	}
	return team
}

// CreateLabel inserts a label.
func CreateLabel(t testing.TB, db *gorm.DB, name string) *models.Label {
	t.Helper()
	label := &models.Label{Name: name, Color: "#3B82F6"}
	require.NoError(t, db.Create(label).Error)
	return label
}

// CreateCustomField inserts a text custom field.
func CreateCustomField(t testing.TB, db *gorm.DB, name string, internalOnly bool) *models.CustomField {
	t.Helper()
	field := &models.CustomField{Name: name, Type: models.CustomFieldText, IsInternalOnly: internalOnly}
	require.NoError(t, db.Create(field).Error)
	return field
}
