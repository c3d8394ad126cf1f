package reporting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
	"gorm.io/gorm"
)

func dryRunSQL(t *testing.T, db *gorm.DB, q *Query) string {
	t.Helper()
	rows := []Row{}
	stmt := q.Scope(db.Session(&gorm.Session{DryRun: true})).Find(&rows).Statement
	return stmt.SQL.String()
}

func TestBuildQuery_Errors(t *testing.T) {
	_, err := BuildQuery("", nil, nil, 0)
	assert.ErrorIs(t, err, ErrDataSourceRequired)

	_, err = BuildQuery("invoices", nil, nil, 0)
	assert.ErrorIs(t, err, ErrUnknownDataSource)

	_, err = BuildQuery("tasks", []models.WidgetFilter{{FieldID: "tasks.budget", Operator: OpEquals, Value: 1}}, nil, 0)
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = BuildQuery("tasks", nil, []models.WidgetSort{{FieldID: "users.email", Direction: "asc"}}, 0)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestBuildQuery_FiltersOnBareColumn(t *testing.T) {
	db := testutil.NewDB(t)

	q, err := BuildQuery("tasks", []models.WidgetFilter{{FieldID: "tasks.status", Operator: OpEquals, Value: "done"}}, nil, 0)
	require.NoError(t, err)

	sql := dryRunSQL(t, db, q)
	assert.Contains(t, sql, "`status` = ?")
	assert.NotContains(t, sql, "tasks.status")
}

func TestBuildQuery_Operators(t *testing.T) {
	db := testutil.NewDB(t)

	tests := []struct {
		name     string
		operator string
		value    any
		want     string
	}{
		{"equals", OpEquals, "open", "`title` = ?"},
		{"not equals", OpNotEquals, "open", "`title` <> ?"},
		{"greater than", OpGreaterThan, 2, "`title` > ?"},
		{"less than", OpLessThan, 2, "`title` < ?"},
		{"in list", OpIn, []any{"a", "b"}, "`title` IN (?,?)"},
		{"in scalar", OpIn, "a", "`title` = ?"},
		{"contains", OpContains, "Web", "LOWER(`title`) LIKE LOWER(?)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildQuery("tasks", []models.WidgetFilter{{FieldID: "tasks.title", Operator: tt.operator, Value: tt.value}}, nil, 0)
			require.NoError(t, err)
			assert.Contains(t, dryRunSQL(t, db, q), tt.want)
		})
	}
}

func TestBuildQuery_UnknownOperatorIgnored(t *testing.T) {
	db := testutil.NewDB(t)

	q, err := BuildQuery("tasks", []models.WidgetFilter{{FieldID: "tasks.title", Operator: "matches", Value: "x"}}, nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, dryRunSQL(t, db, q), "WHERE")
}

func TestBuildQuery_SortsInOrderAndLimit(t *testing.T) {
	db := testutil.NewDB(t)

	q, err := BuildQuery("tasks", nil, []models.WidgetSort{
		{FieldID: "tasks.priority", Direction: "desc"},
		{FieldID: "tasks.title", Direction: "asc"},
		{FieldID: "tasks.count", Direction: "asc"},
	}, 5)
	require.NoError(t, err)

	sql := dryRunSQL(t, db, q)
	assert.Contains(t, sql, "ORDER BY `priority` DESC,`title`")
	assert.NotContains(t, sql, "`count`")
	assert.Regexp(t, `LIMIT (5|\?)`, sql)
}

func TestQuery_RowsFiltersByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	testutil.CreateTask(t, db, "A", owner.ID, func(task *models.Task) { task.StatusName = "done" })
	testutil.CreateTask(t, db, "B", owner.ID, func(task *models.Task) { task.StatusName = "open" })

	q, err := BuildQuery("tasks", []models.WidgetFilter{{FieldID: "tasks.status", Operator: OpEquals, Value: "done"}}, nil, 0)
	require.NoError(t, err)

	rows, err := q.Rows(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["title"])
}

func TestQuery_RestrictToNothing(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", models.RoleOwner)
	testutil.CreateTask(t, db, "A", owner.ID)

	q, err := BuildQuery("tasks", nil, nil, 0)
	require.NoError(t, err)
	q.RestrictTo(nil)

	rows, err := q.Rows(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListOf(t *testing.T) {
	assert.Equal(t, []any{"a"}, listOf("a"))
	assert.Equal(t, []any{"a", "b"}, listOf([]string{"a", "b"}))
	assert.Equal(t, []any{1.0, 2.0}, listOf([]any{1.0, 2.0}))
}
