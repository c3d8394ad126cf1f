package reporting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"go.uber.org/goleak"
)

func TestExecuteReport_CollectsPerQueryOutcomes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	engine, _, _ := seedTasks(t)
	chart := "bar"

	report := &models.Report{
		Name: "Weekly",
		Queries: []models.ReportQuery{
			{Base: models.Base{ID: "q1"}, DataSource: "tasks", VisualizationType: &chart},
			{Base: models.Base{ID: "q2"}, DataSource: "invoices"},
			{Base: models.Base{ID: "q3"}, DataSource: "tasks", QueryConfig: models.QueryConfig{
				Aggregations: []models.QueryAggregation{{Field: "estimated_hours", Type: "max"}},
			}},
			{Base: models.Base{ID: "q4"}, DataSource: "users"},
			{Base: models.Base{ID: "q5"}, DataSource: "tasks", QueryConfig: models.QueryConfig{
				Filters: []models.QueryFilter{{Field: "budget", Operator: OpEquals, Value: 1}},
			}},
		},
	}
	report.ID = "r1"

	execution := engine.ExecuteReport(context.Background(), report, "owner", models.RoleOwner)

	assert.Equal(t, "r1", execution.ReportID)
	assert.Equal(t, "Weekly", execution.ReportName)
	require.Len(t, execution.Results, 5)

	ids := make([]string, len(execution.Results))
	for i, outcome := range execution.Results {
		ids[i] = outcome.QueryID
	}
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, ids)

	require.NotNil(t, execution.Results[0].Data)
	assert.Len(t, execution.Results[0].Data.Rows, 3)
	assert.Equal(t, "bar", *execution.Results[0].VisualizationType)

	assert.Nil(t, execution.Results[1].Data)
	assert.Contains(t, execution.Results[1].Error, "unknown data source")

	assert.Equal(t, Number(3), execution.Results[2].Data.Aggregations[0].Value)
	assert.Len(t, execution.Results[3].Data.Rows, 1)
	assert.Contains(t, execution.Results[4].Error, "unknown field")
}
