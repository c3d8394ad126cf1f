package reporting

import (
	"context"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// QueryOutcome is the result of one query of an executed report. Exactly
// one of Data and Error is set.
type QueryOutcome struct {
	QueryID             string         `json:"query_id"`
	DataSource          string         `json:"data_source,omitempty"`
	VisualizationType   *string        `json:"visualization_type,omitempty"`
	VisualizationConfig map[string]any `json:"visualization_config,omitempty"`
	Data                *QueryResult   `json:"data,omitempty"`
	Error               string         `json:"error,omitempty"`
}

type ReportExecution struct {
	ReportID   string         `json:"report_id"`
	ReportName string         `json:"report_name"`
	Results    []QueryOutcome `json:"results"`
}

// ExecuteReport runs every query of a report concurrently. A failing query
// is reported in its own outcome and never fails the report.
func (e *Engine) ExecuteReport(ctx context.Context, report *models.Report, principalID string, role models.Role) ReportExecution {
	outcomes := make([]QueryOutcome, len(report.Queries))

	var g errgroup.Group
	g.SetLimit(constants.ReportQueryConcurrency)
	for i, query := range report.Queries {
		g.Go(func() error {
			result, err := e.ExecuteReportQuery(ctx, query, principalID, role)
			if err != nil {
				e.log.Error("failed to execute report query",
					zap.String("report_id", report.ID),
					zap.String("query_id", query.ID),
					zap.Error(err),
				)
				outcomes[i] = QueryOutcome{QueryID: query.ID, Error: err.Error()}
				return nil
			}
			outcomes[i] = QueryOutcome{
				QueryID:             query.ID,
				DataSource:          query.DataSource,
				VisualizationType:   query.VisualizationType,
				VisualizationConfig: query.VisualizationConfig,
				Data:                &result,
			}
			return nil
		})
	}
	_ = g.Wait()

	return ReportExecution{ReportID: report.ID, ReportName: report.Name, Results: outcomes}
}
