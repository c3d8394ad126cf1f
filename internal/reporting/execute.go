package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Visibility resolves what an External Agency principal may see.
type Visibility interface {
	VisibleTaskIDs(ctx context.Context, principalID string) ([]string, error)
	VisibleProjectIDs(ctx context.Context, principalID string) ([]string, error)
	VisibleProductIDs(ctx context.Context, principalID string) ([]string, error)
}

// Engine runs widgets and saved report queries against the database.
type Engine struct {
	db         *gorm.DB
	visibility Visibility
	log        *zap.Logger
}

// NewEngine creates a new Engine
func NewEngine(db *gorm.DB, visibility Visibility, log *zap.Logger) *Engine {
	return &Engine{db: db, visibility: visibility, log: log}
}

// restrict narrows q to the principal's visible ids for the row-secured
// sources. It reports false when nothing is visible.
func (e *Engine) restrict(ctx context.Context, q *Query, principalID string, role models.Role) (bool, error) {
	if role != models.RoleExternalAgency {
		return true, nil
	}

	var visible func(context.Context, string) ([]string, error)
	switch q.Source {
	case "tasks":
		visible = e.visibility.VisibleTaskIDs
	case "projects":
		visible = e.visibility.VisibleProjectIDs
	case "products":
		visible = e.visibility.VisibleProductIDs
	default:
		return true, nil
	}

	ids, err := visible(ctx, principalID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve visibility: %w", err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	q.RestrictTo(ids)
	return true, nil
}

// RunWidget executes a widget definition and shapes its rows.
func (e *Engine) RunWidget(ctx context.Context, widget models.Widget, principalID string, role models.Role) (WidgetResult, error) {
	q, err := BuildQuery(widget.DataSourceID, widget.Filters, widget.Sorts, widget.Limit)
	if err != nil {
		return WidgetResult{}, err
	}
	for _, d := range widget.Dimensions {
		if _, ok := LookupField(q.Source, d.FieldID); !ok {
			return WidgetResult{}, fmt.Errorf("%w: %s", ErrUnknownField, d.FieldID)
		}
	}
	for _, m := range widget.Metrics {
		if _, ok := LookupField(q.Source, m.FieldID); !ok {
			return WidgetResult{}, fmt.Errorf("%w: %s", ErrUnknownField, m.FieldID)
		}
	}

	ok, err := e.restrict(ctx, q, principalID, role)
	if err != nil {
		return WidgetResult{}, err
	}
	if !ok {
		return Aggregate(nil, widget.Dimensions, widget.Metrics), nil
	}

	rows, err := q.Rows(ctx, e.db)
	if err != nil {
		return WidgetResult{}, fmt.Errorf("failed to run widget query: %w", err)
	}
	return Aggregate(rows, widget.Dimensions, widget.Metrics), nil
}

// Number is an aggregation value. Non-finite values (min or max over no
// values) encode as JSON null.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

type AggregationResult struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Alias string `json:"alias"`
	Value Number `json:"value"`
}

// QueryResult is the outcome of one saved report query: the bare rows, or
// the rows plus aggregations when the query asked for any.
type QueryResult struct {
	Rows         []Row
	Aggregations []AggregationResult
}

func (r QueryResult) MarshalJSON() ([]byte, error) {
	rows := r.Rows
	if rows == nil {
		rows = []Row{}
	}
	if r.Aggregations == nil {
		return json.Marshal(rows)
	}
	return json.Marshal(struct {
		RawData      []Row               `json:"raw_data"`
		Aggregations []AggregationResult `json:"aggregations"`
	}{rows, r.Aggregations})
}

// ExecuteReportQuery runs one saved report query for a principal. External
// Agency principals only see their visible tasks, projects and products;
// when nothing is visible the result is empty and no query is issued.
func (e *Engine) ExecuteReportQuery(ctx context.Context, query models.ReportQuery, principalID string, role models.Role) (QueryResult, error) {
	q, err := buildConfigQuery(query.DataSource, query.QueryConfig)
	if err != nil {
		return QueryResult{}, err
	}

	ok, err := e.restrict(ctx, q, principalID, role)
	if err != nil {
		return QueryResult{}, err
	}
	if !ok {
		return QueryResult{Rows: []Row{}}, nil
	}

	rows, err := q.Rows(ctx, e.db)
	if err != nil {
		return QueryResult{}, fmt.Errorf("query execution failed: %w", err)
	}

	result := QueryResult{Rows: rows}
	if query.QueryConfig.Aggregations != nil {
		result.Aggregations = make([]AggregationResult, 0, len(query.QueryConfig.Aggregations))
		for _, agg := range query.QueryConfig.Aggregations {
			alias := agg.Alias
			if alias == "" {
				alias = agg.Type + "_" + agg.Field
			}
			result.Aggregations = append(result.Aggregations, AggregationResult{
				Field: agg.Field,
				Type:  agg.Type,
				Alias: alias,
				Value: Number(aggregateField(rows, agg.Field, agg.Type)),
			})
		}
	}
	return result, nil
}

// aggregateField reduces one column over every row. Null values are skipped
// throughout; count counts the rest, the numeric reducers also skip values
// that are not numbers. An unknown type yields 0.
func aggregateField(rows []Row, field, typ string) float64 {
	var present int
	var values []float64
	for _, row := range rows {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		present++
		if f, ok := toFloat(v); ok {
			values = append(values, f)
		}
	}

	switch typ {
	case "sum":
		return sum(values)
	case "avg":
		if len(values) == 0 {
			return 0
		}
		return sum(values) / float64(len(values))
	case "count":
		return float64(present)
	case "min":
		result := math.Inf(1)
		for _, v := range values {
			result = math.Min(result, v)
		}
		return result
	case "max":
		result := math.Inf(-1)
		for _, v := range values {
			result = math.Max(result, v)
		}
		return result
	}
	return 0
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		// numeric/decimal columns arrive as text on some drivers
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	}
	return 0, false
}
