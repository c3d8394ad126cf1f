package reporting

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDataSourceRequired = errors.New("data source is required")
	ErrUnknownDataSource  = errors.New("unknown data source")
	ErrUnknownField       = errors.New("unknown field")
)

// Filter operators understood by the composer. Any other operator is ignored.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpIn          = "in"
	OpContains    = "contains"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Query is a composed, not yet executed, query against one data source.
type Query struct {
	Source string

	restrict   bool
	ids        []string
	conditions []clause.Expression
	orders     []clause.OrderByColumn
	limit      int
}

// BuildQuery composes the widget filters, sorts and limit into a Query.
// Field ids are resolved through the registry; a filter or sort naming a
// field the source does not have is rejected, and the virtual count field
// is skipped.
func BuildQuery(source string, filters []models.WidgetFilter, sorts []models.WidgetSort, limit int) (*Query, error) {
	if source == "" {
		return nil, ErrDataSourceRequired
	}
	if !IsSource(source) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataSource, source)
	}

	q := &Query{Source: source}
	for _, f := range filters {
		field, ok := LookupField(source, f.FieldID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f.FieldID)
		}
		if field.Virtual {
			continue
		}
		if cond := condition(field.Column, f.Operator, f.Value); cond != nil {
			q.conditions = append(q.conditions, cond)
		}
	}
	for _, s := range sorts {
		field, ok := LookupField(source, s.FieldID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, s.FieldID)
		}
		if field.Virtual {
			continue
		}
		q.orders = append(q.orders, order(field.Column, s.Direction))
	}
	if limit > 0 {
		q.limit = limit
	}
	return q, nil
}

// buildConfigQuery composes a saved report query. Filter and order fields
// name columns verbatim and must exist on the source table.
func buildConfigQuery(source string, cfg models.QueryConfig) (*Query, error) {
	if source == "" {
		return nil, ErrDataSourceRequired
	}
	if !IsSource(source) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataSource, source)
	}
	columns, err := sourceColumns(source)
	if err != nil {
		return nil, err
	}

	q := &Query{Source: source}
	for _, f := range cfg.Filters {
		if !columns[f.Field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		if cond := condition(f.Field, f.Operator, f.Value); cond != nil {
			q.conditions = append(q.conditions, cond)
		}
	}
	for _, o := range cfg.OrderBy {
		if !columns[o.Field] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, o.Field)
		}
		q.orders = append(q.orders, order(o.Field, o.Direction))
	}
	if cfg.Limit > 0 {
		q.limit = cfg.Limit
	}
	return q, nil
}

func condition(column, operator string, value any) clause.Expression {
	col := clause.Column{Name: column}
	switch operator {
	case OpEquals:
		return clause.Eq{Column: col, Value: value}
	case OpNotEquals:
		return clause.Neq{Column: col, Value: value}
	case OpGreaterThan:
		return clause.Gt{Column: col, Value: value}
	case OpLessThan:
		return clause.Lt{Column: col, Value: value}
	case OpIn:
		return clause.IN{Column: col, Values: listOf(value)}
	case OpContains:
		return clause.Expr{
			SQL:  "LOWER(?) LIKE LOWER(?)",
			Vars: []any{col, fmt.Sprintf("%%%v%%", value)},
		}
	}
	return nil
}

func order(column, direction string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: direction != "asc"}
}

// listOf turns an "in" operand into a value list, wrapping a scalar.
func listOf(value any) []any {
	if value == nil {
		return []any{nil}
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{value}
	}
	if _, isBytes := value.([]byte); isBytes {
		return []any{value}
	}
	values := make([]any, v.Len())
	for i := range values {
		values[i] = v.Index(i).Interface()
	}
	return values
}

// RestrictTo limits the query to rows whose id is in ids.
func (q *Query) RestrictTo(ids []string) {
	q.restrict = true
	q.ids = ids
}

// Scope applies the query to db.
func (q *Query) Scope(db *gorm.DB) *gorm.DB {
	tx := db.Table(q.Source)
	if q.restrict {
		tx = tx.Where(clause.IN{Column: clause.Column{Name: "id"}, Values: listOf(q.ids)})
	}
	for _, cond := range q.conditions {
		tx = tx.Where(cond)
	}
	if len(q.orders) > 0 {
		tx = tx.Order(clause.OrderBy{Columns: q.orders})
	}
	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}
	return tx
}

// Rows runs the query and returns every row.
func (q *Query) Rows(ctx context.Context, db *gorm.DB) ([]Row, error) {
	if q.restrict && len(q.ids) == 0 {
		return []Row{}, nil
	}
	rows := []Row{}
	if err := q.Scope(db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
