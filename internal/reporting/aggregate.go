package reporting

import (
	"fmt"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/models"
)

const aggregationCount = "count"

type Column struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

// WidgetResult is the tabular shape every widget renders from.
type WidgetResult struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Aggregate shapes query rows into a WidgetResult. With at least one
// dimension and only count metrics (or none) rows are grouped by their
// dimension values and counted; otherwise rows pass through one for one,
// capped at constants.WidgetRowCap, with missing metric values read as 0.
func Aggregate(rows []Row, dimensions []models.WidgetDimension, metrics []models.WidgetMetric) WidgetResult {
	if len(rows) == 0 {
		return WidgetResult{Columns: []Column{}, Rows: [][]any{}}
	}

	columns := make([]Column, 0, len(dimensions)+len(metrics))
	for _, d := range dimensions {
		columns = append(columns, Column{ID: d.FieldID, Label: labelOr(d.Label, d.FieldID), Type: FieldString})
	}
	for _, m := range metrics {
		columns = append(columns, Column{ID: m.FieldID, Label: labelOr(m.Label, m.FieldID), Type: FieldNumber})
	}

	if len(dimensions) > 0 && onlyCounts(metrics) {
		return WidgetResult{Columns: columns, Rows: groupCounts(rows, dimensions, len(metrics))}
	}

	n := len(rows)
	if n > constants.WidgetRowCap {
		n = constants.WidgetRowCap
	}
	out := make([][]any, 0, n)
	for _, row := range rows[:n] {
		values := make([]any, 0, len(columns))
		for _, d := range dimensions {
			values = append(values, row[columnOf(d.FieldID)])
		}
		for _, m := range metrics {
			values = append(values, metricValue(row[columnOf(m.FieldID)]))
		}
		out = append(out, values)
	}
	return WidgetResult{Columns: columns, Rows: out}
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func onlyCounts(metrics []models.WidgetMetric) bool {
	for _, m := range metrics {
		if m.Aggregation != aggregationCount {
			return false
		}
	}
	return true
}

type group struct {
	values []any
	count  int
}

// groupCounts counts rows per distinct dimension tuple. Groups keep the
// order in which they were first seen.
func groupCounts(rows []Row, dimensions []models.WidgetDimension, metricCount int) [][]any {
	columns := make([]string, len(dimensions))
	for i, d := range dimensions {
		columns[i] = columnOf(d.FieldID)
	}

	groups := map[string]*group{}
	var order []*group
	for _, row := range rows {
		values := make([]any, len(columns))
		parts := make([]string, len(columns))
		for i, column := range columns {
			values[i] = row[column]
			parts[i] = keyPart(values[i])
		}
		key := strings.Join(parts, "|")

		g, ok := groups[key]
		if !ok {
			g = &group{values: values}
			groups[key] = g
			order = append(order, g)
		}
		g.count++
	}

	out := make([][]any, 0, len(order))
	for _, g := range order {
		values := append([]any(nil), g.values...)
		for i := 0; i < metricCount; i++ {
			values = append(values, g.count)
		}
		out = append(out, values)
	}
	return out
}

func keyPart(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// metricValue reads an empty value (nil, zero, false or "") as 0.
func metricValue(v any) any {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if !x {
			return 0
		}
	case string:
		if x == "" {
			return 0
		}
	}
	return v
}
