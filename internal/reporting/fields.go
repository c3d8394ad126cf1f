// Package reporting composes ad-hoc widget queries and saved report queries
// over a fixed set of tabular data sources.
package reporting

import (
	"strings"
	"sync"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"gorm.io/gorm/schema"
)

type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldEnum   FieldType = "enum"
)

// Field describes one selectable field of a data source. Source and Column
// locate it in the database; Virtual fields have no column (row counts).
type Field struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	IsMetric bool      `json:"isMetric"`

	Source  string `json:"-"`
	Column  string `json:"-"`
	Virtual bool   `json:"-"`
}

type fieldDef struct {
	column   string
	label    string
	typ      FieldType
	isMetric bool
}

var sourceFieldDefs = []struct {
	source string
	count  string
	fields []fieldDef
}{
	{"tasks", "Task Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"title", "Title", FieldString, false},
		{"status", "Status", FieldEnum, false},
		{"priority", "Priority", FieldEnum, false},
		{"due_date", "Due Date", FieldDate, false},
		{"created_at", "Created At", FieldDate, false},
		{"estimated_hours", "Estimated Hours", FieldNumber, true},
		{"actual_hours", "Actual Hours", FieldNumber, true},
	}},
	{"projects", "Project Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"name", "Name", FieldString, false},
		{"start_date", "Start Date", FieldDate, false},
		{"end_date", "End Date", FieldDate, false},
		{"created_at", "Created At", FieldDate, false},
	}},
	{"products", "Product Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"name", "Name", FieldString, false},
		{"created_at", "Created At", FieldDate, false},
	}},
	{"agencies", "Agency Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"name", "Name", FieldString, false},
		{"is_active", "Is Active", FieldEnum, false},
		{"created_at", "Created At", FieldDate, false},
	}},
	{"users", "User Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"email", "Email", FieldString, false},
		{"full_name", "Full Name", FieldString, false},
		{"role", "Role", FieldEnum, false},
		{"created_at", "Created At", FieldDate, false},
	}},
	{"audit_logs", "Event Count", []fieldDef{
		{"id", "ID", FieldString, false},
		{"action", "Action", FieldString, false},
		{"entity_type", "Entity Type", FieldString, false},
		{"created_at", "Created At", FieldDate, false},
	}},
}

// sourceModels maps each data source to the model backing its table.
var sourceModels = map[string]any{
	"tasks":      &models.Task{},
	"projects":   &models.Project{},
	"products":   &models.Product{},
	"agencies":   &models.Agency{},
	"users":      &models.User{},
	"audit_logs": &models.AuditLog{},
}

var (
	fieldsBySource = map[string][]Field{}
	fieldsByID     = map[string]Field{}
	sources        []string
)

func init() {
	for _, def := range sourceFieldDefs {
		fields := make([]Field, 0, len(def.fields)+1)
		for _, f := range def.fields {
			fields = append(fields, Field{
				ID:       def.source + "." + f.column,
				Label:    f.label,
				Type:     f.typ,
				IsMetric: f.isMetric,
				Source:   def.source,
				Column:   f.column,
			})
		}
		fields = append(fields, Field{
			ID:       def.source + ".count",
			Label:    def.count,
			Type:     FieldNumber,
			IsMetric: true,
			Source:   def.source,
			Column:   "count",
			Virtual:  true,
		})

		fieldsBySource[def.source] = fields
		for _, f := range fields {
			fieldsByID[f.ID] = f
		}
		sources = append(sources, def.source)
	}
}

// Sources lists the whitelisted data sources.
func Sources() []string {
	return append([]string(nil), sources...)
}

// IsSource reports whether id names a whitelisted data source.
func IsSource(id string) bool {
	_, ok := fieldsBySource[id]
	return ok
}

// DescribeFields returns the selectable fields of a data source. Unknown
// sources yield an empty list.
func DescribeFields(source string) []Field {
	fields, ok := fieldsBySource[source]
	if !ok {
		return []Field{}
	}
	return append([]Field(nil), fields...)
}

// LookupField resolves a field id within source. A bare name is read as
// "<source>.<name>".
func LookupField(source, id string) (Field, bool) {
	if !strings.Contains(id, ".") {
		id = source + "." + id
	}
	f, ok := fieldsByID[id]
	if !ok || f.Source != source {
		return Field{}, false
	}
	return f, true
}

// columnOf maps a field id to the row key it is read from. Ids outside the
// registry fall back to their last dotted segment.
func columnOf(id string) string {
	if f, ok := fieldsByID[id]; ok {
		return f.Column
	}
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}

var (
	columnsOnce sync.Once
	columnSets  map[string]map[string]bool
	columnsErr  error
)

// sourceColumns returns every column of the source's table, as gorm maps
// the backing model.
func sourceColumns(source string) (map[string]bool, error) {
	columnsOnce.Do(func() {
		columnSets = make(map[string]map[string]bool, len(sourceModels))
		cache := &sync.Map{}
		for name, model := range sourceModels {
			s, err := schema.Parse(model, cache, schema.NamingStrategy{})
			if err != nil {
				columnsErr = err
				return
			}
			set := make(map[string]bool, len(s.DBNames))
			for _, column := range s.DBNames {
				set[column] = true
			}
			columnSets[name] = set
		}
	})
	if columnsErr != nil {
		return nil, columnsErr
	}
	return columnSets[source], nil
}
