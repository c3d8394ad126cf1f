package models

// Report is a saved set of report queries, optionally shared with roles.
type Report struct {
	Base
	Name            string  `gorm:"type:varchar(255);not null" json:"name"`
	Description     *string `gorm:"type:text" json:"description"`
	CreatedBy       string  `gorm:"type:varchar(36);not null;index" json:"created_by"`
	IsTemplate      bool    `gorm:"not null;default:false" json:"is_template"`
	IsShared        bool    `gorm:"not null;default:false" json:"is_shared"`
	SharedWithRoles []Role  `gorm:"serializer:json;type:text" json:"shared_with_roles"`

	// Relations
	Creator *User         `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Queries []ReportQuery `gorm:"foreignKey:ReportID" json:"queries,omitempty"`
}

// VisibleTo applies the sharing rules: the creator always sees the report,
// anyone else needs it shared and, when roles are listed, a listed role.
func (r *Report) VisibleTo(userID string, role Role) bool {
	if r.CreatedBy == userID {
		return true
	}
	if !r.IsShared {
		return false
	}
	if r.SharedWithRoles == nil {
		return true
	}
	return role.In(r.SharedWithRoles...)
}

type ReportQuery struct {
	Base
	ReportID            string         `gorm:"type:varchar(36);not null;index" json:"report_id"`
	DataSource          string         `gorm:"type:varchar(100);not null" json:"data_source"`
	QueryConfig         QueryConfig    `gorm:"serializer:json;type:text" json:"query_config"`
	VisualizationType   *string        `gorm:"type:varchar(50)" json:"visualization_type"`
	VisualizationConfig map[string]any `gorm:"serializer:json;type:text" json:"visualization_config"`
	SortOrder           int            `gorm:"not null;default:0" json:"sort_order"`
}

// QueryConfig is the stored filter, ordering and aggregation setup of a
// report query. Filter and order fields name columns verbatim.
type QueryConfig struct {
	Filters      []QueryFilter      `json:"filters,omitempty"`
	OrderBy      []QueryOrder       `json:"orderBy,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Aggregations []QueryAggregation `json:"aggregations"`
}

type QueryFilter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type QueryOrder struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

type QueryAggregation struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Alias string `json:"alias,omitempty"`
}

// WidgetReport is a dashboard of ad-hoc widgets.
type WidgetReport struct {
	Base
	Name             string   `gorm:"type:varchar(255);not null" json:"name"`
	Description      *string  `gorm:"type:text" json:"description"`
	Widgets          []Widget `gorm:"serializer:json;type:text" json:"widgets"`
	DefaultDateRange *string  `gorm:"type:varchar(50)" json:"default_date_range"`
	CreatedBy        string   `gorm:"type:varchar(36);not null;index" json:"created_by"`
	IsShared         bool     `gorm:"not null;default:false" json:"is_shared"`
}

func (WidgetReport) TableName() string {
	return "reports2"
}
