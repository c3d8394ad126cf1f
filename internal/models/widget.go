package models

// Widget is a single chart or table configuration inside a widget report.
type Widget struct {
	ID           string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string            `json:"title,omitempty" yaml:"title,omitempty"`
	Type         string            `json:"type,omitempty" yaml:"type,omitempty"`
	DataSourceID string            `json:"dataSourceId" yaml:"dataSourceId"`
	Dimensions   []WidgetDimension `json:"dimensions" yaml:"dimensions"`
	Metrics      []WidgetMetric    `json:"metrics" yaml:"metrics"`
	Filters      []WidgetFilter    `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sorts        []WidgetSort      `json:"sorts,omitempty" yaml:"sorts,omitempty"`
	Limit        int               `json:"limit,omitempty" yaml:"limit,omitempty"`
}

type WidgetDimension struct {
	FieldID string `json:"fieldId" yaml:"fieldId"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
}

type WidgetMetric struct {
	FieldID     string `json:"fieldId" yaml:"fieldId"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Aggregation string `json:"aggregation" yaml:"aggregation"`
}

type WidgetFilter struct {
	FieldID  string `json:"fieldId" yaml:"fieldId"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

type WidgetSort struct {
	FieldID   string `json:"fieldId" yaml:"fieldId"`
	Direction string `json:"direction" yaml:"direction"`
}
