package models

type Label struct {
	Base
	Name        string  `gorm:"type:varchar(100);not null" json:"name"`
	Color       string  `gorm:"type:varchar(20)" json:"color"`
	Description *string `gorm:"type:text" json:"description"`
}

type Status struct {
	Base
	Name       string `gorm:"type:varchar(100);not null" json:"name"`
	Color      string `gorm:"type:varchar(20)" json:"color"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
	IsDefault  bool   `gorm:"not null;default:false" json:"is_default"`
	IsClosed   bool   `gorm:"not null;default:false" json:"is_closed"`
}

type CustomFieldType string

const (
	CustomFieldText     CustomFieldType = "text"
	CustomFieldNumber   CustomFieldType = "number"
	CustomFieldDate     CustomFieldType = "date"
	CustomFieldSelect   CustomFieldType = "select"
	CustomFieldCheckbox CustomFieldType = "checkbox"
)

type CustomField struct {
	Base
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Type           CustomFieldType `gorm:"type:varchar(32);not null" json:"type"`
	Description    *string         `gorm:"type:text" json:"description"`
	IsInternalOnly bool            `gorm:"not null;default:false" json:"is_internal_only"`
	IsRequired     bool            `gorm:"not null;default:false" json:"is_required"`
	Options        []string        `gorm:"serializer:json;type:text" json:"options"`
}

// InternalOnly reports whether the field definition is hidden from agency users.
func (f CustomField) InternalOnly() bool {
	return f.IsInternalOnly
}
