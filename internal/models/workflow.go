package models

import "encoding/json"

// Automation is a stored rule definition. Conditions and Actions are kept
// as the JSON the admin UI sends.
type Automation struct {
	Base
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Trigger    string          `gorm:"type:varchar(100);not null" json:"trigger"`
	Conditions json.RawMessage `gorm:"serializer:json;type:text" json:"conditions"`
	Actions    json.RawMessage `gorm:"serializer:json;type:text" json:"actions"`
	IsEnabled  bool            `gorm:"not null" json:"is_enabled"`
}

type ApprovalWorkflow struct {
	Base
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Description  *string         `gorm:"type:text" json:"description"`
	ApprovalType string          `gorm:"type:varchar(50)" json:"approval_type"`
	AppliesTo    string          `gorm:"type:varchar(50)" json:"applies_to"`
	Steps        json.RawMessage `gorm:"serializer:json;type:text" json:"steps"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
}

type SLARule struct {
	Base
	Name             string  `gorm:"type:varchar(255);not null" json:"name"`
	Description      *string `gorm:"type:text" json:"description"`
	ThresholdValue   int     `gorm:"not null;default:0" json:"threshold_value"`
	ThresholdUnit    string  `gorm:"type:varchar(20);not null;default:'hours'" json:"threshold_unit"`
	AppliesTo        string  `gorm:"type:varchar(50)" json:"applies_to"`
	AlertBeforeHours *int    `json:"alert_before_hours"`
	IsActive         bool    `gorm:"not null" json:"is_active"`
}

func (SLARule) TableName() string {
	return "sla_rules"
}
