package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/repository"
	"github.com/yukikurage/agencyboard-api/internal/utils"
)

var (
	ErrAutomationNotFound       = errors.New("automation not found")
	ErrApprovalWorkflowNotFound = errors.New("approval workflow not found")
	ErrSLARuleNotFound          = errors.New("sla rule not found")

	ErrTriggerRequired = &ValidationError{Message: "Trigger is required"}
)

var slaUnits = []string{"minutes", "hours", "days"}

// NewAutomationService creates the catalog service for automation rules
func NewAutomationService(repo repository.CrudRepository[models.Automation], audit *AuditService) *CatalogService[models.Automation] {
	return &CatalogService[models.Automation]{
		repo:       repo,
		audit:      audit,
		entityType: "automation",
		order:      "name ASC",
		missing:    ErrAutomationNotFound,
		idOf:       func(a *models.Automation) string { return a.ID },
	}
}

// NewApprovalWorkflowService creates the catalog service for approval workflows
func NewApprovalWorkflowService(repo repository.CrudRepository[models.ApprovalWorkflow], audit *AuditService) *CatalogService[models.ApprovalWorkflow] {
	return &CatalogService[models.ApprovalWorkflow]{
		repo:       repo,
		audit:      audit,
		entityType: "approval_workflow",
		order:      "name ASC",
		missing:    ErrApprovalWorkflowNotFound,
		idOf:       func(w *models.ApprovalWorkflow) string { return w.ID },
	}
}

// NewSLARuleService creates the catalog service for SLA rules
func NewSLARuleService(repo repository.CrudRepository[models.SLARule], audit *AuditService) *CatalogService[models.SLARule] {
	return &CatalogService[models.SLARule]{
		repo:       repo,
		audit:      audit,
		entityType: "sla_rule",
		order:      "name ASC",
		missing:    ErrSLARuleNotFound,
		idOf:       func(r *models.SLARule) string { return r.ID },
	}
}

// jsonColumn stores raw under column for a map update, which bypasses the
// column serializer. An omitted document is left alone.
func jsonColumn(fields map[string]any, column string, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	if string(raw) == "null" {
		fields[column] = nil
		return
	}
	fields[column] = string(raw)
}

func enabled(flag utils.Optional[bool]) bool {
	return flag.Value == nil || *flag.Value
}

// AutomationInput represents input for creating or updating an automation
type AutomationInput struct {
	Name       utils.Optional[string] `json:"name"`
	Trigger    utils.Optional[string] `json:"trigger"`
	Conditions json.RawMessage        `json:"conditions"`
	Actions    json.RawMessage        `json:"actions"`
	IsEnabled  utils.Optional[bool]   `json:"is_enabled"`
}

func requiredTrigger(trigger utils.Optional[string]) (string, error) {
	if trigger.Value == nil || strings.TrimSpace(*trigger.Value) == "" {
		return "", ErrTriggerRequired
	}
	return strings.TrimSpace(*trigger.Value), nil
}

// Automation builds a new automation; it starts enabled unless told otherwise
func (in AutomationInput) Automation() (*models.Automation, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	trigger, err := requiredTrigger(in.Trigger)
	if err != nil {
		return nil, err
	}
	return &models.Automation{
		Name:       name,
		Trigger:    trigger,
		Conditions: in.Conditions,
		Actions:    in.Actions,
		IsEnabled:  enabled(in.IsEnabled),
	}, nil
}

// Fields returns the columns an update writes
func (in AutomationInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Trigger.Set {
		trigger, err := requiredTrigger(in.Trigger)
		if err != nil {
			return nil, err
		}
		fields["trigger"] = trigger
	}
	jsonColumn(fields, "conditions", in.Conditions)
	jsonColumn(fields, "actions", in.Actions)
	if in.IsEnabled.Value != nil {
		fields["is_enabled"] = *in.IsEnabled.Value
	}
	return fields, nil
}

// ApprovalWorkflowInput represents input for creating or updating an approval workflow
type ApprovalWorkflowInput struct {
	Name         utils.Optional[string] `json:"name"`
	Description  utils.Optional[string] `json:"description"`
	ApprovalType utils.Optional[string] `json:"approval_type"`
	AppliesTo    utils.Optional[string] `json:"applies_to"`
	Steps        json.RawMessage        `json:"steps"`
	IsActive     utils.Optional[bool]   `json:"is_active"`
}

// ApprovalWorkflow builds a new workflow; it starts active unless told otherwise
func (in ApprovalWorkflowInput) ApprovalWorkflow() (*models.ApprovalWorkflow, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	workflow := &models.ApprovalWorkflow{
		Name:        name,
		Description: in.Description.Value,
		Steps:       in.Steps,
		IsActive:    enabled(in.IsActive),
	}
	if in.ApprovalType.Value != nil {
		workflow.ApprovalType = *in.ApprovalType.Value
	}
	if in.AppliesTo.Value != nil {
		workflow.AppliesTo = *in.AppliesTo.Value
	}
	return workflow, nil
}

// Fields returns the columns an update writes
func (in ApprovalWorkflowInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	setColumn(fields, "description", in.Description)
	if in.ApprovalType.Value != nil {
		fields["approval_type"] = *in.ApprovalType.Value
	}
	if in.AppliesTo.Value != nil {
		fields["applies_to"] = *in.AppliesTo.Value
	}
	jsonColumn(fields, "steps", in.Steps)
	if in.IsActive.Value != nil {
		fields["is_active"] = *in.IsActive.Value
	}
	return fields, nil
}

// SLARuleInput represents input for creating or updating an SLA rule
type SLARuleInput struct {
	Name             utils.Optional[string] `json:"name"`
	Description      utils.Optional[string] `json:"description"`
	ThresholdValue   utils.Optional[int]    `json:"threshold_value"`
	ThresholdUnit    utils.Optional[string] `json:"threshold_unit"`
	AppliesTo        utils.Optional[string] `json:"applies_to"`
	AlertBeforeHours utils.Optional[int]    `json:"alert_before_hours"`
	IsActive         utils.Optional[bool]   `json:"is_active"`
}

func validThreshold(value *int) error {
	if value == nil || *value <= 0 {
		return invalid("threshold_value must be a positive number")
	}
	return nil
}

func validUnit(unit *string) error {
	if unit != nil {
		for _, known := range slaUnits {
			if *unit == known {
				return nil
			}
		}
	}
	return invalid("threshold_unit must be one of: %s", strings.Join(slaUnits, ", "))
}

// SLARule builds a new SLA rule. The unit defaults to hours.
func (in SLARuleInput) SLARule() (*models.SLARule, error) {
	name, err := requiredName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validThreshold(in.ThresholdValue.Value); err != nil {
		return nil, err
	}
	rule := &models.SLARule{
		Name:             name,
		Description:      in.Description.Value,
		ThresholdValue:   *in.ThresholdValue.Value,
		ThresholdUnit:    "hours",
		AlertBeforeHours: in.AlertBeforeHours.Value,
		IsActive:         enabled(in.IsActive),
	}
	if in.ThresholdUnit.Value != nil {
		if err := validUnit(in.ThresholdUnit.Value); err != nil {
			return nil, err
		}
		rule.ThresholdUnit = *in.ThresholdUnit.Value
	}
	if in.AppliesTo.Value != nil {
		rule.AppliesTo = *in.AppliesTo.Value
	}
	return rule, nil
}

// Fields returns the columns an update writes
func (in SLARuleInput) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if in.Name.Set {
		name, err := requiredName(in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	setColumn(fields, "description", in.Description)
	if in.ThresholdValue.Set {
		if err := validThreshold(in.ThresholdValue.Value); err != nil {
			return nil, err
		}
		fields["threshold_value"] = *in.ThresholdValue.Value
	}
	if in.ThresholdUnit.Set {
		if err := validUnit(in.ThresholdUnit.Value); err != nil {
			return nil, err
		}
		fields["threshold_unit"] = *in.ThresholdUnit.Value
	}
	if in.AppliesTo.Value != nil {
		fields["applies_to"] = *in.AppliesTo.Value
	}
	setColumn(fields, "alert_before_hours", in.AlertBeforeHours)
	if in.IsActive.Value != nil {
		fields["is_active"] = *in.IsActive.Value
	}
	return fields, nil
}
