package entities

import "fmt"

// MinutesPerDay converts template durations to calendar days for process
// placement. Sub-day precision is not modeled.
const MinutesPerDay = 1440

// ProcessTemplate is a reusable description of a production step.
type ProcessTemplate struct {
	ID               ProcessTemplateID
	Name             string
	EstimatedMinutes int
	ParentID         ProcessTemplateID // empty = no parent template
	ContextAgentID   AgentID           // owning context, optional
}

// NewProcessTemplate creates a validated ProcessTemplate with a fresh ID.
func NewProcessTemplate(name string, estimatedMinutes int) (*ProcessTemplate, error) {
	if name == "" {
		return nil, fmt.Errorf("process template name cannot be empty")
	}
	if estimatedMinutes < 0 {
		return nil, fmt.Errorf("estimated duration cannot be negative, got %d", estimatedMinutes)
	}

	return &ProcessTemplate{
		ID:               ProcessTemplateID(NewID()),
		Name:             name,
		EstimatedMinutes: estimatedMinutes,
	}, nil
}

// DurationDays returns the template's duration in whole days
// (floor division of minutes by 1440).
func (t *ProcessTemplate) DurationDays() int {
	return t.EstimatedMinutes / MinutesPerDay
}
