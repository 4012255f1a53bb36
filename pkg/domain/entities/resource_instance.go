package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResourceInstance is an on-hand quantity of a resource type, optionally
// tagged with the stage it has reached. The netting calculator reads
// instances but never mutates them.
type ResourceInstance struct {
	ID             ResourceInstanceID
	ResourceTypeID ResourceTypeID
	Identifier     string
	Quantity       decimal.Decimal
	StageID        ProcessTemplateID // empty = unstaged
}

// NewResourceInstance creates a validated ResourceInstance with a fresh ID.
func NewResourceInstance(resourceTypeID ResourceTypeID, identifier string, quantity decimal.Decimal, stageID ProcessTemplateID) (*ResourceInstance, error) {
	if resourceTypeID == "" {
		return nil, fmt.Errorf("resource instance resource type cannot be empty")
	}
	if quantity.Sign() < 0 {
		return nil, fmt.Errorf("resource instance quantity cannot be negative, got %s", quantity)
	}

	return &ResourceInstance{
		ID:             ResourceInstanceID(NewID()),
		ResourceTypeID: resourceTypeID,
		Identifier:     identifier,
		Quantity:       quantity,
		StageID:        stageID,
	}, nil
}

// Source names an agent a resource type can be procured from and the
// procurement lead time in days. Externally sourced (non-recipe) inputs
// reschedule against this lead time.
type Source struct {
	ResourceTypeID ResourceTypeID
	AgentID        AgentID
	LeadTimeDays   int
}
