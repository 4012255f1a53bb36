package entities

import (
	"fmt"
	"time"
)

// Order is a top-level demand container. Its order items are the top
// commitments of the explosion trees it owns.
type Order struct {
	ID          OrderID
	Description string
	DueDate     time.Time
	ActorID     AgentID
}

// NewOrder creates a validated Order with a fresh ID.
func NewOrder(description string, dueDate time.Time, actorID AgentID) (*Order, error) {
	if dueDate.IsZero() {
		return nil, fmt.Errorf("order due date cannot be zero")
	}

	return &Order{
		ID:          OrderID(NewID()),
		Description: description,
		DueDate:     Day(dueDate),
		ActorID:     actorID,
	}, nil
}
