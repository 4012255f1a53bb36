package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Commitment is a planned requirement or planned supply of a resource type.
// Output commitments (Effect.IsOutput()) belong to the process producing
// them; input commitments belong to the process consuming them.
// IndependentDemandID points at the originating order; OrderItemID points at
// the top commitment of the explosion tree, distinguishing sibling trees
// that share an order.
type Commitment struct {
	ID                  CommitmentID
	ResourceTypeID      ResourceTypeID
	ResourceInstanceID  ResourceInstanceID // optional specific instance
	Quantity            decimal.Decimal
	DueDate             time.Time
	Effect              Effect
	StageID             ProcessTemplateID // empty = unstaged
	ProcessID           ProcessID         // empty until attached to a process
	IndependentDemandID OrderID
	OrderItemID         CommitmentID // empty on the order item itself
	Finished            bool
}

// NewCommitment creates a validated Commitment with a fresh ID.
func NewCommitment(resourceTypeID ResourceTypeID, quantity decimal.Decimal, dueDate time.Time, effect Effect) (*Commitment, error) {
	if resourceTypeID == "" {
		return nil, fmt.Errorf("commitment resource type cannot be empty")
	}
	if quantity.Sign() < 0 {
		return nil, fmt.Errorf("commitment quantity cannot be negative, got %s", quantity)
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("commitment due date cannot be zero")
	}

	return &Commitment{
		ID:             CommitmentID(NewID()),
		ResourceTypeID: resourceTypeID,
		Quantity:       quantity,
		DueDate:        Day(dueDate),
		Effect:         effect,
	}, nil
}
