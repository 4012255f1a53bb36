package entities

import "github.com/google/uuid"

// Opaque identifiers for the planning arena. Entities reference each other
// by ID, never by pointer, so the mutually recursive
// Process/Commitment/ResourceType graph stays cycle-free at the value level.
type (
	ResourceTypeID     string
	ProcessTemplateID  string
	RecipeLineID       string
	OrderID            string
	CommitmentID       string
	ProcessID          string
	ResourceInstanceID string
	AgentID            string
)

// NewID generates a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
