package entities

import "fmt"

// ResourceType is a kind of resource. A type with no recipe of its own
// inherits its parent's recipe. Substitutable types are fungible and
// eligible for inventory netting; non-substitutable types are tracked
// unit-by-unit (serialized, unique items) and always explode at gross.
type ResourceType struct {
	ID            ResourceTypeID
	Name          string
	ParentID      ResourceTypeID // empty = no parent
	Substitutable bool
	UnitOfMeasure string
}

// NewResourceType creates a validated ResourceType with a fresh ID.
func NewResourceType(name string, parentID ResourceTypeID, substitutable bool, unitOfMeasure string) (*ResourceType, error) {
	if name == "" {
		return nil, fmt.Errorf("resource type name cannot be empty")
	}

	return &ResourceType{
		ID:            ResourceTypeID(NewID()),
		Name:          name,
		ParentID:      parentID,
		Substitutable: substitutable,
		UnitOfMeasure: unitOfMeasure,
	}, nil
}
