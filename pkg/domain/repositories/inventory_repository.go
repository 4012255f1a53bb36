package repositories

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

// InventoryRepository provides read access to on-hand resource instances.
// The planning core never mutates inventory.
type InventoryRepository interface {
	// OnHandQuantity sums the on-hand quantity of a resource type. A
	// non-empty stageID restricts the sum to instances at that stage.
	OnHandQuantity(resourceTypeID entities.ResourceTypeID, stageID entities.ProcessTemplateID) (decimal.Decimal, error)

	GetInstance(id entities.ResourceInstanceID) (*entities.ResourceInstance, error)
	GetInstances(resourceTypeID entities.ResourceTypeID) ([]*entities.ResourceInstance, error)
}

// SourceRepository provides the procurement sources for externally sourced
// (non-recipe) resource types.
type SourceRepository interface {
	SourcesFor(resourceTypeID entities.ResourceTypeID) ([]*entities.Source, error)
}
