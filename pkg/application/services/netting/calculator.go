// Package netting reduces gross demand by on-hand inventory and earlier-due
// commitments before further explosion.
package netting

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// Calculator computes net quantities for commitments.
type Calculator struct {
	recipeRepo    repositories.RecipeRepository
	inventoryRepo repositories.InventoryRepository
	planRepo      repositories.PlanRepository
	sourceRepo    repositories.SourceRepository
}

// NewCalculator creates a netting calculator.
func NewCalculator(
	recipeRepo repositories.RecipeRepository,
	inventoryRepo repositories.InventoryRepository,
	planRepo repositories.PlanRepository,
	sourceRepo repositories.SourceRepository,
) *Calculator {
	return &Calculator{
		recipeRepo:    recipeRepo,
		inventoryRepo: inventoryRepo,
		planRepo:      planRepo,
		sourceRepo:    sourceRepo,
	}
}

// Net returns the part of a commitment's quantity that still needs to be
// exploded. For substitutable resource types,
//
//	available = onHand − sum(earlier-due demand commitments)
//	net       = max(0, quantity − available)
//
// Earlier-due demand can drive available negative, in which case the net
// exceeds the gross: the shortfall is exploded here instead of dropped.
// Non-substitutable types always net to the full gross quantity.
func (c *Calculator) Net(ctx context.Context, commitment *entities.Commitment) (decimal.Decimal, error) {
	resourceType, err := c.recipeRepo.GetResourceType(commitment.ResourceTypeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to net commitment %s: %w", commitment.ID, err)
	}
	if !resourceType.Substitutable {
		return commitment.Quantity, nil
	}

	onHand, err := c.inventoryRepo.OnHandQuantity(commitment.ResourceTypeID, commitment.StageID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read on-hand quantity for %s: %w", commitment.ResourceTypeID, err)
	}

	earlier, err := c.planRepo.CommitmentsDueBefore(commitment.ResourceTypeID, commitment.DueDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list earlier commitments for %s: %w", commitment.ResourceTypeID, err)
	}

	available := onHand
	for _, other := range earlier {
		if other.ID == commitment.ID {
			continue
		}
		// Only competing demand reduces availability; output commitments
		// are planned supply.
		switch other.Effect {
		case entities.EffectConsume, entities.EffectUse, entities.EffectToBeChanged, entities.EffectWork:
			available = available.Sub(other.Quantity)
		case entities.EffectProduce, entities.EffectCreate, entities.EffectChange, entities.EffectCite:
			// not demand
		}
	}

	net := commitment.Quantity.Sub(available)
	if net.Sign() < 0 {
		return decimal.Zero, nil
	}
	return net, nil
}

// Sources returns the procurement sources for a resource type, used for
// lead-time rescheduling of externally sourced inputs.
func (c *Calculator) Sources(ctx context.Context, resourceTypeID entities.ResourceTypeID) ([]*entities.Source, error) {
	return c.sourceRepo.SourcesFor(resourceTypeID)
}
