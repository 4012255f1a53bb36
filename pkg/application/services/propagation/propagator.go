// Package propagation pushes edits to an already-exploded requirement
// through the existing tree, avoiding full re-explosion where the change is
// only a quantity or demand re-point.
package propagation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/recipeplan/pkg/application/services/explosion"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// Propagator applies commitment edits to an existing explosion tree.
type Propagator struct {
	planRepo   repositories.PlanRepository
	recipeRepo repositories.RecipeRepository
	engine     *explosion.Engine
	logger     *logrus.Logger
}

// NewPropagator creates a change propagator. The engine is used only to
// discard subtrees when a resource type change forces re-explosion.
func NewPropagator(planRepo repositories.PlanRepository, recipeRepo repositories.RecipeRepository, engine *explosion.Engine, logger *logrus.Logger) *Propagator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Propagator{
		planRepo:   planRepo,
		recipeRepo: recipeRepo,
		engine:     engine,
		logger:     logger,
	}
}

// HandleCommitmentChange applies an edit to one exploded commitment.
//
// A resource type change invalidates the planned structure: the commitment's
// process subtree is discarded and the caller must re-run the explosion for
// the new type (needsReExplosion true). A pure quantity change walks the
// existing tree toward the leaves, scaling each commitment by the ratio of
// recipe line quantities used at explosion time; no process is created or
// deleted. A demand re-point with unchanged quantity walks the same chain
// restamping the independent demand with a zero delta.
func (p *Propagator) HandleCommitmentChange(
	ctx context.Context,
	commitmentID entities.CommitmentID,
	newResourceTypeID entities.ResourceTypeID,
	newQuantity decimal.Decimal,
	oldDemandID, newDemandID entities.OrderID,
) (needsReExplosion bool, err error) {
	old, err := p.planRepo.GetCommitment(commitmentID)
	if err != nil {
		return false, fmt.Errorf("failed to load changed commitment %s: %w", commitmentID, err)
	}

	if newResourceTypeID != "" && newResourceTypeID != old.ResourceTypeID {
		return true, p.replaceResourceType(ctx, old, newResourceTypeID, newQuantity, newDemandID)
	}

	delta := newQuantity.Sub(old.Quantity)
	demandChanged := newDemandID != "" && newDemandID != oldDemandID
	if delta.IsZero() && !demandChanged {
		return false, nil
	}

	restamp := entities.OrderID("")
	if demandChanged {
		restamp = newDemandID
	}
	p.logger.WithFields(logrus.Fields{
		"commitment": old.ID,
		"delta":      delta,
		"demand":     restamp,
	}).Debug("propagating commitment change")

	if old.Effect.IsOutput() {
		return false, p.propagateOutput(ctx, old, delta, restamp)
	}
	return false, p.propagateInput(ctx, old, delta, restamp)
}

// replaceResourceType discards the planned structure the old type produced
// and re-points the surviving commitment, leaving re-explosion to the caller.
func (p *Propagator) replaceResourceType(ctx context.Context, old *entities.Commitment, newResourceTypeID entities.ResourceTypeID, newQuantity decimal.Decimal, newDemandID entities.OrderID) error {
	if _, err := p.recipeRepo.GetResourceType(newResourceTypeID); err != nil {
		return fmt.Errorf("failed to re-point commitment %s: %w", old.ID, err)
	}

	if old.Effect.IsOutput() {
		// An output's process was built for the old type; the whole step
		// and its feeders go.
		return p.engine.DeleteProcessTree(ctx, old.ProcessID)
	}

	producer, err := p.planRepo.ProducerOf(old.ID)
	if err != nil {
		return err
	}
	if producer != nil {
		if err := p.engine.DeleteProcessTree(ctx, producer.ID); err != nil {
			return err
		}
	}

	old.ResourceTypeID = newResourceTypeID
	old.Quantity = newQuantity
	if newDemandID != "" {
		old.IndependentDemandID = newDemandID
	}
	return p.planRepo.UpdateCommitment(old)
}

// propagateOutput applies a delta to an output commitment and pushes it into
// every input of the same process.
func (p *Propagator) propagateOutput(ctx context.Context, output *entities.Commitment, delta decimal.Decimal, restamp entities.OrderID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oldQuantity := output.Quantity
	if err := p.apply(output, delta, restamp); err != nil {
		return err
	}

	inputs, err := p.planRepo.InputsOf(output.ProcessID)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		ratio, err := p.lineRatio(output, input, oldQuantity)
		if err != nil {
			return err
		}
		inputDelta := delta.Mul(ratio).Round(2)
		if err := p.propagateInput(ctx, input, inputDelta, restamp); err != nil {
			return err
		}
	}
	return nil
}

// propagateInput applies a delta to an input commitment and pushes it into
// the output of the process feeding it, when one exists.
func (p *Propagator) propagateInput(ctx context.Context, input *entities.Commitment, delta decimal.Decimal, restamp entities.OrderID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.apply(input, delta, restamp); err != nil {
		return err
	}

	producer, err := p.planRepo.ProducerOf(input.ID)
	if err != nil {
		return err
	}
	if producer == nil {
		// Externally sourced, netted away, or curtailed by the cycle
		// policy; the walk ends here.
		return nil
	}

	outputs, err := p.planRepo.OutputsOf(producer.ID)
	if err != nil {
		return err
	}
	for _, output := range outputs {
		if output.ResourceTypeID != input.ResourceTypeID || output.StageID != input.StageID {
			continue
		}
		// The feed is the same resource type; the delta passes through
		// one-to-one regardless of how much of the original gross was
		// netted against inventory.
		return p.propagateOutput(ctx, output, delta, restamp)
	}
	return nil
}

// lineRatio returns input/output quantity ratio from the recipe lines of the
// process template, falling back to the commitments' own proportion for ad
// hoc steps.
func (p *Propagator) lineRatio(output, input *entities.Commitment, outputQuantity decimal.Decimal) (decimal.Decimal, error) {
	process, err := p.planRepo.GetProcess(output.ProcessID)
	if err != nil {
		return decimal.Zero, err
	}
	if process.TemplateID != "" {
		lines, err := p.recipeRepo.GetTemplateLines(process.TemplateID)
		if err != nil {
			return decimal.Zero, err
		}
		var outputLine, inputLine *entities.RecipeLine
		for _, line := range lines {
			switch {
			case outputLine == nil && line.Effect == output.Effect && line.ResourceTypeID == output.ResourceTypeID:
				outputLine = line
			case inputLine == nil && line.Effect == input.Effect && line.ResourceTypeID == input.ResourceTypeID && line.StageID == input.StageID:
				inputLine = line
			}
		}
		if outputLine != nil && inputLine != nil {
			return inputLine.Quantity.Div(outputLine.Quantity), nil
		}
	}

	if outputQuantity.IsZero() {
		return decimal.Zero, nil
	}
	return input.Quantity.Div(outputQuantity), nil
}

func (p *Propagator) apply(commitment *entities.Commitment, delta decimal.Decimal, restamp entities.OrderID) error {
	quantity := commitment.Quantity.Add(delta)
	if quantity.Sign() < 0 {
		quantity = decimal.Zero
	}
	commitment.Quantity = quantity.Round(2)
	if restamp != "" {
		commitment.IndependentDemandID = restamp
	}
	return p.planRepo.UpdateCommitment(commitment)
}
