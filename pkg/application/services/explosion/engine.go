// Package explosion turns a top-level demand into a tree of scheduled
// production steps and their input requirements: the dependent-demand
// explosion at the center of the planning core.
package explosion

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/recipeplan/pkg/application/services/netting"
	"github.com/vsinha/recipeplan/pkg/application/services/recipe"
	"github.com/vsinha/recipeplan/pkg/application/services/scheduling"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/planning"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// VisitKey identifies a resource type at a stage within one explosion tree.
// The same resource type at a different stage is a staged chain, not a cycle.
type VisitKey struct {
	ResourceTypeID entities.ResourceTypeID
	StageID        entities.ProcessTemplateID
}

// Visited is the per-call accumulator guarding against cycles and duplicate
// expansion. It is local to one top-level explosion and never shared across
// concurrent calls.
type Visited map[VisitKey]bool

// Engine is the recursive explosion core.
type Engine struct {
	resolver *recipe.Resolver
	netting  *netting.Calculator
	planRepo repositories.PlanRepository
	logger   *logrus.Logger
}

// NewEngine creates an explosion engine. A nil logger falls back to the
// standard logrus logger.
func NewEngine(resolver *recipe.Resolver, nettingCalc *netting.Calculator, planRepo repositories.PlanRepository, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		resolver: resolver,
		netting:  nettingCalc,
		planRepo: planRepo,
		logger:   logger,
	}
}

// Explode derives the production step satisfying a commitment and recurses
// into its inputs. A nil visited set starts a fresh explosion tree. Returns
// nil without error when the commitment's resource type is a sourcing leaf
// (no recipe anywhere on its parent chain) or when doExplode is false: the
// commitment then stands as a terminal requirement to be sourced externally.
func (e *Engine) Explode(ctx context.Context, commitment *entities.Commitment, visited Visited, doExplode bool) (*entities.Process, error) {
	if visited == nil {
		visited = make(Visited)
	}
	return e.explode(ctx, commitment, commitment.Quantity, visited, doExplode)
}

// explode is the recursive worker. quantity is the amount the new process
// must actually produce: the commitment's gross quantity at the top level,
// the netted quantity below it.
func (e *Engine) explode(ctx context.Context, commitment *entities.Commitment, quantity decimal.Decimal, visited Visited, doExplode bool) (*entities.Process, error) {
	if !doExplode {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := e.resolver.ResolveRecipe(ctx, commitment.ResourceTypeID, commitment.StageID)
	if err != nil {
		if planning.IsNoRecipe(err) {
			return nil, nil
		}
		return nil, err
	}

	start, end := scheduling.Backschedule(commitment.DueDate, rec.Template)
	process, err := entities.NewProcess(rec.Template.Name, rec.Template.ID, start, end)
	if err != nil {
		return nil, err
	}
	process.NextProcessID = commitment.ProcessID
	if err := e.planRepo.CreateProcess(process); err != nil {
		return nil, err
	}
	if commitment.ProcessID != "" {
		if err := e.linkPredecessor(commitment.ProcessID, process.ID); err != nil {
			return nil, err
		}
	}
	if err := e.planRepo.LinkProducer(commitment.ID, process.ID); err != nil {
		return nil, err
	}

	orderItemID := commitment.OrderItemID
	if orderItemID == "" {
		orderItemID = commitment.ID
	}

	outputStage := commitment.StageID
	if outputStage == "" && rec.Output.Effect.IsStageOutput() {
		outputStage = recipe.StageOf(rec.Output)
	}
	output, err := entities.NewCommitment(commitment.ResourceTypeID, quantity, process.EndDate, rec.Output.Effect)
	if err != nil {
		return nil, err
	}
	output.StageID = outputStage
	output.ProcessID = process.ID
	output.IndependentDemandID = commitment.IndependentDemandID
	output.OrderItemID = orderItemID
	if err := e.planRepo.CreateCommitment(output); err != nil {
		return nil, err
	}

	visited[VisitKey{ResourceTypeID: commitment.ResourceTypeID, StageID: commitment.StageID}] = true

	e.logger.WithFields(logrus.Fields{
		"process":  process.Name,
		"resource": commitment.ResourceTypeID,
		"quantity": quantity,
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
	}).Debug("exploded production step")

	for _, line := range rec.Inputs {
		// Cited lines reference an existing instance; nothing to produce.
		if line.Effect == entities.EffectCite {
			continue
		}

		gross := quantity.Mul(line.Quantity).Div(rec.Output.Quantity)
		input, err := entities.NewCommitment(line.ResourceTypeID, gross, process.StartDate, line.Effect)
		if err != nil {
			return nil, err
		}
		input.StageID = line.StageID
		input.ProcessID = process.ID
		input.IndependentDemandID = commitment.IndependentDemandID
		input.OrderItemID = orderItemID
		if err := e.planRepo.CreateCommitment(input); err != nil {
			return nil, err
		}

		net, err := e.netting.Net(ctx, input)
		if err != nil {
			return nil, err
		}

		key := VisitKey{ResourceTypeID: input.ResourceTypeID, StageID: input.StageID}
		if visited[key] {
			// Cycle policy: stop exploding, keep the commitment. The
			// curtailed input ends up with no producing process, which is
			// how callers detect the curtailment post hoc.
			e.logger.WithFields(logrus.Fields{
				"resource": input.ResourceTypeID,
				"stage":    input.StageID,
			}).Debug("curtailed repeated resource type")
			continue
		}
		if net.Sign() > 0 {
			if _, err := e.explode(ctx, input, net, visited, true); err != nil {
				return nil, err
			}
		}
	}

	return process, nil
}

func (e *Engine) linkPredecessor(parentID, childID entities.ProcessID) error {
	parent, err := e.planRepo.GetProcess(parentID)
	if err != nil {
		return err
	}
	parent.PreviousProcessIDs = append(parent.PreviousProcessIDs, childID)
	return e.planRepo.UpdateProcess(parent)
}

// ExplodeDemand creates the order item commitment for a demand and explodes
// it: the entry point order-management screens call for a fresh demand.
func (e *Engine) ExplodeDemand(ctx context.Context, order *entities.Order, resourceTypeID entities.ResourceTypeID, quantity decimal.Decimal, dueDate time.Time) (*entities.Commitment, *entities.Process, error) {
	item, err := entities.NewCommitment(resourceTypeID, quantity, dueDate, entities.EffectProduce)
	if err != nil {
		return nil, nil, err
	}
	item.IndependentDemandID = order.ID
	if err := e.planRepo.CreateCommitment(item); err != nil {
		return nil, nil, err
	}

	process, err := e.Explode(ctx, item, nil, true)
	if err != nil {
		return nil, nil, err
	}
	return item, process, nil
}

// DeleteTree discards everything reachable from a top commitment: the
// abandonment path for an explosion the caller no longer wants. The
// commitment itself is deleted last.
func (e *Engine) DeleteTree(ctx context.Context, commitmentID entities.CommitmentID) error {
	commitment, err := e.planRepo.GetCommitment(commitmentID)
	if err != nil {
		return fmt.Errorf("failed to delete tree for commitment %s: %w", commitmentID, err)
	}

	producer, err := e.planRepo.ProducerOf(commitment.ID)
	if err != nil {
		return err
	}
	if producer != nil {
		if err := e.DeleteProcessTree(ctx, producer.ID); err != nil {
			return err
		}
	}

	// Commitments attached to a process are cascaded with it; the order
	// item is attached to none and is removed here.
	if commitment.ProcessID == "" {
		return e.planRepo.DeleteCommitment(commitment.ID)
	}
	return nil
}

// DeleteProcessTree deletes a process, its commitments, and every process
// feeding it, transitively.
func (e *Engine) DeleteProcessTree(ctx context.Context, processID entities.ProcessID) error {
	inputs, err := e.planRepo.InputsOf(processID)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		producer, err := e.planRepo.ProducerOf(input.ID)
		if err != nil {
			return err
		}
		if producer != nil {
			if err := e.DeleteProcessTree(ctx, producer.ID); err != nil {
				return err
			}
		}
	}

	e.logger.WithFields(logrus.Fields{"process": processID}).Info("deleting process subtree")
	return e.planRepo.DeleteProcess(processID)
}
