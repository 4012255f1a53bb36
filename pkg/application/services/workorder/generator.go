// Package workorder generates forward-scheduled orders for staged
// (workflow) recipes, where one resource type passes through successive
// transformation stages.
package workorder

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/recipeplan/pkg/application/services/recipe"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// Generator builds staged work orders.
type Generator struct {
	resolver      *recipe.Resolver
	recipeRepo    repositories.RecipeRepository
	planRepo      repositories.PlanRepository
	inventoryRepo repositories.InventoryRepository
	logger        *logrus.Logger
}

// NewGenerator creates a staged work-order generator.
func NewGenerator(
	resolver *recipe.Resolver,
	recipeRepo repositories.RecipeRepository,
	planRepo repositories.PlanRepository,
	inventoryRepo repositories.InventoryRepository,
	logger *logrus.Logger,
) *Generator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Generator{
		resolver:      resolver,
		recipeRepo:    recipeRepo,
		planRepo:      planRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

// GenerateStagedWorkOrder resolves a resource type's staged sequence and
// schedules one process per stage forward from startDate, each stage
// starting at the previous stage's end. The order's due date is the final
// stage's end. A second order for the same staged resource type is
// serialized behind the first: each stage starts no earlier than the latest
// scheduled end of the same process template.
func (g *Generator) GenerateStagedWorkOrder(ctx context.Context, resourceTypeID entities.ResourceTypeID, startDate time.Time, actor entities.AgentID) (*entities.Order, error) {
	sequence, err := g.resolver.StagedSequence(ctx, resourceTypeID)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, resourceTypeID, sequence, "", startDate, actor)
}

// GenerateStagedWorkOrderFromResource schedules only the stages after the
// stage an existing instance has already reached; the instance satisfies the
// earlier stages' output.
func (g *Generator) GenerateStagedWorkOrderFromResource(ctx context.Context, resourceTypeID entities.ResourceTypeID, instanceID entities.ResourceInstanceID, startDate time.Time, actor entities.AgentID) (*entities.Order, error) {
	sequence, err := g.resolver.StagedSequence(ctx, resourceTypeID)
	if err != nil {
		return nil, err
	}

	instance, err := g.inventoryRepo.GetInstance(instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance for staged order: %w", err)
	}

	reached := -1
	for i, line := range sequence {
		if recipe.StageOf(line) == instance.StageID {
			reached = i
			break
		}
	}
	if reached < 0 {
		return nil, fmt.Errorf("instance %s is not at any stage of resource type %s", instanceID, resourceTypeID)
	}
	if reached == len(sequence)-1 {
		return nil, fmt.Errorf("instance %s is already at the final stage", instanceID)
	}

	return g.generate(ctx, resourceTypeID, sequence[reached+1:], instanceID, startDate, actor)
}

func (g *Generator) generate(ctx context.Context, resourceTypeID entities.ResourceTypeID, sequence []*entities.RecipeLine, instanceID entities.ResourceInstanceID, startDate time.Time, actor entities.AgentID) (*entities.Order, error) {
	resourceType, err := g.recipeRepo.GetResourceType(resourceTypeID)
	if err != nil {
		return nil, err
	}

	order, err := entities.NewOrder(resourceType.Name+" work order", startDate, actor)
	if err != nil {
		return nil, err
	}
	if err := g.planRepo.CreateOrder(order); err != nil {
		return nil, err
	}

	var created []*entities.Commitment
	var previousProcess *entities.Process
	previousEnd := entities.Day(startDate)
	for _, line := range sequence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		template, err := g.recipeRepo.GetProcessTemplate(line.TemplateID)
		if err != nil {
			return nil, err
		}

		start := previousEnd
		// Single-resource serialization: a later order's stage queues
		// behind already scheduled work on the same template.
		if latest, ok, err := g.planRepo.LatestEndForTemplate(template.ID); err != nil {
			return nil, err
		} else if ok && latest.After(start) {
			start = latest
		}
		end := entities.AddDays(start, template.DurationDays())

		process, err := entities.NewProcess(template.Name, template.ID, start, end)
		if err != nil {
			return nil, err
		}
		if previousProcess != nil {
			process.PreviousProcessIDs = append(process.PreviousProcessIDs, previousProcess.ID)
		}
		if err := g.planRepo.CreateProcess(process); err != nil {
			return nil, err
		}
		if previousProcess != nil {
			previousProcess.NextProcessID = process.ID
			if err := g.planRepo.UpdateProcess(previousProcess); err != nil {
				return nil, err
			}
		}

		inputs, err := g.stageInputs(process, template, resourceTypeID, order.ID, instanceID, previousProcess)
		if err != nil {
			return nil, err
		}
		created = append(created, inputs...)
		instanceID = "" // only the first scheduled stage consumes the instance

		output, err := entities.NewCommitment(resourceTypeID, line.Quantity, end, line.Effect)
		if err != nil {
			return nil, err
		}
		output.StageID = recipe.StageOf(line)
		output.ProcessID = process.ID
		output.IndependentDemandID = order.ID
		if err := g.planRepo.CreateCommitment(output); err != nil {
			return nil, err
		}
		created = append(created, output)

		previousProcess = process
		previousEnd = end
	}

	// The final stage's output is the order item; the whole chain belongs
	// to its tree.
	orderItemID := created[len(created)-1].ID
	for _, commitment := range created {
		if commitment.ID == orderItemID {
			continue
		}
		commitment.OrderItemID = orderItemID
		if err := g.planRepo.UpdateCommitment(commitment); err != nil {
			return nil, err
		}
	}

	order.DueDate = previousEnd
	if err := g.planRepo.UpdateOrder(order); err != nil {
		return nil, err
	}

	g.logger.WithFields(logrus.Fields{
		"order":    order.ID,
		"resource": resourceTypeID,
		"stages":   len(sequence),
		"due":      order.DueDate.Format("2006-01-02"),
		"actor":    actor,
	}).Info("generated staged work order")
	return order, nil
}

// stageInputs creates the input commitments of one stage process. The
// to-be-changed input is wired to the previous stage's process, or to the
// existing instance when the chain starts from one.
func (g *Generator) stageInputs(process *entities.Process, template *entities.ProcessTemplate, resourceTypeID entities.ResourceTypeID, orderID entities.OrderID, instanceID entities.ResourceInstanceID, previousProcess *entities.Process) ([]*entities.Commitment, error) {
	lines, err := g.recipeRepo.GetTemplateLines(template.ID)
	if err != nil {
		return nil, err
	}

	var created []*entities.Commitment
	for _, line := range lines {
		if line.Effect.IsOutput() || line.Effect == entities.EffectCite {
			continue
		}

		// Staged lines may live on a parent type; the commitment is for
		// the concrete type being ordered.
		inputTypeID := line.ResourceTypeID
		if line.Effect == entities.EffectToBeChanged {
			inputTypeID = resourceTypeID
		}
		input, err := entities.NewCommitment(inputTypeID, line.Quantity, process.StartDate, line.Effect)
		if err != nil {
			return nil, err
		}
		input.StageID = line.StageID
		input.ProcessID = process.ID
		input.IndependentDemandID = orderID
		if err := g.planRepo.CreateCommitment(input); err != nil {
			return nil, err
		}

		if line.Effect == entities.EffectToBeChanged {
			if instanceID != "" {
				input.ResourceInstanceID = instanceID
				if err := g.planRepo.UpdateCommitment(input); err != nil {
					return nil, err
				}
			} else if previousProcess != nil {
				if err := g.planRepo.LinkProducer(input.ID, previousProcess.ID); err != nil {
					return nil, err
				}
			}
		}
		created = append(created, input)
	}
	return created, nil
}
