// Package services composes the planning services behind a single facade,
// the entry point the surrounding application (form handlers, order
// management screens) calls.
package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/recipeplan/pkg/application/services/explosion"
	"github.com/vsinha/recipeplan/pkg/application/services/netting"
	"github.com/vsinha/recipeplan/pkg/application/services/propagation"
	"github.com/vsinha/recipeplan/pkg/application/services/recipe"
	"github.com/vsinha/recipeplan/pkg/application/services/scheduling"
	"github.com/vsinha/recipeplan/pkg/application/services/workorder"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// PlanningService wires the resolver, netting calculator, explosion engine,
// scheduler, change propagator and work-order generator over one set of
// repositories.
type PlanningService struct {
	Resolver   *recipe.Resolver
	Netting    *netting.Calculator
	Engine     *explosion.Engine
	Scheduler  *scheduling.Scheduler
	Propagator *propagation.Propagator
	Generator  *workorder.Generator
}

// NewPlanningService creates a fully wired planning service. A nil logger
// falls back to the standard logrus logger.
func NewPlanningService(
	recipeRepo repositories.RecipeRepository,
	inventoryRepo repositories.InventoryRepository,
	planRepo repositories.PlanRepository,
	sourceRepo repositories.SourceRepository,
	logger *logrus.Logger,
) *PlanningService {
	resolver := recipe.NewResolver(recipeRepo)
	nettingCalc := netting.NewCalculator(recipeRepo, inventoryRepo, planRepo, sourceRepo)
	engine := explosion.NewEngine(resolver, nettingCalc, planRepo, logger)

	return &PlanningService{
		Resolver:   resolver,
		Netting:    nettingCalc,
		Engine:     engine,
		Scheduler:  scheduling.NewScheduler(planRepo, logger),
		Propagator: propagation.NewPropagator(planRepo, recipeRepo, engine, logger),
		Generator:  workorder.NewGenerator(resolver, recipeRepo, planRepo, inventoryRepo, logger),
	}
}

// Explode recursively derives the production steps satisfying a commitment.
func (s *PlanningService) Explode(ctx context.Context, commitment *entities.Commitment, visited explosion.Visited, doExplode bool) (*entities.Process, error) {
	return s.Engine.Explode(ctx, commitment, visited, doExplode)
}

// RescheduleForward shifts a process and its chain forward by deltaDays.
func (s *PlanningService) RescheduleForward(ctx context.Context, processID entities.ProcessID, deltaDays int, actor entities.AgentID) error {
	return s.Scheduler.RescheduleForward(ctx, processID, deltaDays, actor)
}

// RescheduleForwardFromSource moves an externally sourced commitment out to
// its sourcing lead time.
func (s *PlanningService) RescheduleForwardFromSource(ctx context.Context, commitmentID entities.CommitmentID, leadTimeDays int, actor entities.AgentID) error {
	return s.Scheduler.RescheduleForwardFromSource(ctx, commitmentID, leadTimeDays, actor)
}

// HandleCommitmentChange propagates an edit through an exploded tree,
// reporting whether the caller must re-explode.
func (s *PlanningService) HandleCommitmentChange(ctx context.Context, commitmentID entities.CommitmentID, newResourceTypeID entities.ResourceTypeID, newQuantity decimal.Decimal, oldDemandID, newDemandID entities.OrderID) (bool, error) {
	return s.Propagator.HandleCommitmentChange(ctx, commitmentID, newResourceTypeID, newQuantity, oldDemandID, newDemandID)
}

// StagedSequence returns the ordered stage chain of a staged recipe.
func (s *PlanningService) StagedSequence(ctx context.Context, resourceTypeID entities.ResourceTypeID) ([]*entities.RecipeLine, error) {
	return s.Resolver.StagedSequence(ctx, resourceTypeID)
}

// GenerateStagedWorkOrder schedules a staged recipe forward from startDate.
func (s *PlanningService) GenerateStagedWorkOrder(ctx context.Context, resourceTypeID entities.ResourceTypeID, startDate time.Time, actor entities.AgentID) (*entities.Order, error) {
	return s.Generator.GenerateStagedWorkOrder(ctx, resourceTypeID, startDate, actor)
}

// GenerateStagedWorkOrderFromResource schedules the stages remaining after
// the stage an existing instance has reached.
func (s *PlanningService) GenerateStagedWorkOrderFromResource(ctx context.Context, resourceTypeID entities.ResourceTypeID, instanceID entities.ResourceInstanceID, startDate time.Time, actor entities.AgentID) (*entities.Order, error) {
	return s.Generator.GenerateStagedWorkOrderFromResource(ctx, resourceTypeID, instanceID, startDate, actor)
}
