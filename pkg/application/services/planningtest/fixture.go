// Package planningtest provides shared fixtures for the planning service
// tests: in-memory repositories, a wired service, and the recipe graphs the
// scenarios are built on.
package planningtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/recipeplan/pkg/application/services"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/infrastructure/repositories/memory"
)

// Dec parses a decimal literal, failing the build on bad constants.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date builds a midnight-UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixture bundles the in-memory repositories with a wired planning service.
type Fixture struct {
	T             *testing.T
	RecipeRepo    *memory.RecipeRepository
	InventoryRepo *memory.InventoryRepository
	PlanRepo      *memory.PlanRepository
	Service       *services.PlanningService
}

// NewFixture creates an empty fixture with quiet logging.
func NewFixture(t *testing.T) *Fixture {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	recipeRepo := memory.NewRecipeRepository()
	inventoryRepo := memory.NewInventoryRepository()
	planRepo := memory.NewPlanRepository()

	return &Fixture{
		T:             t,
		RecipeRepo:    recipeRepo,
		InventoryRepo: inventoryRepo,
		PlanRepo:      planRepo,
		Service:       services.NewPlanningService(recipeRepo, inventoryRepo, planRepo, inventoryRepo, logger),
	}
}

// AddType declares a resource type.
func (f *Fixture) AddType(name string, substitutable bool) *entities.ResourceType {
	rt, err := entities.NewResourceType(name, "", substitutable, "EA")
	require.NoError(f.T, err)
	f.RecipeRepo.AddResourceType(*rt)
	return rt
}

// AddChildType declares a resource type inheriting recipes from a parent.
func (f *Fixture) AddChildType(name string, parent *entities.ResourceType, substitutable bool) *entities.ResourceType {
	rt, err := entities.NewResourceType(name, parent.ID, substitutable, "EA")
	require.NoError(f.T, err)
	f.RecipeRepo.AddResourceType(*rt)
	return rt
}

// AddTemplate declares a process template.
func (f *Fixture) AddTemplate(name string, minutes int) *entities.ProcessTemplate {
	template, err := entities.NewProcessTemplate(name, minutes)
	require.NoError(f.T, err)
	f.RecipeRepo.AddProcessTemplate(*template)
	return template
}

// AddLine declares a recipe line.
func (f *Fixture) AddLine(template *entities.ProcessTemplate, rt *entities.ResourceType, quantity string, effect entities.Effect, stageID entities.ProcessTemplateID) *entities.RecipeLine {
	line, err := entities.NewRecipeLine(template.ID, rt.ID, Dec(quantity), effect, stageID)
	require.NoError(f.T, err)
	f.RecipeRepo.AddRecipeLine(*line)
	return line
}

// AddInventory puts a quantity of a resource type on hand.
func (f *Fixture) AddInventory(rt *entities.ResourceType, quantity string, stageID entities.ProcessTemplateID) *entities.ResourceInstance {
	instance, err := entities.NewResourceInstance(rt.ID, "", Dec(quantity), stageID)
	require.NoError(f.T, err)
	f.InventoryRepo.AddInstance(*instance)
	return instance
}

// Demand creates an order and its order-item commitment, unexploded.
func (f *Fixture) Demand(rt *entities.ResourceType, quantity string, due time.Time) (*entities.Order, *entities.Commitment) {
	order, err := entities.NewOrder("test demand", due, "tester")
	require.NoError(f.T, err)
	require.NoError(f.T, f.PlanRepo.CreateOrder(order))

	item, err := entities.NewCommitment(rt.ID, Dec(quantity), due, entities.EffectProduce)
	require.NoError(f.T, err)
	item.IndependentDemandID = order.ID
	require.NoError(f.T, f.PlanRepo.CreateCommitment(item))
	return order, item
}

// TwoLevelRecipe is the standing two-level assembly fixture: making 1 parent
// consumes 2 child, making 1 child consumes 3 grandchild. Parent assembly
// takes 2 days, child fabrication 1 day.
type TwoLevelRecipe struct {
	Parent, Child, Grandchild     *entities.ResourceType
	ParentTemplate, ChildTemplate *entities.ProcessTemplate
	ParentOutLine, ChildOutLine   *entities.RecipeLine
	ChildInLine, GrandchildInLine *entities.RecipeLine
}

// BuildTwoLevelRecipe installs the standing two-level assembly fixture.
func (f *Fixture) BuildTwoLevelRecipe() *TwoLevelRecipe {
	r := &TwoLevelRecipe{}
	r.Parent = f.AddType("parent", true)
	r.Child = f.AddType("child", true)
	r.Grandchild = f.AddType("grandchild", true)

	r.ParentTemplate = f.AddTemplate("assemble parent", 2*entities.MinutesPerDay)
	r.ChildTemplate = f.AddTemplate("fabricate child", 1*entities.MinutesPerDay)

	r.ParentOutLine = f.AddLine(r.ParentTemplate, r.Parent, "1", entities.EffectProduce, "")
	r.ChildInLine = f.AddLine(r.ParentTemplate, r.Child, "2", entities.EffectConsume, "")
	r.ChildOutLine = f.AddLine(r.ChildTemplate, r.Child, "1", entities.EffectProduce, "")
	r.GrandchildInLine = f.AddLine(r.ChildTemplate, r.Grandchild, "3", entities.EffectConsume, "")
	return r
}

// StagedRecipe is the standing three-stage workflow fixture for one resource
// type: form (create), cure (change), finish (change), one day per stage.
type StagedRecipe struct {
	Work                 *entities.ResourceType
	Form, Cure, Finish   *entities.ProcessTemplate
	FormLine             *entities.RecipeLine
	CureLine, FinishLine *entities.RecipeLine
}

// BuildStagedRecipe installs the standing three-stage workflow fixture.
func (f *Fixture) BuildStagedRecipe() *StagedRecipe {
	r := &StagedRecipe{}
	r.Work = f.AddType("workpiece", true)

	r.Form = f.AddTemplate("form", 1*entities.MinutesPerDay)
	r.Cure = f.AddTemplate("cure", 1*entities.MinutesPerDay)
	r.Finish = f.AddTemplate("finish", 1*entities.MinutesPerDay)

	r.FormLine = f.AddLine(r.Form, r.Work, "1", entities.EffectCreate, r.Form.ID)
	f.AddLine(r.Cure, r.Work, "1", entities.EffectToBeChanged, r.Form.ID)
	r.CureLine = f.AddLine(r.Cure, r.Work, "1", entities.EffectChange, r.Cure.ID)
	f.AddLine(r.Finish, r.Work, "1", entities.EffectToBeChanged, r.Cure.ID)
	r.FinishLine = f.AddLine(r.Finish, r.Work, "1", entities.EffectChange, r.Finish.ID)
	return r
}
