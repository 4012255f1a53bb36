package explosion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/recipeplan/pkg/application/services/planningtest"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

// findByType returns the single commitment for a resource type in a slice.
func findByType(t *testing.T, commitments []*entities.Commitment, resourceTypeID entities.ResourceTypeID) *entities.Commitment {
	t.Helper()
	var found *entities.Commitment
	for _, c := range commitments {
		if c.ResourceTypeID == resourceTypeID {
			require.Nil(t, found, "more than one commitment for resource type %s", resourceTypeID)
			found = c
		}
	}
	require.NotNil(t, found, "no commitment for resource type %s", resourceTypeID)
	return found
}

func TestExplode_TwoLevelsWithNetting(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()
	ctx := context.Background()
	due := planningtest.Date(2026, time.September, 10)

	// 5 child on hand, 2 already promised to someone due earlier.
	f.AddInventory(r.Child, "5", "")
	prior, err := entities.NewCommitment(r.Child.ID, planningtest.Dec("2"), planningtest.Date(2026, time.September, 5), entities.EffectConsume)
	require.NoError(t, err)
	require.NoError(t, f.PlanRepo.CreateCommitment(prior))

	order, err := entities.NewOrder("4 parent", due, "tester")
	require.NoError(t, err)
	require.NoError(t, f.PlanRepo.CreateOrder(order))

	item, parentProcess, err := f.Service.Engine.ExplodeDemand(ctx, order, r.Parent.ID, planningtest.Dec("4"), due)
	require.NoError(t, err)
	require.NotNil(t, parentProcess)

	// Parent step backscheduled from the due date over its two-day duration.
	assert.Equal(t, due, parentProcess.EndDate)
	assert.Equal(t, planningtest.Date(2026, time.September, 8), parentProcess.StartDate)

	producer, err := f.PlanRepo.ProducerOf(item.ID)
	require.NoError(t, err)
	require.NotNil(t, producer)
	assert.Equal(t, parentProcess.ID, producer.ID)

	parentOutputs, err := f.PlanRepo.OutputsOf(parentProcess.ID)
	require.NoError(t, err)
	parentOutput := findByType(t, parentOutputs, r.Parent.ID)
	assert.True(t, parentOutput.Quantity.Equal(planningtest.Dec("4")))
	assert.Equal(t, due, parentOutput.DueDate)

	// Gross child demand is 4 x 2 = 8, due at the parent's start.
	parentInputs, err := f.PlanRepo.InputsOf(parentProcess.ID)
	require.NoError(t, err)
	childInput := findByType(t, parentInputs, r.Child.ID)
	assert.True(t, childInput.Quantity.Equal(planningtest.Dec("8")), "gross child demand, got %s", childInput.Quantity)
	assert.Equal(t, parentProcess.StartDate, childInput.DueDate)
	assert.Equal(t, entities.EffectConsume, childInput.Effect)
	assert.Equal(t, order.ID, childInput.IndependentDemandID)
	assert.Equal(t, item.ID, childInput.OrderItemID)

	// Net child demand: 8 - (5 on hand - 2 promised) = 5. The child step only
	// produces the net quantity; the input keeps the gross.
	childProcess, err := f.PlanRepo.ProducerOf(childInput.ID)
	require.NoError(t, err)
	require.NotNil(t, childProcess)
	childOutputs, err := f.PlanRepo.OutputsOf(childProcess.ID)
	require.NoError(t, err)
	childOutput := findByType(t, childOutputs, r.Child.ID)
	assert.True(t, childOutput.Quantity.Equal(planningtest.Dec("5")), "net child output, got %s", childOutput.Quantity)

	// The child step ends at the input's due date and spans one day.
	assert.Equal(t, childInput.DueDate, childProcess.EndDate)
	assert.Equal(t, planningtest.Date(2026, time.September, 7), childProcess.StartDate)

	// Grandchild gross rides the netted quantity: 5 x 3 = 15, and stops there
	// because grandchild has no recipe.
	childInputs, err := f.PlanRepo.InputsOf(childProcess.ID)
	require.NoError(t, err)
	grandchildInput := findByType(t, childInputs, r.Grandchild.ID)
	assert.True(t, grandchildInput.Quantity.Equal(planningtest.Dec("15")), "grandchild demand, got %s", grandchildInput.Quantity)
	assert.Equal(t, childProcess.StartDate, grandchildInput.DueDate)

	leafProducer, err := f.PlanRepo.ProducerOf(grandchildInput.ID)
	require.NoError(t, err)
	assert.Nil(t, leafProducer, "sourcing leaf must have no producing step")

	// Process chain links: child feeds parent.
	assert.Equal(t, parentProcess.ID, childProcess.NextProcessID)
	parentReloaded, err := f.PlanRepo.GetProcess(parentProcess.ID)
	require.NoError(t, err)
	assert.Contains(t, parentReloaded.PreviousProcessIDs, childProcess.ID)
}

func TestExplode_FullyNettedInputIsNotExploded(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()
	ctx := context.Background()

	// Enough child on hand to cover the whole gross demand.
	f.AddInventory(r.Child, "20", "")

	_, item := f.Demand(r.Parent, "4", planningtest.Date(2026, time.September, 10))
	parentProcess, err := f.Service.Explode(ctx, item, nil, true)
	require.NoError(t, err)
	require.NotNil(t, parentProcess)

	inputs, err := f.PlanRepo.InputsOf(parentProcess.ID)
	require.NoError(t, err)
	childInput := findByType(t, inputs, r.Child.ID)
	assert.True(t, childInput.Quantity.Equal(planningtest.Dec("8")))

	producer, err := f.PlanRepo.ProducerOf(childInput.ID)
	require.NoError(t, err)
	assert.Nil(t, producer, "fully netted input must not spawn a step")
}

func TestExplode_NonSubstitutableIgnoresInventory(t *testing.T) {
	f := planningtest.NewFixture(t)
	parent := f.AddType("engine", true)
	serial := f.AddType("serialized core", false)
	part := f.AddType("casting", true)

	parentTemplate := f.AddTemplate("assemble engine", entities.MinutesPerDay)
	coreTemplate := f.AddTemplate("build core", entities.MinutesPerDay)
	f.AddLine(parentTemplate, parent, "1", entities.EffectProduce, "")
	f.AddLine(parentTemplate, serial, "1", entities.EffectConsume, "")
	f.AddLine(coreTemplate, serial, "1", entities.EffectProduce, "")
	f.AddLine(coreTemplate, part, "4", entities.EffectConsume, "")

	// On-hand serialized stock must not be netted against.
	f.AddInventory(serial, "10", "")

	_, item := f.Demand(parent, "2", planningtest.Date(2026, time.September, 10))
	parentProcess, err := f.Service.Explode(context.Background(), item, nil, true)
	require.NoError(t, err)

	inputs, err := f.PlanRepo.InputsOf(parentProcess.ID)
	require.NoError(t, err)
	serialInput := findByType(t, inputs, serial.ID)

	coreProcess, err := f.PlanRepo.ProducerOf(serialInput.ID)
	require.NoError(t, err)
	require.NotNil(t, coreProcess, "non-substitutable demand always explodes")

	coreOutputs, err := f.PlanRepo.OutputsOf(coreProcess.ID)
	require.NoError(t, err)
	assert.True(t, findByType(t, coreOutputs, serial.ID).Quantity.Equal(planningtest.Dec("2")))
}

func TestExplode_CycleCurtailed(t *testing.T) {
	f := planningtest.NewFixture(t)
	alpha := f.AddType("alpha", true)
	beta := f.AddType("beta", true)

	makeAlpha := f.AddTemplate("make alpha", entities.MinutesPerDay)
	makeBeta := f.AddTemplate("make beta", entities.MinutesPerDay)
	f.AddLine(makeAlpha, alpha, "1", entities.EffectProduce, "")
	f.AddLine(makeAlpha, beta, "1", entities.EffectConsume, "")
	f.AddLine(makeBeta, beta, "1", entities.EffectProduce, "")
	f.AddLine(makeBeta, alpha, "2", entities.EffectConsume, "")

	_, item := f.Demand(alpha, "1", planningtest.Date(2026, time.September, 10))
	alphaProcess, err := f.Service.Explode(context.Background(), item, nil, true)
	require.NoError(t, err)
	require.NotNil(t, alphaProcess)

	alphaInputs, err := f.PlanRepo.InputsOf(alphaProcess.ID)
	require.NoError(t, err)
	betaInput := findByType(t, alphaInputs, beta.ID)
	betaProcess, err := f.PlanRepo.ProducerOf(betaInput.ID)
	require.NoError(t, err)
	require.NotNil(t, betaProcess)

	// The recursive alpha requirement exists but the recursion stopped: the
	// curtailed commitment has no producing step.
	betaInputs, err := f.PlanRepo.InputsOf(betaProcess.ID)
	require.NoError(t, err)
	curtailed := findByType(t, betaInputs, alpha.ID)
	assert.True(t, curtailed.Quantity.Equal(planningtest.Dec("2")))

	producer, err := f.PlanRepo.ProducerOf(curtailed.ID)
	require.NoError(t, err)
	assert.Nil(t, producer)
}

func TestExplode_StagedChain(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	ctx := context.Background()
	due := planningtest.Date(2026, time.September, 10)

	_, item := f.Demand(r.Work, "2", due)
	finishProcess, err := f.Service.Explode(ctx, item, nil, true)
	require.NoError(t, err)
	require.NotNil(t, finishProcess)

	// An unstaged demand for a staged type resolves to the final stage.
	assert.Equal(t, r.Finish.ID, finishProcess.TemplateID)
	assert.Equal(t, due, finishProcess.EndDate)
	assert.Equal(t, planningtest.Date(2026, time.September, 9), finishProcess.StartDate)

	// Finish consumes the cured stage, which the cure step produces.
	finishInputs, err := f.PlanRepo.InputsOf(finishProcess.ID)
	require.NoError(t, err)
	require.Len(t, finishInputs, 1)
	curedInput := finishInputs[0]
	assert.Equal(t, entities.EffectToBeChanged, curedInput.Effect)
	assert.Equal(t, r.Cure.ID, curedInput.StageID)
	assert.True(t, curedInput.Quantity.Equal(planningtest.Dec("2")))

	cureProcess, err := f.PlanRepo.ProducerOf(curedInput.ID)
	require.NoError(t, err)
	require.NotNil(t, cureProcess)
	assert.Equal(t, r.Cure.ID, cureProcess.TemplateID)
	assert.Equal(t, finishProcess.StartDate, cureProcess.EndDate)

	cureInputs, err := f.PlanRepo.InputsOf(cureProcess.ID)
	require.NoError(t, err)
	require.Len(t, cureInputs, 1)
	formedInput := cureInputs[0]
	assert.Equal(t, r.Form.ID, formedInput.StageID)

	formProcess, err := f.PlanRepo.ProducerOf(formedInput.ID)
	require.NoError(t, err)
	require.NotNil(t, formProcess)
	assert.Equal(t, r.Form.ID, formProcess.TemplateID)

	// The form stage has no inputs; the chain ends there.
	formInputs, err := f.PlanRepo.InputsOf(formProcess.ID)
	require.NoError(t, err)
	assert.Empty(t, formInputs)

	// Successor links run form -> cure -> finish.
	assert.Equal(t, cureProcess.ID, formProcess.NextProcessID)
	assert.Equal(t, finishProcess.ID, cureProcess.NextProcessID)
}

func TestExplode_StagedInventoryNetsAtStage(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()

	// A cured piece on hand satisfies the finish stage's input entirely.
	f.AddInventory(r.Work, "1", r.Cure.ID)

	_, item := f.Demand(r.Work, "1", planningtest.Date(2026, time.September, 10))
	finishProcess, err := f.Service.Explode(context.Background(), item, nil, true)
	require.NoError(t, err)
	require.NotNil(t, finishProcess)

	finishInputs, err := f.PlanRepo.InputsOf(finishProcess.ID)
	require.NoError(t, err)
	require.Len(t, finishInputs, 1)

	producer, err := f.PlanRepo.ProducerOf(finishInputs[0].ID)
	require.NoError(t, err)
	assert.Nil(t, producer, "stage netted by on-hand cured stock must not re-run earlier stages")
}

func TestExplode_DoExplodeFalse(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	_, item := f.Demand(r.Parent, "4", planningtest.Date(2026, time.September, 10))
	process, err := f.Service.Explode(context.Background(), item, nil, false)
	require.NoError(t, err)
	assert.Nil(t, process)

	producer, err := f.PlanRepo.ProducerOf(item.ID)
	require.NoError(t, err)
	assert.Nil(t, producer)
}

func TestExplode_LeafType(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	_, item := f.Demand(r.Grandchild, "7", planningtest.Date(2026, time.September, 10))
	process, err := f.Service.Explode(context.Background(), item, nil, true)
	require.NoError(t, err)
	assert.Nil(t, process, "a type with no recipe is a sourcing leaf")
}

func TestDeleteTree(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()
	ctx := context.Background()

	order, err := entities.NewOrder("doomed", planningtest.Date(2026, time.September, 10), "tester")
	require.NoError(t, err)
	require.NoError(t, f.PlanRepo.CreateOrder(order))

	item, parentProcess, err := f.Service.Engine.ExplodeDemand(ctx, order, r.Parent.ID, planningtest.Dec("4"), planningtest.Date(2026, time.September, 10))
	require.NoError(t, err)

	inputs, err := f.PlanRepo.InputsOf(parentProcess.ID)
	require.NoError(t, err)
	childInput := findByType(t, inputs, r.Child.ID)
	childProcess, err := f.PlanRepo.ProducerOf(childInput.ID)
	require.NoError(t, err)
	require.NotNil(t, childProcess)

	require.NoError(t, f.Service.Engine.DeleteTree(ctx, item.ID))

	_, err = f.PlanRepo.GetProcess(parentProcess.ID)
	assert.Error(t, err)
	_, err = f.PlanRepo.GetProcess(childProcess.ID)
	assert.Error(t, err)
	_, err = f.PlanRepo.GetCommitment(childInput.ID)
	assert.Error(t, err)
	_, err = f.PlanRepo.GetCommitment(item.ID)
	assert.Error(t, err, "the order item goes with its tree")
}
