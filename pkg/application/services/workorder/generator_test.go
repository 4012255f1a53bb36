package workorder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/recipeplan/pkg/application/services/planningtest"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/planning"
)

// stageProcesses returns the generated chain for an order, following the
// commitments stamped with it, ordered form to finish via successor links.
func stageProcesses(t *testing.T, f *planningtest.Fixture, item *entities.Commitment) []*entities.Process {
	t.Helper()
	process, err := f.PlanRepo.GetProcess(item.ProcessID)
	require.NoError(t, err)

	chain := []*entities.Process{process}
	for len(process.PreviousProcessIDs) > 0 {
		require.Len(t, process.PreviousProcessIDs, 1)
		process, err = f.PlanRepo.GetProcess(process.PreviousProcessIDs[0])
		require.NoError(t, err)
		chain = append([]*entities.Process{process}, chain...)
	}
	return chain
}

// orderItem finds the final-stage output commitment of a generated order: the
// one carrying the order without an order item of its own.
func orderItem(t *testing.T, f *planningtest.Fixture, r *planningtest.StagedRecipe, orderID entities.OrderID) *entities.Commitment {
	t.Helper()
	commitments, err := f.PlanRepo.CommitmentsDueBefore(r.Work.ID, planningtest.Date(2030, time.January, 1))
	require.NoError(t, err)
	for _, c := range commitments {
		if c.IndependentDemandID == orderID && c.OrderItemID == "" && c.Effect.IsOutput() {
			return c
		}
	}
	t.Fatal("no order item found")
	return nil
}

func TestGenerateStagedWorkOrder(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	start := planningtest.Date(2026, time.September, 1)

	order, err := f.Service.GenerateStagedWorkOrder(context.Background(), r.Work.ID, start, "tester")
	require.NoError(t, err)

	// Three one-day stages scheduled forward: due three days out.
	assert.Equal(t, planningtest.Date(2026, time.September, 4), order.DueDate)

	item := orderItem(t, f, r, order.ID)
	assert.Equal(t, r.Finish.ID, item.StageID)
	assert.Equal(t, order.DueDate, item.DueDate)

	chain := stageProcesses(t, f, item)
	require.Len(t, chain, 3)
	assert.Equal(t, r.Form.ID, chain[0].TemplateID)
	assert.Equal(t, r.Cure.ID, chain[1].TemplateID)
	assert.Equal(t, r.Finish.ID, chain[2].TemplateID)

	// Each stage starts where the previous one ends.
	assert.Equal(t, start, chain[0].StartDate)
	for i := 1; i < len(chain); i++ {
		assert.Equal(t, chain[i-1].EndDate, chain[i].StartDate)
		assert.Equal(t, chain[i].ID, chain[i-1].NextProcessID)
	}

	// The cure stage consumes the formed piece from the form stage.
	cureInputs, err := f.PlanRepo.InputsOf(chain[1].ID)
	require.NoError(t, err)
	require.Len(t, cureInputs, 1)
	assert.Equal(t, entities.EffectToBeChanged, cureInputs[0].Effect)
	assert.Equal(t, r.Form.ID, cureInputs[0].StageID)
	assert.Equal(t, item.ID, cureInputs[0].OrderItemID)

	producer, err := f.PlanRepo.ProducerOf(cureInputs[0].ID)
	require.NoError(t, err)
	require.NotNil(t, producer)
	assert.Equal(t, chain[0].ID, producer.ID)
}

func TestGenerateStagedWorkOrder_SecondOrderSerializes(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	start := planningtest.Date(2026, time.September, 1)
	ctx := context.Background()

	first, err := f.Service.GenerateStagedWorkOrder(ctx, r.Work.ID, start, "tester")
	require.NoError(t, err)
	require.Equal(t, planningtest.Date(2026, time.September, 4), first.DueDate)

	// The second order wants the same start but queues behind the first on
	// every stage: each stage slips one day.
	second, err := f.Service.GenerateStagedWorkOrder(ctx, r.Work.ID, start, "tester")
	require.NoError(t, err)
	assert.Equal(t, planningtest.Date(2026, time.September, 5), second.DueDate)

	item := orderItem(t, f, r, second.ID)
	chain := stageProcesses(t, f, item)
	require.Len(t, chain, 3)
	assert.Equal(t, planningtest.Date(2026, time.September, 2), chain[0].StartDate)
	assert.Equal(t, planningtest.Date(2026, time.September, 3), chain[1].StartDate)
	assert.Equal(t, planningtest.Date(2026, time.September, 4), chain[2].StartDate)
}

func TestGenerateStagedWorkOrderFromResource(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	start := planningtest.Date(2026, time.September, 1)

	// A piece already formed: only cure and finish remain.
	instance := f.AddInventory(r.Work, "1", r.Form.ID)

	order, err := f.Service.GenerateStagedWorkOrderFromResource(context.Background(), r.Work.ID, instance.ID, start, "tester")
	require.NoError(t, err)
	assert.Equal(t, planningtest.Date(2026, time.September, 3), order.DueDate)

	item := orderItem(t, f, r, order.ID)
	chain := stageProcesses(t, f, item)
	require.Len(t, chain, 2)
	assert.Equal(t, r.Cure.ID, chain[0].TemplateID)
	assert.Equal(t, r.Finish.ID, chain[1].TemplateID)

	// The first scheduled stage consumes the existing piece instead of a
	// previous stage's output.
	cureInputs, err := f.PlanRepo.InputsOf(chain[0].ID)
	require.NoError(t, err)
	require.Len(t, cureInputs, 1)
	assert.Equal(t, instance.ID, cureInputs[0].ResourceInstanceID)

	producer, err := f.PlanRepo.ProducerOf(cureInputs[0].ID)
	require.NoError(t, err)
	assert.Nil(t, producer)
}

func TestGenerateStagedWorkOrderFromResource_Errors(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	start := planningtest.Date(2026, time.September, 1)
	ctx := context.Background()

	finished := f.AddInventory(r.Work, "1", r.Finish.ID)
	_, err := f.Service.GenerateStagedWorkOrderFromResource(ctx, r.Work.ID, finished.ID, start, "tester")
	assert.ErrorContains(t, err, "already at the final stage")

	unstaged := f.AddInventory(r.Work, "1", "")
	_, err = f.Service.GenerateStagedWorkOrderFromResource(ctx, r.Work.ID, unstaged.ID, start, "tester")
	assert.ErrorContains(t, err, "not at any stage")

	_, err = f.Service.GenerateStagedWorkOrderFromResource(ctx, r.Work.ID, "no-such-instance", start, "tester")
	assert.Error(t, err)
}

func TestGenerateStagedWorkOrder_UnstagedTypeFails(t *testing.T) {
	f := planningtest.NewFixture(t)
	two := f.BuildTwoLevelRecipe()

	_, err := f.Service.GenerateStagedWorkOrder(context.Background(), two.Parent.ID, planningtest.Date(2026, time.September, 1), "tester")
	require.Error(t, err)
	assert.True(t, planning.IsNoRecipe(err))
}
