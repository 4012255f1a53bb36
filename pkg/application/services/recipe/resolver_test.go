package recipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/recipeplan/pkg/application/services/planningtest"
	"github.com/vsinha/recipeplan/pkg/application/services/recipe"
	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/planning"
)

func TestResolveRecipe_Direct(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	rec, err := f.Service.Resolver.ResolveRecipe(context.Background(), r.Parent.ID, "")
	require.NoError(t, err)
	assert.Equal(t, r.ParentTemplate.ID, rec.Template.ID)
	assert.Equal(t, r.ParentOutLine.ID, rec.Output.ID)
	require.Len(t, rec.Inputs, 1)
	assert.Equal(t, r.Child.ID, rec.Inputs[0].ResourceTypeID)
}

func TestResolveRecipe_ParentChainInheritance(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	// A variant with no recipe of its own builds with its parent's recipe; a
	// grandchild of the recipe holder resolves through two hops.
	variant := f.AddChildType("parent variant", r.Parent, true)
	subvariant := f.AddChildType("parent subvariant", variant, true)

	rec, err := f.Service.Resolver.ResolveRecipe(context.Background(), variant.ID, "")
	require.NoError(t, err)
	assert.Equal(t, r.ParentTemplate.ID, rec.Template.ID)

	rec, err = f.Service.Resolver.ResolveRecipe(context.Background(), subvariant.ID, "")
	require.NoError(t, err)
	assert.Equal(t, r.ParentTemplate.ID, rec.Template.ID)
}

func TestResolveRecipe_NoRecipe(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	_, err := f.Service.Resolver.ResolveRecipe(context.Background(), r.Grandchild.ID, "")
	require.Error(t, err)
	assert.True(t, planning.IsNoRecipe(err))
}

func TestResolveRecipe_StagedSelection(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	ctx := context.Background()

	// Without a stage, a staged type resolves to its final stage.
	rec, err := f.Service.Resolver.ResolveRecipe(ctx, r.Work.ID, "")
	require.NoError(t, err)
	assert.Equal(t, r.Finish.ID, rec.Template.ID)
	assert.Equal(t, entities.EffectChange, rec.Output.Effect)

	// With a stage, it resolves to the template producing that stage.
	rec, err = f.Service.Resolver.ResolveRecipe(ctx, r.Work.ID, r.Cure.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Cure.ID, rec.Template.ID)

	rec, err = f.Service.Resolver.ResolveRecipe(ctx, r.Work.ID, r.Form.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Form.ID, rec.Template.ID)
	assert.Equal(t, entities.EffectCreate, rec.Output.Effect)
}

func TestStagedSequence_Valid(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()

	sequence, err := f.Service.StagedSequence(context.Background(), r.Work.ID)
	require.NoError(t, err)
	require.Len(t, sequence, 3)
	assert.Equal(t, r.Form.ID, sequence[0].TemplateID)
	assert.Equal(t, r.Cure.ID, sequence[1].TemplateID)
	assert.Equal(t, r.Finish.ID, sequence[2].TemplateID)

	staged, err := f.Service.Resolver.IsStaged(context.Background(), r.Work.ID)
	require.NoError(t, err)
	assert.True(t, staged)
}

func TestStagedSequence_UnstagedType(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildTwoLevelRecipe()

	_, err := f.Service.StagedSequence(context.Background(), r.Parent.ID)
	require.Error(t, err)
	assert.True(t, planning.IsNoRecipe(err))

	staged, err := f.Service.Resolver.IsStaged(context.Background(), r.Parent.ID)
	require.NoError(t, err)
	assert.False(t, staged)
}

func TestStagedSequence_ChangeWithoutCreate(t *testing.T) {
	f := planningtest.NewFixture(t)
	work := f.AddType("workpiece", true)
	cure := f.AddTemplate("cure", entities.MinutesPerDay)
	f.AddLine(cure, work, "1", entities.EffectChange, cure.ID)

	_, err := f.Service.StagedSequence(context.Background(), work.ID)
	require.Error(t, err)
	assert.True(t, planning.IsInvalidStageSequence(err))
	assert.ErrorContains(t, err, "without a create line")
}

func TestStagedSequence_MultipleCreates(t *testing.T) {
	f := planningtest.NewFixture(t)
	work := f.AddType("workpiece", true)
	formA := f.AddTemplate("form a", entities.MinutesPerDay)
	formB := f.AddTemplate("form b", entities.MinutesPerDay)
	f.AddLine(formA, work, "1", entities.EffectCreate, formA.ID)
	f.AddLine(formB, work, "1", entities.EffectCreate, formB.ID)

	_, err := f.Service.StagedSequence(context.Background(), work.ID)
	require.Error(t, err)
	assert.True(t, planning.IsInvalidStageSequence(err))
	assert.ErrorContains(t, err, "more than one create line")
}

func TestStagedSequence_BranchingStages(t *testing.T) {
	f := planningtest.NewFixture(t)
	work := f.AddType("workpiece", true)
	form := f.AddTemplate("form", entities.MinutesPerDay)
	cureA := f.AddTemplate("cure a", entities.MinutesPerDay)
	cureB := f.AddTemplate("cure b", entities.MinutesPerDay)

	f.AddLine(form, work, "1", entities.EffectCreate, form.ID)
	f.AddLine(cureA, work, "1", entities.EffectToBeChanged, form.ID)
	f.AddLine(cureA, work, "1", entities.EffectChange, cureA.ID)
	f.AddLine(cureB, work, "1", entities.EffectToBeChanged, form.ID)
	f.AddLine(cureB, work, "1", entities.EffectChange, cureB.ID)

	_, err := f.Service.StagedSequence(context.Background(), work.ID)
	require.Error(t, err)
	assert.True(t, planning.IsInvalidStageSequence(err))
	assert.ErrorContains(t, err, "more than one successor")
}

func TestStagedSequence_UnreachableStage(t *testing.T) {
	f := planningtest.NewFixture(t)
	work := f.AddType("workpiece", true)
	form := f.AddTemplate("form", entities.MinutesPerDay)
	orphan := f.AddTemplate("orphan", entities.MinutesPerDay)

	// The orphan's change line consumes no known stage, so the chain never
	// reaches it.
	f.AddLine(form, work, "1", entities.EffectCreate, form.ID)
	f.AddLine(orphan, work, "1", entities.EffectChange, orphan.ID)

	_, err := f.Service.StagedSequence(context.Background(), work.ID)
	require.Error(t, err)
	assert.True(t, planning.IsInvalidStageSequence(err))
	assert.ErrorContains(t, err, "unreachable")
}

func TestStagedSequence_Inherited(t *testing.T) {
	f := planningtest.NewFixture(t)
	r := f.BuildStagedRecipe()
	variant := f.AddChildType("workpiece variant", r.Work, true)

	sequence, err := f.Service.StagedSequence(context.Background(), variant.ID)
	require.NoError(t, err)
	require.Len(t, sequence, 3)
	assert.Equal(t, r.Form.ID, sequence[0].TemplateID)
}

func TestStageOf(t *testing.T) {
	tagged := &entities.RecipeLine{TemplateID: "tpl-1", StageID: "stage-1"}
	assert.Equal(t, entities.ProcessTemplateID("stage-1"), recipe.StageOf(tagged))

	untagged := &entities.RecipeLine{TemplateID: "tpl-1"}
	assert.Equal(t, entities.ProcessTemplateID("tpl-1"), recipe.StageOf(untagged))
}
