// Package recipe resolves production recipes for resource types, including
// parent-chain inheritance and staged (workflow) recipe sequences.
package recipe

import (
	"context"
	"fmt"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/planning"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// maxParentDepth bounds the inheritance walk over resource type parents.
const maxParentDepth = 10

// Recipe is one resolved production step: the output line driving the
// quantity ratios, the template that owns it, and the template's input lines.
type Recipe struct {
	Template *entities.ProcessTemplate
	Output   *entities.RecipeLine
	Inputs   []*entities.RecipeLine
}

// Resolver looks up recipes, falling back to a parent resource type's recipe
// when the given type has none of its own.
type Resolver struct {
	recipeRepo repositories.RecipeRepository
}

// NewResolver creates a recipe resolver.
func NewResolver(recipeRepo repositories.RecipeRepository) *Resolver {
	return &Resolver{recipeRepo: recipeRepo}
}

// ResolveRecipe returns the recipe producing a resource type. With a stage,
// it selects the staged output line carrying that stage marker; without one,
// it selects the plain produce line, or the final stage of a staged recipe
// when the type is staged. Types whose whole parent chain has no recipe fail
// with a NoRecipeError: they are sourcing leaves, not production steps.
func (r *Resolver) ResolveRecipe(ctx context.Context, resourceTypeID entities.ResourceTypeID, stageID entities.ProcessTemplateID) (*Recipe, error) {
	currentID := resourceTypeID
	for depth := 0; depth <= maxParentDepth && currentID != ""; depth++ {
		output, err := r.outputLine(currentID, stageID)
		if err != nil {
			return nil, err
		}
		if output != nil {
			return r.buildRecipe(output)
		}

		current, err := r.recipeRepo.GetResourceType(currentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recipe for %s: %w", resourceTypeID, err)
		}
		currentID = current.ParentID
	}

	return nil, &planning.NoRecipeError{ResourceTypeID: resourceTypeID, StageID: stageID}
}

// outputLine finds the output line for one resource type, without
// inheritance. Returns nil when the type has none.
func (r *Resolver) outputLine(resourceTypeID entities.ResourceTypeID, stageID entities.ProcessTemplateID) (*entities.RecipeLine, error) {
	if stageID != "" {
		for _, effect := range []entities.Effect{entities.EffectChange, entities.EffectCreate} {
			lines, err := r.recipeRepo.GetRecipeLines(resourceTypeID, effect, stageID)
			if err != nil {
				return nil, err
			}
			if len(lines) > 0 {
				return lines[0], nil
			}
		}
		return nil, nil
	}

	lines, err := r.recipeRepo.GetRecipeLines(resourceTypeID, entities.EffectProduce, "")
	if err != nil {
		return nil, err
	}
	if len(lines) > 0 {
		return lines[0], nil
	}

	// A demand for a staged type without a stage marker asks for the
	// finished resource, so it resolves to the final stage.
	sequence, err := r.stagedSequenceOf(resourceTypeID)
	if err != nil || len(sequence) == 0 {
		return nil, nil
	}
	return sequence[len(sequence)-1], nil
}

func (r *Resolver) buildRecipe(output *entities.RecipeLine) (*Recipe, error) {
	template, err := r.recipeRepo.GetProcessTemplate(output.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template for recipe line %s: %w", output.ID, err)
	}

	lines, err := r.recipeRepo.GetTemplateLines(output.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for template %s: %w", output.TemplateID, err)
	}

	recipe := &Recipe{Template: template, Output: output}
	for _, line := range lines {
		if !line.Effect.IsOutput() {
			recipe.Inputs = append(recipe.Inputs, line)
		}
	}
	return recipe, nil
}

// StagedSequence returns the ordered chain of stage-tagged lines for a
// staged (linear, workflow-style) recipe, from the create line to the final
// change line, resolving inheritance the same way as ResolveRecipe. A type
// with no staged lines anywhere on its parent chain fails with
// NoRecipeError; stage markers that do not form a single linear chain fail
// with InvalidStageSequenceError.
func (r *Resolver) StagedSequence(ctx context.Context, resourceTypeID entities.ResourceTypeID) ([]*entities.RecipeLine, error) {
	currentID := resourceTypeID
	for depth := 0; depth <= maxParentDepth && currentID != ""; depth++ {
		sequence, err := r.stagedSequenceOf(currentID)
		if err != nil {
			return nil, err
		}
		if sequence != nil {
			return sequence, nil
		}

		current, err := r.recipeRepo.GetResourceType(currentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve staged sequence for %s: %w", resourceTypeID, err)
		}
		currentID = current.ParentID
	}

	return nil, &planning.NoRecipeError{ResourceTypeID: resourceTypeID}
}

// stagedSequenceOf builds the stage chain for one resource type, without
// inheritance. Returns (nil, nil) when the type has no staged lines at all.
func (r *Resolver) stagedSequenceOf(resourceTypeID entities.ResourceTypeID) ([]*entities.RecipeLine, error) {
	creates, err := r.recipeRepo.GetRecipeLines(resourceTypeID, entities.EffectCreate, "")
	if err != nil {
		return nil, err
	}
	changes, err := r.recipeRepo.GetRecipeLines(resourceTypeID, entities.EffectChange, "")
	if err != nil {
		return nil, err
	}
	if len(creates) == 0 && len(changes) == 0 {
		return nil, nil
	}
	if len(creates) == 0 {
		return nil, &planning.InvalidStageSequenceError{ResourceTypeID: resourceTypeID, Reason: "change lines without a create line"}
	}
	if len(creates) > 1 {
		return nil, &planning.InvalidStageSequenceError{ResourceTypeID: resourceTypeID, Reason: "more than one create line"}
	}

	toBeChanged, err := r.recipeRepo.GetRecipeLines(resourceTypeID, entities.EffectToBeChanged, "")
	if err != nil {
		return nil, err
	}
	changeByTemplate := make(map[entities.ProcessTemplateID]*entities.RecipeLine, len(changes))
	for _, line := range changes {
		changeByTemplate[line.TemplateID] = line
	}

	sequence := []*entities.RecipeLine{creates[0]}
	currentStage := StageOf(creates[0])
	for len(sequence) <= len(changes) {
		var next *entities.RecipeLine
		for _, tb := range toBeChanged {
			if tb.StageID != currentStage {
				continue
			}
			change, exists := changeByTemplate[tb.TemplateID]
			if !exists {
				return nil, &planning.InvalidStageSequenceError{ResourceTypeID: resourceTypeID, Reason: fmt.Sprintf("template %s consumes stage %s but has no change line", tb.TemplateID, currentStage)}
			}
			if next != nil {
				return nil, &planning.InvalidStageSequenceError{ResourceTypeID: resourceTypeID, Reason: fmt.Sprintf("stage %s has more than one successor", currentStage)}
			}
			next = change
		}
		if next == nil {
			break
		}
		sequence = append(sequence, next)
		currentStage = StageOf(next)
	}

	if len(sequence) != len(changes)+1 {
		return nil, &planning.InvalidStageSequenceError{ResourceTypeID: resourceTypeID, Reason: "unreachable stage lines"}
	}
	return sequence, nil
}

// IsStaged reports whether a resource type (or an ancestor) carries a staged
// recipe.
func (r *Resolver) IsStaged(ctx context.Context, resourceTypeID entities.ResourceTypeID) (bool, error) {
	_, err := r.StagedSequence(ctx, resourceTypeID)
	if err != nil {
		if planning.IsNoRecipe(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StageOf returns the stage marker a line leaves the resource at: the line's
// stage when tagged, otherwise its owning template.
func StageOf(line *entities.RecipeLine) entities.ProcessTemplateID {
	if line.StageID != "" {
		return line.StageID
	}
	return line.TemplateID
}
