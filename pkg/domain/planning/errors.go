// Package planning holds the domain errors shared by the planning services.
package planning

import (
	"errors"
	"fmt"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

// NoRecipeError reports that a resource type (and its whole parent chain)
// has no recipe lines. During explosion this is not a failure: the type is a
// sourcing leaf. Callers that require a recipe (staged order generation)
// surface it as an error.
type NoRecipeError struct {
	ResourceTypeID entities.ResourceTypeID
	StageID        entities.ProcessTemplateID
}

func (e *NoRecipeError) Error() string {
	if e.StageID != "" {
		return fmt.Sprintf("no recipe for resource type %s at stage %s", e.ResourceTypeID, e.StageID)
	}
	return fmt.Sprintf("no recipe for resource type %s", e.ResourceTypeID)
}

// IsNoRecipe reports whether err is a NoRecipeError, unwrapping as needed.
func IsNoRecipe(err error) bool {
	var nr *NoRecipeError
	return errors.As(err, &nr)
}

// InvalidStageSequenceError reports that a staged recipe's stage markers do
// not form a single linear chain: no unique create line, a stage claimed by
// more than one change line, or change lines unreachable from the create
// line. Staged order generation fails fast on it rather than producing a
// malformed order.
type InvalidStageSequenceError struct {
	ResourceTypeID entities.ResourceTypeID
	Reason         string
}

func (e *InvalidStageSequenceError) Error() string {
	return fmt.Sprintf("invalid stage sequence for resource type %s: %s", e.ResourceTypeID, e.Reason)
}

// IsInvalidStageSequence reports whether err is an InvalidStageSequenceError.
func IsInvalidStageSequence(err error) bool {
	var is *InvalidStageSequenceError
	return errors.As(err, &is)
}
