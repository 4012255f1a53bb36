package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Effect tags what a recipe line does to its resource type relative to the
// owning process template. It is a closed enumeration; the explosion engine
// and scheduler match on it exhaustively.
type Effect int

const (
	// EffectProduce is the primary output of an assembly (tree-shaped) recipe.
	EffectProduce Effect = iota
	// EffectConsume is an input used up by the step.
	EffectConsume
	// EffectUse is an input used without being consumed (tooling, equipment).
	EffectUse
	// EffectCite references an existing instance (a design, a standard);
	// cited lines never require production and are skipped on explosion.
	EffectCite
	// EffectWork is work time applied to the step.
	EffectWork
	// EffectCreate is the output of the first stage of a staged recipe.
	EffectCreate
	// EffectToBeChanged is a staged input satisfied by the previous stage's
	// output rather than by a fresh sub-explosion.
	EffectToBeChanged
	// EffectChange is the output of a non-initial stage of a staged recipe.
	EffectChange
)

// String method for Effect enum
func (e Effect) String() string {
	switch e {
	case EffectProduce:
		return "produce"
	case EffectConsume:
		return "consume"
	case EffectUse:
		return "use"
	case EffectCite:
		return "cite"
	case EffectWork:
		return "work"
	case EffectCreate:
		return "create"
	case EffectToBeChanged:
		return "to-be-changed"
	case EffectChange:
		return "change"
	default:
		return "unknown"
	}
}

// ParseEffect parses the textual effect tag used in scenario files.
func ParseEffect(s string) (Effect, error) {
	switch s {
	case "produce":
		return EffectProduce, nil
	case "consume":
		return EffectConsume, nil
	case "use":
		return EffectUse, nil
	case "cite":
		return EffectCite, nil
	case "work":
		return EffectWork, nil
	case "create":
		return EffectCreate, nil
	case "to-be-changed":
		return EffectToBeChanged, nil
	case "change":
		return EffectChange, nil
	default:
		return 0, fmt.Errorf("unknown effect %q", s)
	}
}

// IsOutput reports whether the line is an output of its template.
func (e Effect) IsOutput() bool {
	return e == EffectProduce || e == EffectCreate || e == EffectChange
}

// IsStageOutput reports whether the line is a staged-recipe output.
func (e Effect) IsStageOutput() bool {
	return e == EffectCreate || e == EffectChange
}

// RecipeLine associates a resource type with a process template. Quantity is
// a ratio relative to the template's primary output quantity. StageID marks
// which template last transformed the resource when recipes are staged; two
// lines for the same resource type with different stages are not a cycle.
type RecipeLine struct {
	ID             RecipeLineID
	TemplateID     ProcessTemplateID
	ResourceTypeID ResourceTypeID
	Quantity       decimal.Decimal
	Effect         Effect
	StageID        ProcessTemplateID // empty = unstaged
}

// NewRecipeLine creates a validated RecipeLine with a fresh ID.
func NewRecipeLine(templateID ProcessTemplateID, resourceTypeID ResourceTypeID, quantity decimal.Decimal, effect Effect, stageID ProcessTemplateID) (*RecipeLine, error) {
	if templateID == "" {
		return nil, fmt.Errorf("recipe line template cannot be empty")
	}
	if resourceTypeID == "" {
		return nil, fmt.Errorf("recipe line resource type cannot be empty")
	}
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("recipe line quantity must be positive, got %s", quantity)
	}

	return &RecipeLine{
		ID:             RecipeLineID(NewID()),
		TemplateID:     templateID,
		ResourceTypeID: resourceTypeID,
		Quantity:       quantity,
		Effect:         effect,
		StageID:        stageID,
	}, nil
}
