package repositories

import "github.com/vsinha/recipeplan/pkg/domain/entities"

// RecipeRepository provides access to resource types, process templates and
// recipe lines. It is an opaque collaborator implemented by the surrounding
// persistence layer; the in-memory arena implements it for tests and the CLI.
type RecipeRepository interface {
	GetResourceType(id entities.ResourceTypeID) (*entities.ResourceType, error)
	GetProcessTemplate(id entities.ProcessTemplateID) (*entities.ProcessTemplate, error)

	// GetRecipeLines returns the lines for a resource type filtered by
	// effect. An empty stageID matches lines regardless of stage.
	GetRecipeLines(resourceTypeID entities.ResourceTypeID, effect entities.Effect, stageID entities.ProcessTemplateID) ([]*entities.RecipeLine, error)

	// GetTemplateLines returns every line belonging to a process template.
	GetTemplateLines(templateID entities.ProcessTemplateID) ([]*entities.RecipeLine, error)
}
