// Package memory provides in-process arena implementations of the domain
// repositories. Entities are stored in slices addressed through id-to-index
// maps, with secondary indexes for the lookups the planning services need.
package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// RecipeRepository stores resource types, process templates and recipe lines.
type RecipeRepository struct {
	mu sync.RWMutex

	resourceTypes []entities.ResourceType
	typeIndex     map[entities.ResourceTypeID]int

	templates     []entities.ProcessTemplate
	templateIndex map[entities.ProcessTemplateID]int

	lines         []entities.RecipeLine
	linesByType   map[entities.ResourceTypeID][]int
	linesByTplID  map[entities.ProcessTemplateID][]int
}

// NewRecipeRepository creates an empty recipe repository.
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{
		typeIndex:     make(map[entities.ResourceTypeID]int),
		templateIndex: make(map[entities.ProcessTemplateID]int),
		linesByType:   make(map[entities.ResourceTypeID][]int),
		linesByTplID:  make(map[entities.ProcessTemplateID][]int),
	}
}

// Verify interface compliance
var _ repositories.RecipeRepository = (*RecipeRepository)(nil)

// AddResourceType adds a resource type to the repository.
func (r *RecipeRepository) AddResourceType(rt entities.ResourceType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typeIndex[rt.ID] = len(r.resourceTypes)
	r.resourceTypes = append(r.resourceTypes, rt)
}

// AddProcessTemplate adds a process template to the repository.
func (r *RecipeRepository) AddProcessTemplate(t entities.ProcessTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templateIndex[t.ID] = len(r.templates)
	r.templates = append(r.templates, t)
}

// AddRecipeLine adds a recipe line to the repository.
func (r *RecipeRepository) AddRecipeLine(line entities.RecipeLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := len(r.lines)
	r.lines = append(r.lines, line)
	r.linesByType[line.ResourceTypeID] = append(r.linesByType[line.ResourceTypeID], index)
	r.linesByTplID[line.TemplateID] = append(r.linesByTplID[line.TemplateID], index)
}

// GetResourceType returns the resource type with the given id.
func (r *RecipeRepository) GetResourceType(id entities.ResourceTypeID) (*entities.ResourceType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, exists := r.typeIndex[id]
	if !exists {
		return nil, fmt.Errorf("resource type not found: %s", id)
	}
	rt := r.resourceTypes[index]
	return &rt, nil
}

// GetProcessTemplate returns the process template with the given id.
func (r *RecipeRepository) GetProcessTemplate(id entities.ProcessTemplateID) (*entities.ProcessTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, exists := r.templateIndex[id]
	if !exists {
		return nil, fmt.Errorf("process template not found: %s", id)
	}
	t := r.templates[index]
	return &t, nil
}

// GetRecipeLines returns the lines for a resource type filtered by effect.
// An empty stageID matches lines regardless of stage.
func (r *RecipeRepository) GetRecipeLines(resourceTypeID entities.ResourceTypeID, effect entities.Effect, stageID entities.ProcessTemplateID) ([]*entities.RecipeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lines []*entities.RecipeLine
	for _, index := range r.linesByType[resourceTypeID] {
		line := r.lines[index]
		if line.Effect != effect {
			continue
		}
		if stageID != "" && line.StageID != stageID {
			continue
		}
		lines = append(lines, &line)
	}
	return lines, nil
}

// GetTemplateLines returns every line belonging to a process template.
func (r *RecipeRepository) GetTemplateLines(templateID entities.ProcessTemplateID) ([]*entities.RecipeLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var lines []*entities.RecipeLine
	for _, index := range r.linesByTplID[templateID] {
		line := r.lines[index]
		lines = append(lines, &line)
	}
	return lines, nil
}
