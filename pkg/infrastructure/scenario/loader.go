// Package scenario loads planning data (resource types, templates, recipe
// lines, inventory, sources, demands) from YAML files into the in-memory
// repositories. Entities reference each other by name in the file; the
// loader resolves names to generated ids.
package scenario

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/infrastructure/repositories/memory"
)

// Scenario is the parsed, validated content of one scenario file.
type Scenario struct {
	ResourceTypes []ResourceTypeDef `yaml:"resource_types" validate:"required,min=1,dive"`
	Templates     []TemplateDef     `yaml:"templates" validate:"dive"`
	RecipeLines   []RecipeLineDef   `yaml:"recipe_lines" validate:"dive"`
	Inventory     []InventoryDef    `yaml:"inventory" validate:"dive"`
	Sources       []SourceDef       `yaml:"sources" validate:"dive"`
	Demands       []DemandDef       `yaml:"demands" validate:"dive"`
}

// ResourceTypeDef declares a resource type.
type ResourceTypeDef struct {
	Name          string `yaml:"name" validate:"required"`
	Parent        string `yaml:"parent"`
	Substitutable bool   `yaml:"substitutable"`
	Unit          string `yaml:"unit"`
}

// TemplateDef declares a process template.
type TemplateDef struct {
	Name            string `yaml:"name" validate:"required"`
	DurationMinutes int    `yaml:"duration_minutes" validate:"min=0"`
}

// RecipeLineDef declares a recipe line; template, resource_type and stage
// reference declared names.
type RecipeLineDef struct {
	Template     string `yaml:"template" validate:"required"`
	ResourceType string `yaml:"resource_type" validate:"required"`
	Quantity     string `yaml:"quantity" validate:"required"`
	Effect       string `yaml:"effect" validate:"required"`
	Stage        string `yaml:"stage"`
}

// InventoryDef declares an on-hand resource instance.
type InventoryDef struct {
	ResourceType string `yaml:"resource_type" validate:"required"`
	Identifier   string `yaml:"identifier"`
	Quantity     string `yaml:"quantity" validate:"required"`
	Stage        string `yaml:"stage"`
}

// SourceDef declares a procurement source.
type SourceDef struct {
	ResourceType string `yaml:"resource_type" validate:"required"`
	Agent        string `yaml:"agent" validate:"required"`
	LeadTimeDays int    `yaml:"lead_time_days" validate:"min=0"`
}

// DemandDef declares a top-level demand for the CLI to explode.
type DemandDef struct {
	ResourceType string `yaml:"resource_type" validate:"required"`
	Quantity     string `yaml:"quantity" validate:"required"`
	Due          string `yaml:"due" validate:"required"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Index maps scenario names to the ids generated while populating.
type Index struct {
	ResourceTypes map[string]entities.ResourceTypeID
	Templates     map[string]entities.ProcessTemplateID
}

// Demand is one parsed demand line, ready to explode.
type Demand struct {
	ResourceTypeID entities.ResourceTypeID
	Quantity       decimal.Decimal
	DueDate        time.Time
}

// Populate loads the scenario into the repositories and returns the name
// index plus the parsed demands.
func (s *Scenario) Populate(recipeRepo *memory.RecipeRepository, inventoryRepo *memory.InventoryRepository) (*Index, []Demand, error) {
	index := &Index{
		ResourceTypes: make(map[string]entities.ResourceTypeID),
		Templates:     make(map[string]entities.ProcessTemplateID),
	}

	// Two passes over resource types so parents can be declared in any order.
	types := make(map[string]*entities.ResourceType, len(s.ResourceTypes))
	for _, def := range s.ResourceTypes {
		rt, err := entities.NewResourceType(def.Name, "", def.Substitutable, def.Unit)
		if err != nil {
			return nil, nil, err
		}
		types[def.Name] = rt
		index.ResourceTypes[def.Name] = rt.ID
	}
	for _, def := range s.ResourceTypes {
		if def.Parent == "" {
			continue
		}
		parent, exists := types[def.Parent]
		if !exists {
			return nil, nil, fmt.Errorf("resource type %s references unknown parent %s", def.Name, def.Parent)
		}
		types[def.Name].ParentID = parent.ID
	}
	for _, def := range s.ResourceTypes {
		recipeRepo.AddResourceType(*types[def.Name])
	}

	for _, def := range s.Templates {
		template, err := entities.NewProcessTemplate(def.Name, def.DurationMinutes)
		if err != nil {
			return nil, nil, err
		}
		recipeRepo.AddProcessTemplate(*template)
		index.Templates[def.Name] = template.ID
	}

	for _, def := range s.RecipeLines {
		templateID, exists := index.Templates[def.Template]
		if !exists {
			return nil, nil, fmt.Errorf("recipe line references unknown template %s", def.Template)
		}
		resourceTypeID, exists := index.ResourceTypes[def.ResourceType]
		if !exists {
			return nil, nil, fmt.Errorf("recipe line references unknown resource type %s", def.ResourceType)
		}
		quantity, err := decimal.NewFromString(def.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("recipe line for %s has invalid quantity %q: %w", def.ResourceType, def.Quantity, err)
		}
		effect, err := entities.ParseEffect(def.Effect)
		if err != nil {
			return nil, nil, fmt.Errorf("recipe line for %s: %w", def.ResourceType, err)
		}
		var stageID entities.ProcessTemplateID
		if def.Stage != "" {
			stageID, exists = index.Templates[def.Stage]
			if !exists {
				return nil, nil, fmt.Errorf("recipe line references unknown stage template %s", def.Stage)
			}
		}
		line, err := entities.NewRecipeLine(templateID, resourceTypeID, quantity, effect, stageID)
		if err != nil {
			return nil, nil, err
		}
		recipeRepo.AddRecipeLine(*line)
	}

	for _, def := range s.Inventory {
		resourceTypeID, exists := index.ResourceTypes[def.ResourceType]
		if !exists {
			return nil, nil, fmt.Errorf("inventory references unknown resource type %s", def.ResourceType)
		}
		quantity, err := decimal.NewFromString(def.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("inventory for %s has invalid quantity %q: %w", def.ResourceType, def.Quantity, err)
		}
		var stageID entities.ProcessTemplateID
		if def.Stage != "" {
			stageID, exists = index.Templates[def.Stage]
			if !exists {
				return nil, nil, fmt.Errorf("inventory references unknown stage template %s", def.Stage)
			}
		}
		instance, err := entities.NewResourceInstance(resourceTypeID, def.Identifier, quantity, stageID)
		if err != nil {
			return nil, nil, err
		}
		inventoryRepo.AddInstance(*instance)
	}

	for _, def := range s.Sources {
		resourceTypeID, exists := index.ResourceTypes[def.ResourceType]
		if !exists {
			return nil, nil, fmt.Errorf("source references unknown resource type %s", def.ResourceType)
		}
		inventoryRepo.AddSource(entities.Source{
			ResourceTypeID: resourceTypeID,
			AgentID:        entities.AgentID(def.Agent),
			LeadTimeDays:   def.LeadTimeDays,
		})
	}

	var demands []Demand
	for _, def := range s.Demands {
		resourceTypeID, exists := index.ResourceTypes[def.ResourceType]
		if !exists {
			return nil, nil, fmt.Errorf("demand references unknown resource type %s", def.ResourceType)
		}
		quantity, err := decimal.NewFromString(def.Quantity)
		if err != nil {
			return nil, nil, fmt.Errorf("demand for %s has invalid quantity %q: %w", def.ResourceType, def.Quantity, err)
		}
		due, err := time.Parse("2006-01-02", def.Due)
		if err != nil {
			return nil, nil, fmt.Errorf("demand for %s has invalid due date %q: %w", def.ResourceType, def.Due, err)
		}
		demands = append(demands, Demand{
			ResourceTypeID: resourceTypeID,
			Quantity:       quantity,
			DueDate:        entities.Day(due),
		})
	}

	return index, demands, nil
}
