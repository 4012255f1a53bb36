package memory

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// InventoryRepository stores on-hand resource instances and procurement
// sources.
type InventoryRepository struct {
	mu sync.RWMutex

	instances       []entities.ResourceInstance
	instanceIndex   map[entities.ResourceInstanceID]int
	instancesByType map[entities.ResourceTypeID][]int

	sources map[entities.ResourceTypeID][]entities.Source
}

// NewInventoryRepository creates an empty inventory repository.
func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{
		instanceIndex:   make(map[entities.ResourceInstanceID]int),
		instancesByType: make(map[entities.ResourceTypeID][]int),
		sources:         make(map[entities.ResourceTypeID][]entities.Source),
	}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)
var _ repositories.SourceRepository = (*InventoryRepository)(nil)

// AddInstance adds a resource instance to the repository.
func (r *InventoryRepository) AddInstance(instance entities.ResourceInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	index := len(r.instances)
	r.instances = append(r.instances, instance)
	r.instanceIndex[instance.ID] = index
	r.instancesByType[instance.ResourceTypeID] = append(r.instancesByType[instance.ResourceTypeID], index)
}

// AddSource adds a procurement source for a resource type.
func (r *InventoryRepository) AddSource(source entities.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.ResourceTypeID] = append(r.sources[source.ResourceTypeID], source)
}

// OnHandQuantity sums the on-hand quantity of a resource type. A non-empty
// stageID restricts the sum to instances at that stage.
func (r *InventoryRepository) OnHandQuantity(resourceTypeID entities.ResourceTypeID, stageID entities.ProcessTemplateID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, index := range r.instancesByType[resourceTypeID] {
		instance := r.instances[index]
		if stageID != "" && instance.StageID != stageID {
			continue
		}
		total = total.Add(instance.Quantity)
	}
	return total, nil
}

// GetInstance returns the resource instance with the given id.
func (r *InventoryRepository) GetInstance(id entities.ResourceInstanceID) (*entities.ResourceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, exists := r.instanceIndex[id]
	if !exists {
		return nil, fmt.Errorf("resource instance not found: %s", id)
	}
	instance := r.instances[index]
	return &instance, nil
}

// GetInstances returns every instance of a resource type.
func (r *InventoryRepository) GetInstances(resourceTypeID entities.ResourceTypeID) ([]*entities.ResourceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var instances []*entities.ResourceInstance
	for _, index := range r.instancesByType[resourceTypeID] {
		instance := r.instances[index]
		instances = append(instances, &instance)
	}
	return instances, nil
}

// SourcesFor returns the procurement sources for a resource type.
func (r *InventoryRepository) SourcesFor(resourceTypeID entities.ResourceTypeID) ([]*entities.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sources []*entities.Source
	for _, source := range r.sources[resourceTypeID] {
		s := source
		sources = append(sources, &s)
	}
	return sources, nil
}
