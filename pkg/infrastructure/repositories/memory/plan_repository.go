package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// PlanRepository stores the mutable planning entities. Alongside the entity
// maps it keeps the lookup tables the services traverse: inputs and outputs
// per process, commitments per resource type, and the producer link from a
// commitment to the process supplying it.
type PlanRepository struct {
	mu sync.RWMutex

	orders      map[entities.OrderID]entities.Order
	processes   map[entities.ProcessID]entities.Process
	commitments map[entities.CommitmentID]entities.Commitment

	inputsByProcess      map[entities.ProcessID][]entities.CommitmentID
	outputsByProcess     map[entities.ProcessID][]entities.CommitmentID
	commitmentsByType    map[entities.ResourceTypeID][]entities.CommitmentID
	processesByTemplate  map[entities.ProcessTemplateID][]entities.ProcessID
	producerByCommitment map[entities.CommitmentID]entities.ProcessID
	suppliedByProcess    map[entities.ProcessID][]entities.CommitmentID
}

// NewPlanRepository creates an empty plan repository.
func NewPlanRepository() *PlanRepository {
	return &PlanRepository{
		orders:               make(map[entities.OrderID]entities.Order),
		processes:            make(map[entities.ProcessID]entities.Process),
		commitments:          make(map[entities.CommitmentID]entities.Commitment),
		inputsByProcess:      make(map[entities.ProcessID][]entities.CommitmentID),
		outputsByProcess:     make(map[entities.ProcessID][]entities.CommitmentID),
		commitmentsByType:    make(map[entities.ResourceTypeID][]entities.CommitmentID),
		processesByTemplate:  make(map[entities.ProcessTemplateID][]entities.ProcessID),
		producerByCommitment: make(map[entities.CommitmentID]entities.ProcessID),
		suppliedByProcess:    make(map[entities.ProcessID][]entities.CommitmentID),
	}
}

// Verify interface compliance
var _ repositories.PlanRepository = (*PlanRepository)(nil)

// CreateOrder stores a new order.
func (r *PlanRepository) CreateOrder(order *entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order already exists: %s", order.ID)
	}
	r.orders[order.ID] = *order
	return nil
}

// GetOrder returns the order with the given id.
func (r *PlanRepository) GetOrder(id entities.OrderID) (*entities.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, exists := r.orders[id]
	if !exists {
		return nil, fmt.Errorf("order not found: %s", id)
	}
	return &order, nil
}

// UpdateOrder replaces a stored order.
func (r *PlanRepository) UpdateOrder(order *entities.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; !exists {
		return fmt.Errorf("order not found: %s", order.ID)
	}
	r.orders[order.ID] = *order
	return nil
}

// CreateProcess stores a new process.
func (r *PlanRepository) CreateProcess(process *entities.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processes[process.ID]; exists {
		return fmt.Errorf("process already exists: %s", process.ID)
	}
	r.processes[process.ID] = *process
	if process.TemplateID != "" {
		r.processesByTemplate[process.TemplateID] = append(r.processesByTemplate[process.TemplateID], process.ID)
	}
	return nil
}

// GetProcess returns the process with the given id.
func (r *PlanRepository) GetProcess(id entities.ProcessID) (*entities.Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	process, exists := r.processes[id]
	if !exists {
		return nil, fmt.Errorf("process not found: %s", id)
	}
	return &process, nil
}

// UpdateProcess replaces a stored process.
func (r *PlanRepository) UpdateProcess(process *entities.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processes[process.ID]; !exists {
		return fmt.Errorf("process not found: %s", process.ID)
	}
	r.processes[process.ID] = *process
	return nil
}

// DeleteProcess removes a process together with its attached commitments.
func (r *PlanRepository) DeleteProcess(id entities.ProcessID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	process, exists := r.processes[id]
	if !exists {
		return fmt.Errorf("process not found: %s", id)
	}

	for _, cid := range r.inputsByProcess[id] {
		r.removeCommitmentLocked(cid)
	}
	for _, cid := range r.outputsByProcess[id] {
		r.removeCommitmentLocked(cid)
	}
	delete(r.inputsByProcess, id)
	delete(r.outputsByProcess, id)

	// Commitments this process supplied survive, but lose their producer.
	for _, cid := range r.suppliedByProcess[id] {
		delete(r.producerByCommitment, cid)
	}
	delete(r.suppliedByProcess, id)

	if process.TemplateID != "" {
		r.processesByTemplate[process.TemplateID] = removeID(r.processesByTemplate[process.TemplateID], id)
	}
	delete(r.processes, id)
	return nil
}

// CreateCommitment stores a new commitment and indexes it under its process
// (inputs or outputs, by effect) and its resource type.
func (r *PlanRepository) CreateCommitment(commitment *entities.Commitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commitments[commitment.ID]; exists {
		return fmt.Errorf("commitment already exists: %s", commitment.ID)
	}
	r.commitments[commitment.ID] = *commitment
	r.commitmentsByType[commitment.ResourceTypeID] = append(r.commitmentsByType[commitment.ResourceTypeID], commitment.ID)
	if commitment.ProcessID != "" {
		if commitment.Effect.IsOutput() {
			r.outputsByProcess[commitment.ProcessID] = append(r.outputsByProcess[commitment.ProcessID], commitment.ID)
		} else {
			r.inputsByProcess[commitment.ProcessID] = append(r.inputsByProcess[commitment.ProcessID], commitment.ID)
		}
	}
	return nil
}

// GetCommitment returns the commitment with the given id.
func (r *PlanRepository) GetCommitment(id entities.CommitmentID) (*entities.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	commitment, exists := r.commitments[id]
	if !exists {
		return nil, fmt.Errorf("commitment not found: %s", id)
	}
	return &commitment, nil
}

// UpdateCommitment replaces a stored commitment, moving the resource type
// index if the type was re-pointed. Process attachment and effect are fixed
// at creation time.
func (r *PlanRepository) UpdateCommitment(commitment *entities.Commitment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.commitments[commitment.ID]
	if !exists {
		return fmt.Errorf("commitment not found: %s", commitment.ID)
	}
	if stored.ResourceTypeID != commitment.ResourceTypeID {
		r.commitmentsByType[stored.ResourceTypeID] = removeCommitmentID(r.commitmentsByType[stored.ResourceTypeID], commitment.ID)
		r.commitmentsByType[commitment.ResourceTypeID] = append(r.commitmentsByType[commitment.ResourceTypeID], commitment.ID)
	}
	r.commitments[commitment.ID] = *commitment
	return nil
}

// DeleteCommitment removes a commitment and unindexes it.
func (r *PlanRepository) DeleteCommitment(id entities.CommitmentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	commitment, exists := r.commitments[id]
	if !exists {
		return fmt.Errorf("commitment not found: %s", id)
	}
	if commitment.ProcessID != "" {
		if commitment.Effect.IsOutput() {
			r.outputsByProcess[commitment.ProcessID] = removeCommitmentID(r.outputsByProcess[commitment.ProcessID], id)
		} else {
			r.inputsByProcess[commitment.ProcessID] = removeCommitmentID(r.inputsByProcess[commitment.ProcessID], id)
		}
	}
	r.removeCommitmentLocked(id)
	return nil
}

func (r *PlanRepository) removeCommitmentLocked(id entities.CommitmentID) {
	commitment, exists := r.commitments[id]
	if !exists {
		return
	}
	r.commitmentsByType[commitment.ResourceTypeID] = removeCommitmentID(r.commitmentsByType[commitment.ResourceTypeID], id)
	if pid, exists := r.producerByCommitment[id]; exists {
		r.suppliedByProcess[pid] = removeCommitmentID(r.suppliedByProcess[pid], id)
	}
	delete(r.producerByCommitment, id)
	delete(r.commitments, id)
}

// InputsOf returns the input commitments of a process in creation order.
func (r *PlanRepository) InputsOf(processID entities.ProcessID) ([]*entities.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(r.inputsByProcess[processID]), nil
}

// OutputsOf returns the output commitments of a process in creation order.
func (r *PlanRepository) OutputsOf(processID entities.ProcessID) ([]*entities.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(r.outputsByProcess[processID]), nil
}

func (r *PlanRepository) collectLocked(ids []entities.CommitmentID) []*entities.Commitment {
	var commitments []*entities.Commitment
	for _, id := range ids {
		if commitment, exists := r.commitments[id]; exists {
			c := commitment
			commitments = append(commitments, &c)
		}
	}
	return commitments
}

// CommitmentsDueBefore returns unfinished commitments for a resource type
// due strictly before the given date, earliest first.
func (r *PlanRepository) CommitmentsDueBefore(resourceTypeID entities.ResourceTypeID, before time.Time) ([]*entities.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var commitments []*entities.Commitment
	for _, id := range r.commitmentsByType[resourceTypeID] {
		commitment, exists := r.commitments[id]
		if !exists || commitment.Finished {
			continue
		}
		if commitment.DueDate.Before(before) {
			c := commitment
			commitments = append(commitments, &c)
		}
	}
	sort.Slice(commitments, func(i, j int) bool {
		return commitments[i].DueDate.Before(commitments[j].DueDate)
	})
	return commitments, nil
}

// LinkProducer records that a process supplies a commitment.
func (r *PlanRepository) LinkProducer(commitmentID entities.CommitmentID, processID entities.ProcessID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commitments[commitmentID]; !exists {
		return fmt.Errorf("commitment not found: %s", commitmentID)
	}
	if _, exists := r.processes[processID]; !exists {
		return fmt.Errorf("process not found: %s", processID)
	}
	if previous, exists := r.producerByCommitment[commitmentID]; exists {
		r.suppliedByProcess[previous] = removeCommitmentID(r.suppliedByProcess[previous], commitmentID)
	}
	r.producerByCommitment[commitmentID] = processID
	r.suppliedByProcess[processID] = append(r.suppliedByProcess[processID], commitmentID)
	return nil
}

// CommitmentsSuppliedBy returns the commitments a process was recorded as
// supplying.
func (r *PlanRepository) CommitmentsSuppliedBy(processID entities.ProcessID) ([]*entities.Commitment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collectLocked(r.suppliedByProcess[processID]), nil
}

// ProducerOf returns the process supplying a commitment, or nil when the
// commitment has none.
func (r *PlanRepository) ProducerOf(commitmentID entities.CommitmentID) (*entities.Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	processID, exists := r.producerByCommitment[commitmentID]
	if !exists {
		return nil, nil
	}
	process, exists := r.processes[processID]
	if !exists {
		return nil, nil
	}
	return &process, nil
}

// LatestEndForTemplate returns the latest scheduled end date among processes
// of a template.
func (r *PlanRepository) LatestEndForTemplate(templateID entities.ProcessTemplateID) (time.Time, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest time.Time
	found := false
	for _, id := range r.processesByTemplate[templateID] {
		process, exists := r.processes[id]
		if !exists {
			continue
		}
		if !found || process.EndDate.After(latest) {
			latest = process.EndDate
			found = true
		}
	}
	return latest, found, nil
}

func removeCommitmentID(ids []entities.CommitmentID, id entities.CommitmentID) []entities.CommitmentID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func removeID(ids []entities.ProcessID, id entities.ProcessID) []entities.ProcessID {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
