package repositories

import (
	"time"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
)

// PlanRepository stores the mutable planning entities: orders, processes and
// commitments. One logical unit of work per top-level demand; no
// transactional guarantees are assumed beyond that.
type PlanRepository interface {
	CreateOrder(order *entities.Order) error
	GetOrder(id entities.OrderID) (*entities.Order, error)
	UpdateOrder(order *entities.Order) error

	CreateProcess(process *entities.Process) error
	GetProcess(id entities.ProcessID) (*entities.Process, error)
	UpdateProcess(process *entities.Process) error
	// DeleteProcess removes a process together with its attached commitments.
	DeleteProcess(id entities.ProcessID) error

	CreateCommitment(commitment *entities.Commitment) error
	GetCommitment(id entities.CommitmentID) (*entities.Commitment, error)
	UpdateCommitment(commitment *entities.Commitment) error
	DeleteCommitment(id entities.CommitmentID) error

	// InputsOf and OutputsOf return the commitments attached to a process,
	// in creation order.
	InputsOf(processID entities.ProcessID) ([]*entities.Commitment, error)
	OutputsOf(processID entities.ProcessID) ([]*entities.Commitment, error)

	// CommitmentsDueBefore returns unfinished commitments for a resource
	// type with a due date strictly before the given date.
	CommitmentsDueBefore(resourceTypeID entities.ResourceTypeID, before time.Time) ([]*entities.Commitment, error)

	// LinkProducer records that a process supplies a commitment. ProducerOf
	// returns that process, or nil when the commitment has none (externally
	// sourced, or curtailed by the cycle policy).
	LinkProducer(commitmentID entities.CommitmentID, processID entities.ProcessID) error
	ProducerOf(commitmentID entities.CommitmentID) (*entities.Process, error)
	// CommitmentsSuppliedBy is the reverse of ProducerOf: the commitments a
	// process was recorded as supplying.
	CommitmentsSuppliedBy(processID entities.ProcessID) ([]*entities.Commitment, error)

	// LatestEndForTemplate returns the latest scheduled end date among
	// processes of a template; ok is false when the template has none.
	LatestEndForTemplate(templateID entities.ProcessTemplateID) (end time.Time, ok bool, err error)
}
