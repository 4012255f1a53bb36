// Package scheduling places processes on the calendar: backward from a due
// date at explosion time, and forward-cascading shifts through an already
// scheduled chain.
package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/recipeplan/pkg/domain/entities"
	"github.com/vsinha/recipeplan/pkg/domain/repositories"
)

// Scheduler computes and adjusts process dates. Today is injectable so tests
// can pin the calendar.
type Scheduler struct {
	planRepo repositories.PlanRepository
	logger   *logrus.Logger
	Today    func() time.Time
}

// NewScheduler creates a scheduler. A nil logger falls back to the standard
// logrus logger.
func NewScheduler(planRepo repositories.PlanRepository, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		planRepo: planRepo,
		logger:   logger,
		Today:    time.Now,
	}
}

// Backschedule computes a process's dates backward from a due date:
// end = dueDate, start = end − duration(template) in whole days.
func Backschedule(dueDate time.Time, template *entities.ProcessTemplate) (start, end time.Time) {
	end = entities.Day(dueDate)
	start = entities.AddDays(end, -template.DurationDays())
	return start, end
}

// IsLate reports whether a process is scheduled to start in the past.
func (s *Scheduler) IsLate(process *entities.Process) bool {
	return process.StartDate.Before(entities.Day(s.Today()))
}

// SlackDays returns the days until a process starts; negative when late.
func (s *Scheduler) SlackDays(process *entities.Process) int {
	return entities.DaysBetween(entities.Day(s.Today()), process.StartDate)
}

// RescheduleForward shifts a process forward by deltaDays, preserving its
// duration, and cascades the shift through the chain: upstream into every
// predecessor whose output feeds an input due at the old start date, and
// downstream into every step consuming this process's supply, up to the
// owning order's due date.
func (s *Scheduler) RescheduleForward(ctx context.Context, processID entities.ProcessID, deltaDays int, actor entities.AgentID) error {
	if deltaDays == 0 {
		return nil
	}
	visited := make(map[entities.ProcessID]bool)
	return s.rescheduleForward(ctx, processID, deltaDays, actor, visited)
}

func (s *Scheduler) rescheduleForward(ctx context.Context, processID entities.ProcessID, deltaDays int, actor entities.AgentID, visited map[entities.ProcessID]bool) error {
	if visited[processID] {
		return nil
	}
	visited[processID] = true
	if err := ctx.Err(); err != nil {
		return err
	}

	process, err := s.planRepo.GetProcess(processID)
	if err != nil {
		return fmt.Errorf("failed to reschedule process %s: %w", processID, err)
	}
	oldStart := process.StartDate
	oldEnd := process.EndDate
	process.StartDate = entities.AddDays(process.StartDate, deltaDays)
	process.EndDate = entities.AddDays(process.EndDate, deltaDays)
	if err := s.planRepo.UpdateProcess(process); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"process": process.ID,
		"name":    process.Name,
		"delta":   deltaDays,
		"start":   process.StartDate.Format("2006-01-02"),
		"actor":   actor,
	}).Info("rescheduled process forward")

	// Upstream: inputs due at the old start date follow the new one, and
	// their producing processes shift with them.
	inputs, err := s.planRepo.InputsOf(process.ID)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		if input.DueDate.Equal(oldStart) {
			input.DueDate = process.StartDate
			if err := s.planRepo.UpdateCommitment(input); err != nil {
				return err
			}
		}
		producer, err := s.planRepo.ProducerOf(input.ID)
		if err != nil {
			return err
		}
		if producer != nil {
			if err := s.rescheduleForward(ctx, producer.ID, deltaDays, actor, visited); err != nil {
				return err
			}
		}
	}

	// Outputs are due at the process end; keep them attached to it.
	outputs, err := s.planRepo.OutputsOf(process.ID)
	if err != nil {
		return err
	}
	for _, output := range outputs {
		if output.DueDate.Equal(oldEnd) {
			output.DueDate = process.EndDate
			if err := s.planRepo.UpdateCommitment(output); err != nil {
				return err
			}
		}
	}

	// Downstream: the commitments this process supplies slip by the same
	// delta, pushing their consuming steps, or the order itself at the top.
	supplied, err := s.planRepo.CommitmentsSuppliedBy(process.ID)
	if err != nil {
		return err
	}
	for _, commitment := range supplied {
		if commitment.DueDate.Equal(oldEnd) {
			commitment.DueDate = process.EndDate
			if err := s.planRepo.UpdateCommitment(commitment); err != nil {
				return err
			}
		}
		if commitment.ProcessID != "" {
			if err := s.rescheduleForward(ctx, commitment.ProcessID, deltaDays, actor, visited); err != nil {
				return err
			}
			continue
		}
		if commitment.IndependentDemandID != "" {
			if err := s.pushOrderDueDate(commitment.IndependentDemandID, commitment.DueDate); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Scheduler) pushOrderDueDate(orderID entities.OrderID, due time.Time) error {
	order, err := s.planRepo.GetOrder(orderID)
	if err != nil {
		return err
	}
	if due.After(order.DueDate) {
		order.DueDate = due
		if err := s.planRepo.UpdateOrder(order); err != nil {
			return err
		}
	}
	return nil
}

// RescheduleForwardFromSource moves an externally sourced commitment's due
// date out to the sourcing lead time. Only the commitment moves; there is no
// producing process to shift. A due date already beyond the lead time is
// left alone.
func (s *Scheduler) RescheduleForwardFromSource(ctx context.Context, commitmentID entities.CommitmentID, leadTimeDays int, actor entities.AgentID) error {
	commitment, err := s.planRepo.GetCommitment(commitmentID)
	if err != nil {
		return fmt.Errorf("failed to reschedule commitment %s: %w", commitmentID, err)
	}

	target := entities.AddDays(entities.Day(s.Today()), leadTimeDays)
	if !target.After(commitment.DueDate) {
		return nil
	}
	commitment.DueDate = target
	if err := s.planRepo.UpdateCommitment(commitment); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"commitment": commitment.ID,
		"leadDays":   leadTimeDays,
		"due":        target.Format("2006-01-02"),
		"actor":      actor,
	}).Info("rescheduled sourced commitment")
	return nil
}

// AllPreviousProcesses returns the transitive predecessors of a process,
// ordered by start date (earliest first).
func (s *Scheduler) AllPreviousProcesses(ctx context.Context, processID entities.ProcessID) ([]*entities.Process, error) {
	visited := make(map[entities.ProcessID]bool)
	var previous []*entities.Process
	if err := s.collectPrevious(processID, visited, &previous); err != nil {
		return nil, err
	}
	sort.Slice(previous, func(i, j int) bool {
		return previous[i].StartDate.Before(previous[j].StartDate)
	})
	return previous, nil
}

func (s *Scheduler) collectPrevious(processID entities.ProcessID, visited map[entities.ProcessID]bool, out *[]*entities.Process) error {
	process, err := s.planRepo.GetProcess(processID)
	if err != nil {
		return err
	}
	for _, previousID := range process.PreviousProcessIDs {
		if visited[previousID] {
			continue
		}
		visited[previousID] = true
		previous, err := s.planRepo.GetProcess(previousID)
		if err != nil {
			return err
		}
		*out = append(*out, previous)
		if err := s.collectPrevious(previousID, visited, out); err != nil {
			return err
		}
	}
	return nil
}

// AllNextProcesses returns the transitive successors of a process, from the
// immediate successor outward.
func (s *Scheduler) AllNextProcesses(ctx context.Context, processID entities.ProcessID) ([]*entities.Process, error) {
	var next []*entities.Process
	visited := map[entities.ProcessID]bool{processID: true}

	current, err := s.planRepo.GetProcess(processID)
	if err != nil {
		return nil, err
	}
	for current.NextProcessID != "" && !visited[current.NextProcessID] {
		visited[current.NextProcessID] = true
		current, err = s.planRepo.GetProcess(current.NextProcessID)
		if err != nil {
			return nil, err
		}
		next = append(next, current)
	}
	return next, nil
}
