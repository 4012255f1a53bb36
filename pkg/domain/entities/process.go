package entities

import (
	"fmt"
	"time"
)

// Process is a scheduled occurrence of a ProcessTemplate (or an ad hoc,
// template-less step). NextProcessID and PreviousProcessIDs record the
// successor/predecessor links laid down at explosion time; the scheduler's
// transitive closures traverse them.
type Process struct {
	ID                 ProcessID
	Name               string
	TemplateID         ProcessTemplateID // empty = ad hoc step
	StartDate          time.Time
	EndDate            time.Time
	Started            bool
	Finished           bool
	NextProcessID      ProcessID
	PreviousProcessIDs []ProcessID
}

// NewProcess creates a validated Process with a fresh ID.
func NewProcess(name string, templateID ProcessTemplateID, startDate, endDate time.Time) (*Process, error) {
	if name == "" {
		return nil, fmt.Errorf("process name cannot be empty")
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("process start date %v cannot be after end date %v", startDate, endDate)
	}

	return &Process{
		ID:         ProcessID(NewID()),
		Name:       name,
		TemplateID: templateID,
		StartDate:  Day(startDate),
		EndDate:    Day(endDate),
	}, nil
}

// DurationDays returns the scheduled length of the process in days.
func (p *Process) DurationDays() int {
	return DaysBetween(p.StartDate, p.EndDate)
}
