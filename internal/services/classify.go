package services

import (
	"time"

	"cobrancas/internal/core"
)

const (
	NotDue    Status = "not_due"
	DueToday  Status = "due_today"
	Overdue   Status = "overdue"
	Exhausted Status = "exhausted"
)

// Status classifies an agreement's next installment relative to today.
type Status string

// NeedsAttention reports whether the status belongs on the due worklist.
func (s Status) NeedsAttention() bool {
	return s == DueToday || s == Overdue
}

// ScheduleResult is the schedule projection of one agreement on one day.
// NextDueDate is zero when no schedule applies.
type ScheduleResult struct {
	NextDueDate core.Date
	Status      Status
}

// Evaluate computes the schedule of a as of today. Only the calendar date of
// today matters; its clock and location are otherwise ignored.
func Evaluate(a core.Agreement, today time.Time) ScheduleResult {
	if a.IsExhausted() {
		return ScheduleResult{Status: Exhausted}
	}
	next := NextDueDate(a)
	if next.IsEmpty() {
		return ScheduleResult{Status: NotDue}
	}

	day := core.DateOf(today)
	switch {
	case next.Equal(day.Time):
		return ScheduleResult{NextDueDate: next, Status: DueToday}
	case next.Before(day.Time):
		return ScheduleResult{NextDueDate: next, Status: Overdue}
	default:
		return ScheduleResult{NextDueDate: next, Status: NotDue}
	}
}

// Classify returns the due status of a as of today.
func Classify(a core.Agreement, today time.Time) Status {
	return Evaluate(a, today).Status
}
