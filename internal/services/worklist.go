package services

import (
	"time"

	"cobrancas/internal/core"
)

// DueItem is an agreement annotated with its schedule on a given day.
type DueItem struct {
	core.Agreement
	Schedule ScheduleResult
}

// Overdue reports whether the item's installment is past due.
func (d DueItem) Overdue() bool {
	return d.Schedule.Status == Overdue
}

// BuildDueList returns the agreements that are overdue or due today. Overdue
// items come first; within each group the input order is kept.
func BuildDueList(agreements []core.Agreement, today time.Time) []DueItem {
	var overdue, dueToday []DueItem
	for _, a := range agreements {
		res := Evaluate(a, today)
		switch res.Status {
		case Overdue:
			overdue = append(overdue, DueItem{Agreement: a, Schedule: res})
		case DueToday:
			dueToday = append(dueToday, DueItem{Agreement: a, Schedule: res})
		}
	}
	out := make([]DueItem, 0, len(overdue)+len(dueToday))
	out = append(out, overdue...)
	return append(out, dueToday...)
}

// EvaluateAll annotates every agreement with its schedule, keeping input order.
func EvaluateAll(agreements []core.Agreement, today time.Time) []DueItem {
	out := make([]DueItem, len(agreements))
	for i, a := range agreements {
		out[i] = DueItem{Agreement: a, Schedule: Evaluate(a, today)}
	}
	return out
}
