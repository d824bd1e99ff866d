// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for installment due dates.
// Each frequency (monthly, weekly, once) has its own calculator that
// derives the due date of the next unpaid installment from the start date.
package services

import (
	"fmt"
	"time"

	"cobrancas/internal/core"
)

// DueDateCalculator is the strategy interface for computing the due date of
// an installment. paid is the number of installments already settled, which
// is also the zero-based index of the installment being scheduled.
type DueDateCalculator interface {
	DueDate(start core.Date, paid int) core.Date
}

// MonthlyCalculator implements DueDateCalculator for monthly agreements.
type MonthlyCalculator struct{}

// DueDate advances start by paid calendar months, clamping the day to the
// last day of the target month.
func (MonthlyCalculator) DueDate(start core.Date, paid int) core.Date {
	return AddMonths(start, paid)
}

// WeeklyCalculator implements DueDateCalculator for weekly agreements.
type WeeklyCalculator struct{}

// DueDate advances start by 7*paid days.
func (WeeklyCalculator) DueDate(start core.Date, paid int) core.Date {
	return core.Date{Time: start.AddDate(0, 0, 7*paid)}
}

// OnceCalculator implements DueDateCalculator for single-payment agreements.
type OnceCalculator struct{}

// DueDate is always the start date.
func (OnceCalculator) DueDate(start core.Date, _ int) core.Date {
	return start
}

// AddMonths adds n calendar months to d. When the target month is shorter
// than d's day of month, the result is that month's last day.
func AddMonths(d core.Date, n int) core.Date {
	first := time.Date(d.Year(), time.Month(d.Month())+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := d.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dueDateStrategies maps frequencies to their calculators.
var dueDateStrategies = map[core.Frequency]DueDateCalculator{
	core.Monthly: MonthlyCalculator{},
	core.Weekly:  WeeklyCalculator{},
	core.Once:    OnceCalculator{},
}

// GetDueDateCalculator returns the calculator registered for a frequency.
func GetDueDateCalculator(frequency core.Frequency) (DueDateCalculator, error) {
	calc, ok := dueDateStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return calc, nil
}

// RegisterDueDateCalculator registers a calculator for an additional frequency.
// Not safe for use concurrently with scheduling; register at init time.
func RegisterDueDateCalculator(frequency core.Frequency, calc DueDateCalculator) {
	dueDateStrategies[frequency] = calc
}

// NextDueDate returns the due date of a's next unpaid installment, or the
// zero Date when no schedule can be derived.
func NextDueDate(a core.Agreement) core.Date {
	if a.StartDate.IsEmpty() || a.StartDate.IsDegenerate() {
		return core.Date{}
	}
	calc, err := GetDueDateCalculator(a.Frequency)
	if err != nil {
		return core.Date{}
	}
	paid := a.InstallmentsPaid
	if paid < 0 {
		paid = 0
	}
	return calc.DueDate(a.StartDate, paid)
}
