package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Once    Frequency = "once"
)

// DefaultClientName is shown for agreements whose record carries no name.
const DefaultClientName = "Sem nome"

type (
	Frequency string

	// RawRecord is an agreement as delivered by a ledger store, before normalization.
	RawRecord map[string]any

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Agreement is the canonical installment agreement every scheduling
	// function works on.
	Agreement struct {
		ID                string
		ClientName        string
		Description       string
		StartDate         Date // zero when the record has no usable start date
		Frequency         Frequency
		InstallmentsPaid  int
		TotalInstallments int
		InstallmentAmount Money
		Phone             string
	}

	// NewAgreement is the payload used to register an agreement in a ledger store.
	NewAgreement struct {
		ClientName        string
		Phone             string
		Description       string
		InstallmentAmount Money
		StartDate         Date
		Frequency         Frequency
		InstallmentsPaid  int
		TotalInstallments int
	}
)

var (
	ErrInvalidDay          = errors.New("invalid day")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyClientName     = errors.New("empty client name")
	ErrInvalidStartDate    = errors.New("invalid start date")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidInstallments = errors.New("invalid installments")
)

// IsValid reports whether f is one of the supported cadences.
func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Weekly, Once:
		return true
	default:
		return false
	}
}

// Label returns the Portuguese label stored by the ledger backends.
func (f Frequency) Label() string {
	switch f {
	case Weekly:
		return "semanal"
	case Once:
		return "unica"
	default:
		return "mensal"
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Oldest and newest years a schedulable date may fall in.
const (
	MinYear = 1900
	MaxYear = 2999
)

// IsDegenerate reports whether d is a non-zero date outside the schedulable range.
func (d Date) IsDegenerate() bool {
	if d.IsEmpty() {
		return false
	}
	return d.Year() < MinYear || d.Year() > MaxYear
}

// IsEmpty returns true if the date is zero (no schedule can be derived from it)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsExhausted reports whether every contracted installment has been paid.
func (a Agreement) IsExhausted() bool {
	return a.InstallmentsPaid >= a.TotalInstallments
}

// InstallmentLabel renders the next unpaid installment as "n/total".
func (a Agreement) InstallmentLabel() string {
	next := a.InstallmentsPaid + 1
	if next > a.TotalInstallments {
		next = a.TotalInstallments
	}
	return strconv.Itoa(next) + "/" + strconv.Itoa(a.TotalInstallments)
}

// TotalAmount is the contract value: installment amount times installment count.
// It is only meaningful once Validate has accepted n.
func (n NewAgreement) TotalAmount() Money {
	total, _ := n.InstallmentAmount.Times(n.TotalInstallments)
	return total
}

func (n NewAgreement) Validate() error {
	if len(strings.TrimSpace(n.ClientName)) == 0 {
		return ErrEmptyClientName
	}
	if len(n.ClientName) > 200 {
		return errors.New("client name too long (max 200 characters)")
	}
	if len(n.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := n.InstallmentAmount.Validate(); err != nil {
		return err
	}
	if err := n.StartDate.Validate(); err != nil {
		return ErrInvalidStartDate
	}
	if !n.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if n.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if n.InstallmentsPaid < 0 || n.InstallmentsPaid > n.TotalInstallments {
		return ErrInvalidInstallments
	}
	if _, ok := n.InstallmentAmount.Times(n.TotalInstallments); !ok {
		return ErrInvalidAmount
	}
	return nil
}
