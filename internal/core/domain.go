package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Negative values are expenses,
	// positive values are income.
	Money struct {
		Cents int64
	}

	// Transaction is a single dated, categorized financial movement.
	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money
		Category    string
		Description string
	}

	// TransactionUpdate carries the optional fields of an edit. Nil fields
	// are left untouched by Apply.
	TransactionUpdate struct {
		Date        *Date
		Amount      *Money
		Category    *string
		Description *string
	}
)

var (
	ErrNotFound           = errors.New("transaction not found")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyCategory      = errors.New("empty category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrNegativeLimit      = errors.New("budget limit cannot be negative")
)

// NewDate creates a Date at UTC midnight for year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// InMonth reports whether the date falls in the given year and month.
func (d Date) InMonth(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsExpense reports whether the amount is negative.
func (m Money) IsExpense() bool {
	return m.Cents < 0
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Apply merges the update over the transaction and validates the result.
// The receiver is unchanged on error.
func (t Transaction) Apply(u TransactionUpdate) (Transaction, error) {
	out := t
	if u.Date != nil {
		out.Date = *u.Date
	}
	if u.Amount != nil {
		out.Amount = *u.Amount
	}
	if u.Category != nil {
		out.Category = *u.Category
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if err := out.Validate(); err != nil {
		return t, err
	}
	return out, nil
}
