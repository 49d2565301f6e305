package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: -100}).Validate(); err != nil {
		t.Fatalf("expected negative amount to be valid, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Amount:      Money{Cents: -5000},
		Category:    "Groceries",
		Description: "weekly shop",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidDate},
		{Transaction{Date: NewDate(2025, 1, 1), Category: "c"}, ErrInvalidAmount},
		{Transaction{Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}}, ErrEmptyCategory},
		{Transaction{Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: "  "}, ErrEmptyCategory},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionApply(t *testing.T) {
	orig := Transaction{
		ID:       7,
		Date:     NewDate(2025, 3, 10),
		Amount:   Money{Cents: -2000},
		Category: "Rent",
	}

	amt := Money{Cents: -2500}
	desc := "march rent"
	got, err := orig.Apply(TransactionUpdate{Amount: &amt, Description: &desc})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.Amount.Cents != -2500 || got.Description != "march rent" {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if got.Category != "Rent" || got.ID != 7 {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	// Invalid patch leaves the original untouched
	empty := ""
	if _, err := orig.Apply(TransactionUpdate{Category: &empty}); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestDateInMonth(t *testing.T) {
	d := NewDate(2024, 1, 5)
	if !d.InMonth(2024, 1) {
		t.Fatalf("expected in month")
	}
	if d.InMonth(2024, 2) || d.InMonth(2023, 1) {
		t.Fatalf("expected not in month")
	}
}
