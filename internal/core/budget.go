package core

import "strings"

// Budget is a per-category monthly spending limit.
type Budget struct {
	Category string
	Limit    Money // non-negative
}

// BudgetStatus reports a budget against a month's spending.
type BudgetStatus struct {
	Category  string
	Limit     Money
	Spent     Money
	Remaining Money // negative when over budget
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit.Cents < 0 {
		return ErrNegativeLimit
	}
	return nil
}

// Status computes the budget status against a category breakdown
// (category -> spent cents). A missing category counts as zero spent.
func (b Budget) Status(breakdown map[string]int64) BudgetStatus {
	spent := breakdown[b.Category]
	return BudgetStatus{
		Category:  b.Category,
		Limit:     b.Limit,
		Spent:     Money{Cents: spent},
		Remaining: Money{Cents: b.Limit.Cents - spent},
	}
}
