package core

// CategoryAmount represents spending aggregated by category name.
// Amount is the absolute value of the expense total.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthSummary is a compact summary for a specific year+month.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Balance    Money
	Spending   Money // abs sum of expenses in the month
	Income     Money // sum of income in the month
	ByCategory []CategoryAmount
}

// Breakdown returns the category totals as a name->cents map.
func (s MonthSummary) Breakdown() map[string]int64 {
	out := make(map[string]int64, len(s.ByCategory))
	for _, c := range s.ByCategory {
		out[c.Name] = c.Amount.Cents
	}
	return out
}
