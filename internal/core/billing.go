package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingRange maps a statement month onto the half-open interval
// [previous month's closingDay, this month's closingDay). With closingDay=17
// the "March" statement covers Feb 17 00:00 up to but excluding Mar 17 00:00.
//
// time.Date normalizes month rollover and day overflow, so closingDay=31 in
// a 30-day month rolls into the following month. Accepted quirk, kept from
// the original shape of the computation.
func BillingRange(month, year, closingDay int) (start, end time.Time) {
	start = time.Date(year, time.Month(month-1), closingDay, 0, 0, 0, 0, time.Local)
	end = time.Date(year, time.Month(month), closingDay, 0, 0, 0, 0, time.Local)
	return start, end
}

// MonthRange returns the half-open interval covering one local calendar
// month, used by the transaction list filter.
func MonthRange(month, year int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.Local)
	return start, end
}

// BillSummary is a card's current-statement view: the expenses inside the
// active billing range, their sum, and the credit left on the limit.
type BillSummary struct {
	Expenses  []CardExpense   `json:"expenses"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
}

// ComputeBill sums the already-range-filtered expenses and derives available
// credit. Pure function of its inputs; re-derived on every read, never
// persisted.
func ComputeBill(expenses []CardExpense, limit decimal.Decimal) BillSummary {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.TotalAmount)
	}
	if expenses == nil {
		expenses = []CardExpense{}
	}
	return BillSummary{
		Expenses:  expenses,
		Total:     total,
		Available: limit.Sub(total),
	}
}
