package ledger

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultUpcomingLimit is the number of alerts shown on the dashboard.
const DefaultUpcomingLimit = 3

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category Category
	Total    decimal.Decimal
}

// DueAlert is a pending expense together with the days left until its date.
// DaysUntilDue is zero on the due day and negative once overdue.
type DueAlert struct {
	Transaction  Transaction
	DaysUntilDue int
}

// Summary is the set of figures shown on the dashboard.
type Summary struct {
	Balance      decimal.Decimal
	TotalRevenue decimal.Decimal
	TotalExpense decimal.Decimal
	Breakdown    []CategoryTotal
	Alerts       []DueAlert
}

// TotalByType sums the amounts of every entry of type t.
func TotalByType(list []Transaction, t Type) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range list {
		if tx.Type == t {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// CurrentBalance is total revenue minus total expense.
func CurrentBalance(list []Transaction) decimal.Decimal {
	return TotalByType(list, TypeRevenue).Sub(TotalByType(list, TypeExpense))
}

// CategoryBreakdown sums expenses per category. Categories are returned in
// the order they first appear in list.
func CategoryBreakdown(list []Transaction) []CategoryTotal {
	index := make(map[Category]int)
	out := make([]CategoryTotal, 0)
	for _, tx := range list {
		if tx.Type != TypeExpense {
			continue
		}
		i, seen := index[tx.Category]
		if !seen {
			index[tx.Category] = len(out)
			out = append(out, CategoryTotal{Category: tx.Category, Total: tx.Amount})
			continue
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out
}

// UpcomingPayments returns at most limit pending expenses, earliest date
// first. Entries sharing a date keep their relative order from list. A
// non-positive limit means DefaultUpcomingLimit.
func UpcomingPayments(list []Transaction, limit int) []Transaction {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	pending := make([]Transaction, 0)
	for _, tx := range list {
		if tx.Type == TypeExpense && tx.Status == StatusPending {
			pending = append(pending, tx)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Date.Before(pending[j].Date)
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending
}

// DueAlerts annotates UpcomingPayments with the days remaining from today.
func DueAlerts(list []Transaction, today civil.Date, limit int) []DueAlert {
	upcoming := UpcomingPayments(list, limit)
	alerts := make([]DueAlert, len(upcoming))
	for i, tx := range upcoming {
		alerts[i] = DueAlert{
			Transaction:  tx,
			DaysUntilDue: tx.Date.DaysSince(today),
		}
	}
	return alerts
}

// Summarize computes every dashboard figure in one pass over the helpers.
func Summarize(list []Transaction, today civil.Date) Summary {
	revenue := TotalByType(list, TypeRevenue)
	expense := TotalByType(list, TypeExpense)
	return Summary{
		Balance:      revenue.Sub(expense),
		TotalRevenue: revenue,
		TotalExpense: expense,
		Breakdown:    CategoryBreakdown(list),
		Alerts:       DueAlerts(list, today, DefaultUpcomingLimit),
	}
}
