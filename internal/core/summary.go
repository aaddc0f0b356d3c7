package core

import (
	"sort"
	"time"

	"fintrack/internal/apperr"
)

// drilldownLimit caps the per-category transaction list carried by the
// category breakdown so the payload stays bounded.
const drilldownLimit = 10

// Totals is the overall income/expense summary of a snapshot.
type Totals struct {
	TotalIncome   Money `json:"totalIncome"`
	TotalExpenses Money `json:"totalExpenses"`
	Balance       Money `json:"balance"`
}

// ComputeTotals sums amounts grouped by type. Accumulation happens in
// cents, so Balance == TotalIncome - TotalExpenses holds exactly.
func ComputeTotals(list []Transaction) Totals {
	var income, expenses int64
	for _, t := range list {
		switch t.Type {
		case Income:
			income += t.Amount.Cents
		case Expense:
			expenses += t.Amount.Cents
		}
	}
	return Totals{
		TotalIncome:   Money{Cents: income},
		TotalExpenses: Money{Cents: expenses},
		Balance:       Money{Cents: income - expenses},
	}
}

// ByCategory groups amounts of the given type by lowercase category.
func ByCategory(list []Transaction, typ TransactionType) map[string]Money {
	out := make(map[string]Money)
	for _, t := range list {
		if t.Type != typ {
			continue
		}
		key := NormalizeCategory(t.Category)
		out[key] = Money{Cents: out[key].Cents + t.Amount.Cents}
	}
	return out
}

// BudgetStatus is the derived, per-request utilization of one budget.
type BudgetStatus struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Limit      Money   `json:"limit"`
	Spent      Money   `json:"spent"`
	Remaining  Money   `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

const (
	StatusGood     = "good"
	StatusWarning  = "warning"
	StatusExceeded = "exceeded"
)

// BudgetStatuses computes utilization for each budget against the given
// expense spending map (lowercase category -> spent). Budgets with no
// matching spend report zero. The displayed percentage is rounded to
// percentDecimals and clamped to [0, 100]; the classification thresholds
// use the raw, unclamped value. Results are sorted highest utilization
// first.
func BudgetStatuses(budgets []Budget, spending map[string]Money, percentDecimals int) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := spending[NormalizeCategory(b.Category)]
		var raw float64
		if b.Limit.Cents > 0 {
			raw = float64(spent.Cents) / float64(b.Limit.Cents) * 100
		}
		display := RoundHalfUp(raw, percentDecimals)
		if display > 100 {
			display = 100
		}
		status := StatusGood
		switch {
		case raw > 100:
			status = StatusExceeded
		case raw > 80:
			status = StatusWarning
		}
		out = append(out, BudgetStatus{
			ID:         b.ID,
			Category:   b.Category,
			Limit:      b.Limit,
			Spent:      spent,
			Remaining:  Money{Cents: b.Limit.Cents - spent.Cents},
			Percentage: display,
			Status:     status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

// MonthSummary is one calendar month of a yearly breakdown.
type MonthSummary struct {
	Month            int    `json:"month"`
	MonthName        string `json:"monthName"`
	Income           Money  `json:"income"`
	Expenses         Money  `json:"expenses"`
	Balance          Money  `json:"balance"`
	TransactionCount int    `json:"transactionCount"`
}

// YearSummary is the full Jan-Dec series plus year totals.
type YearSummary struct {
	Year      int            `json:"year"`
	Months    []MonthSummary `json:"months"`
	YearTotal MonthTotals    `json:"yearTotal"`
}

// MonthTotals aggregates the months of a YearSummary.
type MonthTotals struct {
	Income           Money `json:"income"`
	Expenses         Money `json:"expenses"`
	Balance          Money `json:"balance"`
	TransactionCount int   `json:"transactionCount"`
}

// MonthlyBreakdown buckets the snapshot's transactions for the requested
// year by calendar month. The result always has 12 entries; months with
// no transactions stay zeroed.
func MonthlyBreakdown(list []Transaction, year int) (YearSummary, error) {
	if year < MinYear || year > MaxYear {
		return YearSummary{}, apperr.Validation("year must be between %d and %d", MinYear, MaxYear)
	}
	months := make([]MonthSummary, 12)
	for i := range months {
		months[i].Month = i + 1
		months[i].MonthName = time.Month(i + 1).String()
	}
	for _, t := range list {
		if t.Date.Year() != year {
			continue
		}
		m := &months[t.Date.Month()-1]
		m.TransactionCount++
		switch t.Type {
		case Income:
			m.Income.Cents += t.Amount.Cents
		case Expense:
			m.Expenses.Cents += t.Amount.Cents
		}
	}
	var totals MonthTotals
	for i := range months {
		months[i].Balance = Money{Cents: months[i].Income.Cents - months[i].Expenses.Cents}
		totals.Income.Cents += months[i].Income.Cents
		totals.Expenses.Cents += months[i].Expenses.Cents
		totals.Balance.Cents += months[i].Balance.Cents
		totals.TransactionCount += months[i].TransactionCount
	}
	return YearSummary{Year: year, Months: months, YearTotal: totals}, nil
}

// TransactionSummary is the drill-down view of one constituent
// transaction inside a category breakdown.
type TransactionSummary struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	Date        Date   `json:"date"`
}

// CategorySummary is the aggregate for one category.
type CategorySummary struct {
	Category     string               `json:"category"`
	Type         TransactionType      `json:"type"`
	Total        Money                `json:"total"`
	Count        int                  `json:"count"`
	Average      Money                `json:"average"`
	Min          Money                `json:"min"`
	Max          Money                `json:"max"`
	Transactions []TransactionSummary `json:"transactions"`
}

// CategoryBreakdown groups the (already filtered) snapshot by lowercase
// category. Average is rounded half-up to cents; min/max range over the
// individual amounts. Categories are sorted by total descending, and each
// carries its most recent constituent transactions, capped.
func CategoryBreakdown(list []Transaction) []CategorySummary {
	index := make(map[string]int)
	out := make([]CategorySummary, 0)
	for _, t := range list {
		key := NormalizeCategory(t.Category)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CategorySummary{
				Category: key,
				Type:     t.Type,
				Min:      t.Amount,
				Max:      t.Amount,
			})
		}
		c := &out[i]
		c.Total.Cents += t.Amount.Cents
		c.Count++
		if t.Amount.Cents < c.Min.Cents {
			c.Min = t.Amount
		}
		if t.Amount.Cents > c.Max.Cents {
			c.Max = t.Amount
		}
		c.Transactions = append(c.Transactions, TransactionSummary{
			ID:          t.ID,
			Description: t.Description,
			Amount:      t.Amount,
			Date:        t.Date,
		})
	}
	for i := range out {
		c := &out[i]
		c.Average = Money{Cents: int64(RoundHalfUp(float64(c.Total.Cents)/float64(c.Count), 0))}
		sort.SliceStable(c.Transactions, func(a, b int) bool {
			return c.Transactions[a].Date.After(c.Transactions[b].Date.Time)
		})
		if len(c.Transactions) > drilldownLimit {
			c.Transactions = c.Transactions[:drilldownLimit]
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}
