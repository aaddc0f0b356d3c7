package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// handleSummary is the main dashboard aggregation: totals, per-category
// breakdowns and budget utilization over an optional date range. Budgets
// are always evaluated against the same filtered window as the totals.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	// The summary window filters by date only.
	filter.Type = ""
	filter.Category = ""

	all, err := s.store.Transactions(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	matched, err := filter.Apply(core.OwnedBy(all, userID))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	budgets, err := s.store.Budgets(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	totals := core.ComputeTotals(matched)
	spending := core.ByCategory(matched, core.Expense)

	data := map[string]any{
		"totalIncome":        totals.TotalIncome,
		"totalExpenses":      totals.TotalExpenses,
		"balance":            totals.Balance,
		"transactionCount":   len(matched),
		"spendingByCategory": spending,
		"incomeByCategory":   core.ByCategory(matched, core.Income),
		"budgetStatus":       core.BudgetStatuses(ownedBudgets(budgets, userID), spending, s.decimals),
	}
	if echo := filtersEcho(filter); len(echo) > 0 {
		data["dateRange"] = echo
	}

	NewResponse().Data(data).Write(w)
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	year, err := parseYearParam(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	all, err := s.store.Transactions(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	summary, err := core.MonthlyBreakdown(core.OwnedBy(all, userID), year)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().Data(summary).Write(w)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	all, err := s.store.Transactions(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	matched, err := filter.Apply(core.OwnedBy(all, userID))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	categories := core.CategoryBreakdown(matched)
	var totalCents int64
	for _, c := range categories {
		totalCents += c.Total.Cents
	}

	data := map[string]any{
		"categories":        categories,
		"totalAmount":       core.Money{Cents: totalCents},
		"totalTransactions": len(matched),
	}
	if echo := filtersEcho(filter); len(echo) > 0 {
		data["filters"] = echo
	}

	NewResponse().Data(data).Write(w)
}
