package core

import (
	"sort"

	"fintrack/internal/apperr"
)

// Filter selects transactions by type, category and an inclusive date
// range. Zero values mean "no filtering" on that dimension; an empty
// Filter applied to a list returns it unchanged, contents and order.
type Filter struct {
	Type     TransactionType
	Category string
	From     Date
	To       Date
}

func (f Filter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return apperr.Validation("type must be either %q or %q", Income, Expense)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To.Time) {
		return apperr.Validation("startDate must be before endDate")
	}
	return nil
}

// Apply returns the transactions matching the filter, preserving input
// order. Category matching is case-insensitive and trimmed; both date
// bounds are inclusive.
func (f Filter) Apply(list []Transaction) ([]Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	category := NormalizeCategory(f.Category)
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if category != "" && NormalizeCategory(t.Category) != category {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && t.Date.After(f.To.Time) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// OwnedBy keeps only the transactions belonging to userID. An empty
// userID (single-user mode) keeps everything.
func OwnedBy(list []Transaction, userID string) []Transaction {
	if userID == "" {
		return list
	}
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// SortByDateDesc orders most recent first. Equal dates keep their
// insertion order; no secondary key is applied.
func SortByDateDesc(list []Transaction) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.After(list[j].Date.Time)
	})
}

// Paginate slices after filtering and sorting. limit < 0 means "all
// remaining"; supplied values must be non-negative.
func Paginate(list []Transaction, offset, limit int) ([]Transaction, error) {
	if offset < 0 {
		return nil, apperr.Validation("offset must be a non-negative integer")
	}
	if offset >= len(list) {
		return []Transaction{}, nil
	}
	rest := list[offset:]
	if limit < 0 || limit > len(rest) {
		return rest, nil
	}
	return rest[:limit], nil
}
