package core

import (
	"testing"

	"fintrack/internal/apperr"
)

func sampleTransactions() []Transaction {
	return []Transaction{
		{ID: "t1", Type: Expense, Category: "food", Amount: Money{Cents: 1000}, Date: NewDate(2026, 1, 10)},
		{ID: "t2", Type: Income, Category: "salary", Amount: Money{Cents: 300000}, Date: NewDate(2026, 1, 31)},
		{ID: "t3", Type: Expense, Category: "transport", Amount: Money{Cents: 2500}, Date: NewDate(2026, 2, 5)},
		{ID: "t4", Type: Expense, Category: "Food", Amount: Money{Cents: 1500}, Date: NewDate(2026, 2, 20)},
	}
}

func ids(list []Transaction) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterApply(t *testing.T) {
	list := sampleTransactions()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "empty filter keeps all in order", filter: Filter{}, want: []string{"t1", "t2", "t3", "t4"}},
		{name: "by type", filter: Filter{Type: Expense}, want: []string{"t1", "t3", "t4"}},
		{name: "by category case-insensitive", filter: Filter{Category: "FOOD"}, want: []string{"t1", "t4"}},
		{name: "from inclusive", filter: Filter{From: NewDate(2026, 1, 31)}, want: []string{"t2", "t3", "t4"}},
		{name: "to inclusive", filter: Filter{To: NewDate(2026, 1, 31)}, want: []string{"t1", "t2"}},
		{name: "range", filter: Filter{From: NewDate(2026, 1, 15), To: NewDate(2026, 2, 10)}, want: []string{"t2", "t3"}},
		{name: "combined", filter: Filter{Type: Expense, Category: "food", To: NewDate(2026, 1, 31)}, want: []string{"t1"}},
		{name: "no match", filter: Filter{Category: "utilities"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Apply(list)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(ids(got), tt.want...) {
				t.Errorf("Apply() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	bad := Filter{From: NewDate(2026, 3, 1), To: NewDate(2026, 2, 1)}
	if err := bad.Validate(); !apperr.IsValidation(err) {
		t.Errorf("inverted range error = %v, want validation error", err)
	}

	badType := Filter{Type: "transfer"}
	if err := badType.Validate(); !apperr.IsValidation(err) {
		t.Errorf("bad type error = %v, want validation error", err)
	}

	sameDay := Filter{From: NewDate(2026, 3, 1), To: NewDate(2026, 3, 1)}
	if err := sameDay.Validate(); err != nil {
		t.Errorf("equal bounds should be valid, got %v", err)
	}
}

func TestOwnedBy(t *testing.T) {
	list := []Transaction{
		{ID: "a", UserID: "u1"},
		{ID: "b", UserID: "u2"},
		{ID: "c", UserID: "u1"},
	}

	if got := OwnedBy(list, "u1"); !equalIDs(ids(got), "a", "c") {
		t.Errorf("OwnedBy u1 = %v", ids(got))
	}
	if got := OwnedBy(list, ""); len(got) != 3 {
		t.Errorf("empty userID should keep all, got %d", len(got))
	}
	if got := OwnedBy(list, "u3"); len(got) != 0 {
		t.Errorf("unknown user should match nothing, got %d", len(got))
	}
}

func TestSortByDateDesc(t *testing.T) {
	list := sampleTransactions()
	SortByDateDesc(list)
	if !equalIDs(ids(list), "t4", "t3", "t2", "t1") {
		t.Errorf("sorted order = %v", ids(list))
	}

	// Equal dates keep insertion order.
	same := []Transaction{
		{ID: "x", Date: NewDate(2026, 5, 1)},
		{ID: "y", Date: NewDate(2026, 5, 1)},
	}
	SortByDateDesc(same)
	if !equalIDs(ids(same), "x", "y") {
		t.Errorf("stable order violated: %v", ids(same))
	}
}

func TestPaginate(t *testing.T) {
	list := sampleTransactions()

	tests := []struct {
		name    string
		offset  int
		limit   int
		want    []string
		wantErr bool
	}{
		{name: "all", offset: 0, limit: -1, want: []string{"t1", "t2", "t3", "t4"}},
		{name: "window", offset: 1, limit: 2, want: []string{"t2", "t3"}},
		{name: "limit past end", offset: 3, limit: 10, want: []string{"t4"}},
		{name: "offset past end", offset: 10, limit: 2, want: []string{}},
		{name: "zero limit", offset: 0, limit: 0, want: []string{}},
		{name: "negative offset", offset: -1, limit: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paginate(list, tt.offset, tt.limit)
			if tt.wantErr {
				if !apperr.IsValidation(err) {
					t.Fatalf("error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalIDs(ids(got), tt.want...) {
				t.Errorf("Paginate(%d, %d) = %v, want %v", tt.offset, tt.limit, ids(got), tt.want)
			}
		})
	}
}
