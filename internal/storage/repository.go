package storage

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/apperr"
	"fintrack/internal/core"
)

// Collection file names under the data directory.
const (
	TransactionsFile = "transactions.json"
	BudgetsFile      = "budgets.json"
	UsersFile        = "users.json"
)

// Repository is the flat-file store: three typed collections over one
// FileStore. Entity mutations run as single critical sections via
// Collection.Update; the snapshot accessors exist for the aggregation
// engine, which only ever reads.
type Repository struct {
	transactions *Collection[core.Transaction]
	budgets      *Collection[core.Budget]
	users        *Collection[core.User]
}

func NewRepository(store *FileStore) *Repository {
	return &Repository{
		transactions: NewCollection[core.Transaction](store, TransactionsFile),
		budgets:      NewCollection[core.Budget](store, BudgetsFile),
		users:        NewCollection[core.User](store, UsersFile),
	}
}

func (r *Repository) Close() error { return nil }

// owns reports whether the record's owner matches. Empty userID is
// single-user mode and matches everything.
func owns(recordUserID, userID string) bool {
	return userID == "" || recordUserID == userID
}

func (r *Repository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return r.transactions.All(ctx)
}

func (r *Repository) ReplaceTransactions(ctx context.Context, list []core.Transaction) error {
	return r.transactions.Replace(ctx, list)
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	err := r.transactions.Update(ctx, func(list []core.Transaction) ([]core.Transaction, error) {
		for _, existing := range list {
			if existing.ID == t.ID {
				return nil, apperr.Conflict("transaction %s already exists", t.ID)
			}
		}
		return append(list, t), nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "transaction created", "id", t.ID, "amount_cents", t.Amount.Cents, "category", t.Category)
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	list, err := r.transactions.All(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range list {
		if t.ID == id && owns(t.UserID, userID) {
			return t, nil
		}
	}
	return core.Transaction{}, apperr.NotFound("transaction")
}

// UpdateTransaction applies the mutator to the matching record in place.
// ID, owner and creation time are preserved; UpdatedAt is refreshed.
func (r *Repository) UpdateTransaction(ctx context.Context, userID, id string, apply func(*core.Transaction)) (core.Transaction, error) {
	var updated core.Transaction
	err := r.transactions.Update(ctx, func(list []core.Transaction) ([]core.Transaction, error) {
		for i := range list {
			if list[i].ID != id || !owns(list[i].UserID, userID) {
				continue
			}
			orig := list[i]
			apply(&list[i])
			list[i].ID = orig.ID
			list[i].UserID = orig.UserID
			list[i].CreatedAt = orig.CreatedAt
			list[i].UpdatedAt = time.Now().UTC()
			updated = list[i]
			return list, nil
		}
		return nil, apperr.NotFound("transaction")
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var deleted core.Transaction
	err := r.transactions.Update(ctx, func(list []core.Transaction) ([]core.Transaction, error) {
		for i := range list {
			if list[i].ID == id && owns(list[i].UserID, userID) {
				deleted = list[i]
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, apperr.NotFound("transaction")
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "transaction deleted", "id", id)
	return deleted, nil
}

func (r *Repository) Budgets(ctx context.Context) ([]core.Budget, error) {
	return r.budgets.All(ctx)
}

// UpsertBudget creates the budget or, when one already exists for the
// same owner and category, updates its limit. The one-budget-per-category
// invariant is enforced inside the critical section.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var stored core.Budget
	err := r.budgets.Update(ctx, func(list []core.Budget) ([]core.Budget, error) {
		category := core.NormalizeCategory(b.Category)
		for i := range list {
			if core.NormalizeCategory(list[i].Category) != category || !owns(list[i].UserID, b.UserID) {
				continue
			}
			list[i].Limit = b.Limit
			list[i].UpdatedAt = time.Now().UTC()
			stored = list[i]
			return list, nil
		}
		stored = b
		return append(list, b), nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "budget saved", "id", stored.ID, "category", stored.Category, "limit_cents", stored.Limit.Cents)
	return stored, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	var deleted core.Budget
	err := r.budgets.Update(ctx, func(list []core.Budget) ([]core.Budget, error) {
		for i := range list {
			if list[i].ID == id && owns(list[i].UserID, userID) {
				deleted = list[i]
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, apperr.NotFound("budget")
	})
	if err != nil {
		return core.Budget{}, err
	}
	return deleted, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	list, err := r.users.All(ctx)
	if err != nil {
		return core.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range list {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, apperr.NotFound("user")
}

func (r *Repository) UserByID(ctx context.Context, id string) (core.User, error) {
	list, err := r.users.All(ctx)
	if err != nil {
		return core.User{}, err
	}
	for _, u := range list {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, apperr.NotFound("user")
}

// CreateUser rejects duplicate emails; the check runs inside the critical
// section so two concurrent registrations cannot both succeed.
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	return r.users.Update(ctx, func(list []core.User) ([]core.User, error) {
		for _, existing := range list {
			if existing.Email == u.Email {
				return nil, apperr.Conflict("user with this email already exists")
			}
		}
		return append(list, u), nil
	})
}
