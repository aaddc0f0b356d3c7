// Package backend selects and constructs the storage backend. The json
// backend (flat collection files) is the primary one; sqlite trades the
// flat-file model for real row-level concurrency control, and memory
// serves tests and local development.
package backend

import (
	"context"

	"fintrack/internal/core"
)

// Store is the persistence contract the HTTP layer and auth service are
// written against. Snapshot accessors feed the aggregation engine;
// entity operations run atomically inside each backend.
type Store interface {
	Transactions(ctx context.Context) ([]core.Transaction, error)
	ReplaceTransactions(ctx context.Context, list []core.Transaction) error
	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id string, apply func(*core.Transaction)) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error)

	Budgets(ctx context.Context) ([]core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error)

	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id string) (core.User, error)
	CreateUser(ctx context.Context, u core.User) error

	Close() error
}

// Type identifies a backend implementation.
type Type string

const (
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types, for config error messages.
func Types() []Type {
	return []Type{JSONBackend, SQLiteBackend, MemoryBackend}
}
