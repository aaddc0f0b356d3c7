package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"fintrack/internal/apperr"
	"fintrack/internal/core"
)

// MemoryStore is the in-memory backend used by tests and local
// development. It implements the same interface as Repository with a
// single mutex in place of per-file locks.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions []core.Transaction
	budgets      []core.Budget
	users        []core.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Transactions(ctx context.Context) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out, nil
}

func (m *MemoryStore) ReplaceTransactions(ctx context.Context, list []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append([]core.Transaction(nil), list...)
	return nil
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.transactions {
		if existing.ID == t.ID {
			return apperr.Conflict("transaction %s already exists", t.ID)
		}
	}
	m.transactions = append(m.transactions, t)
	return nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.ID == id && owns(t.UserID, userID) {
			return t, nil
		}
	}
	return core.Transaction{}, apperr.NotFound("transaction")
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, userID, id string, apply func(*core.Transaction)) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID != id || !owns(m.transactions[i].UserID, userID) {
			continue
		}
		orig := m.transactions[i]
		apply(&m.transactions[i])
		m.transactions[i].ID = orig.ID
		m.transactions[i].UserID = orig.UserID
		m.transactions[i].CreatedAt = orig.CreatedAt
		m.transactions[i].UpdatedAt = time.Now().UTC()
		return m.transactions[i], nil
	}
	return core.Transaction{}, apperr.NotFound("transaction")
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == id && owns(m.transactions[i].UserID, userID) {
			deleted := m.transactions[i]
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return deleted, nil
		}
	}
	return core.Transaction{}, apperr.NotFound("transaction")
}

func (m *MemoryStore) Budgets(ctx context.Context) ([]core.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Budget, len(m.budgets))
	copy(out, m.budgets)
	return out, nil
}

func (m *MemoryStore) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category := core.NormalizeCategory(b.Category)
	for i := range m.budgets {
		if core.NormalizeCategory(m.budgets[i].Category) == category && owns(m.budgets[i].UserID, b.UserID) {
			m.budgets[i].Limit = b.Limit
			m.budgets[i].UpdatedAt = time.Now().UTC()
			return m.budgets[i], nil
		}
	}
	m.budgets = append(m.budgets, b)
	return b, nil
}

func (m *MemoryStore) DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		if m.budgets[i].ID == id && owns(m.budgets[i].UserID, userID) {
			deleted := m.budgets[i]
			m.budgets = append(m.budgets[:i], m.budgets[i+1:]...)
			return deleted, nil
		}
	}
	return core.Budget{}, apperr.NotFound("budget")
}

func (m *MemoryStore) UserByEmail(ctx context.Context, email string) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, apperr.NotFound("user")
}

func (m *MemoryStore) UserByID(ctx context.Context, id string) (core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, apperr.NotFound("user")
}

func (m *MemoryStore) CreateUser(ctx context.Context, u core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.Conflict("user with this email already exists")
		}
	}
	m.users = append(m.users, u)
	return nil
}
