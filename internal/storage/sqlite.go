package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/apperr"
	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the database-backed alternative to the flat-file
// store. Row-level statements replace the whole-collection writes, so
// concurrent mutations are isolated by the database instead of the
// per-file lock.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = "id, user_id, description, amount_cents, category, type, date, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                      core.Transaction
		date, created, updated string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount.Cents, &t.Category, &t.Type, &date, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+transactionColumns+" FROM transactions ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	list := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) ReplaceTransactions(ctx context.Context, list []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace transactions: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range list {
		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t core.Transaction) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, t.Description, t.Amount.Cents, t.Category, t.Type,
		t.Date.String(), t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertTransaction(ctx, tx, t); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return apperr.Conflict("transaction %s already exists", t.ID)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create transaction: %w", err)
	}
	slog.InfoContext(ctx, "transaction created", "id", t.ID, "amount_cents", t.Amount.Cents, "category", t.Category)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND (? = '' OR user_id = ?)",
		id, userID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, apperr.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, apply func(*core.Transaction)) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND (? = '' OR user_id = ?)",
		id, userID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, apperr.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction for update: %w", err)
	}

	orig := t
	apply(&t)
	t.ID = orig.ID
	t.UserID = orig.UserID
	t.CreatedAt = orig.CreatedAt
	t.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		"UPDATE transactions SET description = ?, amount_cents = ?, category = ?, type = ?, date = ?, updated_at = ? WHERE id = ?",
		t.Description, t.Amount.Cents, t.Category, t.Type, t.Date.String(), t.UpdatedAt.Format(time.RFC3339), t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND (? = '' OR user_id = ?)",
		id, userID, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, apperr.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction for delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "transaction deleted", "id", id)
	return t, nil
}

func (r *SQLiteRepository) Budgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, category, limit_cents, created_at, updated_at FROM budgets ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	list := []core.Budget{}
	for rows.Next() {
		var (
			b                core.Budget
			created, updated string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if b.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if b.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin upsert budget: %w", err)
	}
	defer tx.Rollback()

	category := core.NormalizeCategory(b.Category)
	now := time.Now().UTC()

	var existingID string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM budgets WHERE user_id = ? AND category = ?", b.UserID, category).Scan(&existingID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			"INSERT INTO budgets (id, user_id, category, limit_cents, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			b.ID, b.UserID, category, b.Limit.Cents, b.CreatedAt.Format(time.RFC3339), b.UpdatedAt.Format(time.RFC3339))
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return core.Budget{}, apperr.Conflict("budget for category %q already exists", category)
			}
			return core.Budget{}, fmt.Errorf("insert budget: %w", err)
		}
	case err != nil:
		return core.Budget{}, fmt.Errorf("find budget: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			"UPDATE budgets SET limit_cents = ?, updated_at = ? WHERE id = ?",
			b.Limit.Cents, now.Format(time.RFC3339), existingID)
		if err != nil {
			return core.Budget{}, fmt.Errorf("update budget: %w", err)
		}
		b.ID = existingID
		b.UpdatedAt = now
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit upsert budget: %w", err)
	}
	b.Category = category
	slog.InfoContext(ctx, "budget saved", "id", b.ID, "category", b.Category, "limit_cents", b.Limit.Cents)
	return b, nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin delete budget: %w", err)
	}
	defer tx.Rollback()

	var (
		b                core.Budget
		created, updated string
	)
	err = tx.QueryRowContext(ctx,
		"SELECT id, user_id, category, limit_cents, created_at, updated_at FROM budgets WHERE id = ? AND (? = '' OR user_id = ?)",
		id, userID, userID).Scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, apperr.NotFound("budget")
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("load budget for delete: %w", err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return core.Budget{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM budgets WHERE id = ?", id); err != nil {
		return core.Budget{}, fmt.Errorf("delete budget: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit delete budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return core.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return apperr.Conflict("user with this email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
