package core

import (
	"sort"
	"strings"
	"time"

	"fintrack/internal/apperr"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	// MinDescriptionLen and MaxDescriptionLen bound the description after
	// trimming and whitespace collapse.
	MinDescriptionLen = 3
	MaxDescriptionLen = 200

	// MinYear and MaxYear bound the years accepted by the monthly breakdown.
	MinYear = 2000
	MaxYear = 2100
)

type (
	TransactionType string

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId,omitempty"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	Budget struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId,omitempty"`
		Category  string    `json:"category"`
		Limit     Money     `json:"limit"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"password"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

// DefaultCategories is the canonical closed category set. Deployments can
// swap it for their own list via the CATEGORIES config key.
func DefaultCategories() []string {
	return []string{
		"food",
		"transport",
		"entertainment",
		"utilities",
		"healthcare",
		"shopping",
		"education",
		"salary",
		"freelance",
		"investment",
		"other",
	}
}

// CategorySet is the active category allow-list, keyed by lowercase name.
type CategorySet map[string]struct{}

func NewCategorySet(names []string) CategorySet {
	set := make(CategorySet, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s CategorySet) Contains(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Names returns the set's members sorted for stable presentation.
func (s CategorySet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NormalizeDescription trims the input and collapses internal whitespace
// runs to single spaces.
func NormalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeCategory lowercases and trims a category name for matching.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Validate checks the field constraints the storage layer relies on. The
// HTTP layer validates too, but this is the trust boundary for anything
// that ends up in a collection file.
func (t Transaction) Validate(categories CategorySet) error {
	desc := NormalizeDescription(t.Description)
	if len(desc) < MinDescriptionLen {
		return apperr.Validation("description must be at least %d characters", MinDescriptionLen)
	}
	if len(desc) > MaxDescriptionLen {
		return apperr.Validation("description must not exceed %d characters", MaxDescriptionLen)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !categories.Contains(t.Category) {
		return apperr.Validation("category %q is not in the allowed set", t.Category)
	}
	if !t.Type.Valid() {
		return apperr.Validation("type must be either %q or %q", Income, Expense)
	}
	if t.Date.IsZero() {
		return apperr.Validation("date is required")
	}
	return nil
}

func (b Budget) Validate(categories CategorySet) error {
	if !categories.Contains(b.Category) {
		return apperr.Validation("category %q is not in the allowed set", b.Category)
	}
	return b.Limit.Validate()
}
