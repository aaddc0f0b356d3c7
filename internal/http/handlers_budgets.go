package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func ownedBudgets(list []core.Budget, userID string) []core.Budget {
	if userID == "" {
		return list
	}
	out := make([]core.Budget, 0, len(list))
	for _, b := range list {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	all, err := s.store.Budgets(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().Data(ownedBudgets(all, userID)).Write(w)
}

// handleUpsertBudget creates or replaces the budget for a category. One
// budget per category per user; a repeated POST updates the limit in
// place, keeping the original ID.
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req budgetRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	now := time.Now().UTC()
	b := core.Budget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Category:  core.NormalizeCategory(req.Category),
		Limit:     req.Limit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.Validate(s.categories); err != nil {
		WriteError(w, r, err)
		return
	}

	stored, err := s.store.UpsertBudget(r.Context(), b)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	action := amqp.ActionCreated
	status := http.StatusCreated
	message := "budget created successfully"
	if stored.ID != b.ID {
		action = amqp.ActionUpdated
		status = http.StatusOK
		message = "budget updated successfully"
	}
	s.publishChange(r.Context(), amqp.CollectionBudgets, action, stored.ID, userID)

	NewResponse().
		Status(status).
		Message(message).
		Data(stored).
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	deleted, err := s.store.DeleteBudget(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.publishChange(r.Context(), amqp.CollectionBudgets, amqp.ActionDeleted, deleted.ID, userID)

	NewResponse().
		Message("budget deleted successfully").
		Data(deleted).
		Write(w)
}
