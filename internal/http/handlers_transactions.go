package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	all, err := s.store.Transactions(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	matched, err := query.Filter.Apply(core.OwnedBy(all, userID))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	core.SortByDateDesc(matched)

	page, err := core.Paginate(matched, query.Offset, query.Limit)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	window := pagination{
		Total:  len(matched),
		Count:  len(page),
		Offset: query.Offset,
	}
	if query.Limit >= 0 {
		window.Limit = query.Limit
	}

	resp := NewResponse().
		Data(page).
		Field("pagination", window)
	if filters := filtersEcho(query.Filter); len(filters) > 0 {
		resp.Field("filters", filters)
	}
	resp.Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	t, err := s.store.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	NewResponse().Data(t).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	date := core.Today()
	if req.Date != "" {
		parsed, err := core.ParseDate(req.Date)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		date = parsed
	}

	now := time.Now().UTC()
	t := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: core.NormalizeDescription(req.Description),
		Amount:      req.Amount,
		Category:    core.NormalizeCategory(req.Category),
		Type:        req.Type,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(s.categories); err != nil {
		WriteError(w, r, err)
		return
	}

	if err := s.store.CreateTransaction(r.Context(), t); err != nil {
		WriteError(w, r, err)
		return
	}
	s.publishChange(r.Context(), amqp.CollectionTransactions, amqp.ActionCreated, t.ID, userID)

	NewResponse().
		Status(http.StatusCreated).
		Message("transaction created successfully").
		Data(t).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	id := r.PathValue("id")

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	// An omitted date keeps the stored one; everything else is required.
	var date core.Date
	if req.Date != "" {
		parsed, err := core.ParseDate(req.Date)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		date = parsed
	}

	candidate := core.Transaction{
		Description: core.NormalizeDescription(req.Description),
		Amount:      req.Amount,
		Category:    core.NormalizeCategory(req.Category),
		Type:        req.Type,
		Date:        date,
	}
	if candidate.Date.IsZero() {
		candidate.Date = core.Today()
	}
	if err := candidate.Validate(s.categories); err != nil {
		WriteError(w, r, err)
		return
	}

	updated, err := s.store.UpdateTransaction(r.Context(), userID, id, func(t *core.Transaction) {
		t.Description = core.NormalizeDescription(req.Description)
		t.Amount = req.Amount
		t.Category = core.NormalizeCategory(req.Category)
		t.Type = req.Type
		if !date.IsZero() {
			t.Date = date
		}
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.publishChange(r.Context(), amqp.CollectionTransactions, amqp.ActionUpdated, updated.ID, userID)

	NewResponse().
		Message("transaction updated successfully").
		Data(updated).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	deleted, err := s.store.DeleteTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	s.publishChange(r.Context(), amqp.CollectionTransactions, amqp.ActionDeleted, deleted.ID, userID)

	NewResponse().
		Message("transaction deleted successfully").
		Data(deleted).
		Write(w)
}
