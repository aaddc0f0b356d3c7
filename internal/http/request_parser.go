package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fintrack/internal/apperr"
	"fintrack/internal/core"
)

// maxBodyBytes bounds request bodies; payloads here are small JSON
// documents, nothing close to a megabyte.
const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var appErr *apperr.ValidationError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type transactionRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
	Date        string               `json:"date"`
}

type budgetRequest struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
}

// listQuery is the parsed query surface of GET /api/transactions.
type listQuery struct {
	Filter core.Filter
	Offset int
	Limit  int
}

// pagination echoes the window applied to a list response.
type pagination struct {
	Total  int `json:"total"`
	Count  int `json:"count"`
	Offset int `json:"offset"`
	Limit  int `json:"limit,omitempty"`
}

func parseFilter(q url.Values) (core.Filter, error) {
	f := core.Filter{
		Type:     core.TransactionType(q.Get("type")),
		Category: q.Get("category"),
	}
	var err error
	if f.From, err = parseDateParam(q, "startDate"); err != nil {
		return core.Filter{}, err
	}
	if f.To, err = parseDateParam(q, "endDate"); err != nil {
		return core.Filter{}, err
	}
	return f, f.Validate()
}

func parseDateParam(q url.Values, name string) (core.Date, error) {
	raw := q.Get(name)
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, apperr.Validation("%s must be a valid YYYY-MM-DD date", name)
	}
	return d, nil
}

func parseListQuery(q url.Values) (listQuery, error) {
	filter, err := parseFilter(q)
	if err != nil {
		return listQuery{}, err
	}
	offset, err := parseIntParam(q, "offset", 0)
	if err != nil {
		return listQuery{}, err
	}
	limit, err := parseIntParam(q, "limit", -1)
	if err != nil {
		return listQuery{}, err
	}
	return listQuery{Filter: filter, Offset: offset, Limit: limit}, nil
}

func parseIntParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", name)
	}
	return n, nil
}

func parseYearParam(q url.Values) (int, error) {
	raw := q.Get("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("year must be an integer")
	}
	return year, nil
}

// filtersEcho mirrors the applied filter back in the response, using the
// same parameter names the client sent.
func filtersEcho(f core.Filter) map[string]string {
	out := make(map[string]string)
	if f.Type != "" {
		out["type"] = string(f.Type)
	}
	if f.Category != "" {
		out["category"] = core.NormalizeCategory(f.Category)
	}
	if !f.From.IsZero() {
		out["startDate"] = f.From.String()
	}
	if !f.To.IsZero() {
		out["endDate"] = f.To.String()
	}
	return out
}
