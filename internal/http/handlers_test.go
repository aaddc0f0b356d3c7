package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	return newTestServerWithRateLimit(t, 1000)
}

func newTestServerWithRateLimit(t *testing.T, perMinute int) *Server {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := log.New(log.DefaultConfig())
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	svc := auth.NewService(store, jwt, logger)

	s := NewServer(Config{
		Addr:               ":0",
		Categories:         core.DefaultCategories(),
		PercentDecimals:    2,
		RateLimitPerMinute: perMinute,
	}, store, svc, nil, logger)
	t.Cleanup(s.limiter.Shutdown)
	return s
}

type envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       json.RawMessage   `json:"data"`
	Pagination *pagination       `json:"pagination"`
	Filters    map[string]string `json:"filters"`
}

func doRequest(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not the JSON envelope: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, env
}

func registerUser(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec, env := doRequest(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.Token
}

func createTransaction(t *testing.T, s *Server, token string, body map[string]any) core.Transaction {
	t.Helper()
	rec, env := doRequest(t, s, http.MethodPost, "/api/transactions", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var tr core.Transaction
	if err := json.Unmarshal(env.Data, &tr); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	rec, _ := doRequest(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Imposter", "email": "ada@example.com", "password": "longenough",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec, env := doRequest(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "longenough",
	})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("login status = %d", rec.Code)
	}

	rec, env = doRequest(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized || env.Success {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec, env = doRequest(t, s, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var profile struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Email != "ada@example.com" {
		t.Errorf("profile email = %s", profile.Email)
	}
	if profile.Password != "" {
		t.Error("password hash leaked in profile response")
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token status = %d, want 401", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/auth/verify", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("verify status = %d", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	created := createTransaction(t, s, token, map[string]any{
		"description": "  Grocery   run ",
		"amount":      50.5,
		"category":    "Food",
		"type":        "expense",
		"date":        "2026-06-01",
	})
	if created.ID == "" {
		t.Fatal("no ID assigned")
	}
	if created.Description != "Grocery run" {
		t.Errorf("description = %q, want normalized", created.Description)
	}
	if created.Amount.Cents != 5050 {
		t.Errorf("amount = %d cents, want 5050", created.Amount.Cents)
	}
	if created.Category != "food" {
		t.Errorf("category = %q, want lowercased", created.Category)
	}

	rec, env := doRequest(t, s, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec, env = doRequest(t, s, http.MethodPut, "/api/transactions/"+created.ID, token, map[string]any{
		"description": "Monthly groceries",
		"amount":      120,
		"category":    "food",
		"type":        "expense",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated core.Transaction
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Amount.Cents != 12000 || updated.Description != "Monthly groceries" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Date.String() != "2026-06-01" {
		t.Errorf("omitted date must keep stored value, got %s", updated.Date)
	}

	rec, _ = doRequest(t, s, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestTransactionValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "short description", body: map[string]any{"description": "ab", "amount": 10, "category": "food", "type": "expense"}},
		{name: "zero amount", body: map[string]any{"description": "Valid desc", "amount": 0, "category": "food", "type": "expense"}},
		{name: "three decimals", body: map[string]any{"description": "Valid desc", "amount": 10.555, "category": "food", "type": "expense"}},
		{name: "unknown category", body: map[string]any{"description": "Valid desc", "amount": 10, "category": "gambling", "type": "expense"}},
		{name: "bad type", body: map[string]any{"description": "Valid desc", "amount": 10, "category": "food", "type": "transfer"}},
		{name: "bad date", body: map[string]any{"description": "Valid desc", "amount": 10, "category": "food", "type": "expense", "date": "June 1st"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doRequest(t, s, http.MethodPost, "/api/transactions", token, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if env.Success {
				t.Error("success = true on a rejected request")
			}
		})
	}
}

func TestTransactionListFiltersAndPagination(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")
	other := registerUser(t, s, "bob@example.com")

	seed := []map[string]any{
		{"description": "Groceries one", "amount": 10, "category": "food", "type": "expense", "date": "2026-01-10"},
		{"description": "Salary payment", "amount": 3000, "category": "salary", "type": "income", "date": "2026-01-31"},
		{"description": "Bus ticket", "amount": 2.5, "category": "transport", "type": "expense", "date": "2026-02-05"},
		{"description": "Groceries two", "amount": 15, "category": "food", "type": "expense", "date": "2026-02-20"},
	}
	for _, body := range seed {
		createTransaction(t, s, token, body)
	}
	createTransaction(t, s, other, map[string]any{
		"description": "Not yours", "amount": 99, "category": "other", "type": "expense", "date": "2026-02-01",
	})

	rec, env := doRequest(t, s, http.MethodGet, "/api/transactions", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []core.Transaction
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 4 {
		t.Fatalf("len = %d, want 4 (ownership isolation)", len(list))
	}
	// Date descending.
	if list[0].Description != "Groceries two" || list[3].Description != "Groceries one" {
		t.Errorf("order = %s .. %s", list[0].Description, list[3].Description)
	}

	rec, env = doRequest(t, s, http.MethodGet, "/api/transactions?type=expense&category=FOOD", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("filtered len = %d, want 2", len(list))
	}
	if env.Filters["category"] != "food" || env.Filters["type"] != "expense" {
		t.Errorf("filters echo = %v", env.Filters)
	}

	rec, env = doRequest(t, s, http.MethodGet, "/api/transactions?offset=1&limit=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("page len = %d, want 2", len(list))
	}
	if env.Pagination == nil || env.Pagination.Total != 4 || env.Pagination.Count != 2 || env.Pagination.Offset != 1 {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/transactions?offset=-1", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative offset status = %d, want 400", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/transactions?startDate=2026-03-01&endDate=2026-01-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	rec, env := doRequest(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category": "Food", "limit": 500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var b core.Budget
	if err := json.Unmarshal(env.Data, &b); err != nil {
		t.Fatal(err)
	}
	if b.Category != "food" || b.Limit.Cents != 50000 {
		t.Errorf("budget = %+v", b)
	}

	// Re-posting the category updates in place.
	rec, env = doRequest(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category": "food", "limit": 600,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, want 200", rec.Code)
	}
	var second core.Budget
	if err := json.Unmarshal(env.Data, &second); err != nil {
		t.Fatal(err)
	}
	if second.ID != b.ID || second.Limit.Cents != 60000 {
		t.Errorf("upsert = %+v, want same ID with new limit", second)
	}

	rec, env = doRequest(t, s, http.MethodGet, "/api/budgets", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	var budgets []core.Budget
	if err := json.Unmarshal(env.Data, &budgets); err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 {
		t.Errorf("len = %d, want 1", len(budgets))
	}

	rec, _ = doRequest(t, s, http.MethodPost, "/api/budgets", token, map[string]any{
		"category": "gambling", "limit": 100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want 400", rec.Code)
	}

	rec, _ = doRequest(t, s, http.MethodDelete, "/api/budgets/"+b.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doRequest(t, s, http.MethodDelete, "/api/budgets/"+b.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	createTransaction(t, s, token, map[string]any{
		"description": "Salary payment", "amount": 3000, "category": "salary", "type": "income", "date": "2026-06-01",
	})
	createTransaction(t, s, token, map[string]any{
		"description": "Groceries", "amount": 50, "category": "food", "type": "expense", "date": "2026-06-10",
	})
	createTransaction(t, s, token, map[string]any{
		"description": "Bus pass", "amount": 30, "category": "transport", "type": "expense", "date": "2026-06-15",
	})
	doRequest(t, s, http.MethodPost, "/api/budgets", token, map[string]any{"category": "food", "limit": 60})

	rec, env := doRequest(t, s, http.MethodGet, "/api/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rec.Code, rec.Body.String())
	}

	var data struct {
		TotalIncome        float64             `json:"totalIncome"`
		TotalExpenses      float64             `json:"totalExpenses"`
		Balance            float64             `json:"balance"`
		TransactionCount   int                 `json:"transactionCount"`
		SpendingByCategory map[string]float64  `json:"spendingByCategory"`
		IncomeByCategory   map[string]float64  `json:"incomeByCategory"`
		BudgetStatus       []core.BudgetStatus `json:"budgetStatus"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}

	if data.TotalIncome != 3000 || data.TotalExpenses != 80 || data.Balance != 2920 {
		t.Errorf("totals = %+v", data)
	}
	if data.TransactionCount != 3 {
		t.Errorf("count = %d", data.TransactionCount)
	}
	if data.SpendingByCategory["food"] != 50 || data.SpendingByCategory["transport"] != 30 {
		t.Errorf("spending = %v", data.SpendingByCategory)
	}
	if data.IncomeByCategory["salary"] != 3000 {
		t.Errorf("income = %v", data.IncomeByCategory)
	}

	if len(data.BudgetStatus) != 1 {
		t.Fatalf("budget status len = %d", len(data.BudgetStatus))
	}
	food := data.BudgetStatus[0]
	if food.Percentage != 83.33 || food.Status != core.StatusWarning {
		t.Errorf("food budget = %+v, want 83.33 warning", food)
	}
	if food.Remaining.Cents != 1000 {
		t.Errorf("remaining = %d cents, want 1000", food.Remaining.Cents)
	}

	// A window that excludes everything zeroes the summary.
	rec, env = doRequest(t, s, http.MethodGet, "/api/summary?startDate=2027-01-01", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.TotalIncome != 0 || data.TransactionCount != 0 {
		t.Errorf("windowed totals = %+v, want zeros", data)
	}
	if data.BudgetStatus[0].Spent.Cents != 0 {
		t.Errorf("windowed budget spent = %d, want 0", data.BudgetStatus[0].Spent.Cents)
	}
}

func TestMonthlySummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	createTransaction(t, s, token, map[string]any{
		"description": "Salary payment", "amount": 3000, "category": "salary", "type": "income", "date": "2026-01-31",
	})

	rec, env := doRequest(t, s, http.MethodGet, "/api/summary/monthly?year=2026", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var summary core.YearSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Year != 2026 || len(summary.Months) != 12 {
		t.Errorf("summary = year %d, %d months", summary.Year, len(summary.Months))
	}
	if summary.Months[0].Income.Cents != 300000 {
		t.Errorf("january = %+v", summary.Months[0])
	}

	rec, _ = doRequest(t, s, http.MethodGet, "/api/summary/monthly?year=1999", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range year status = %d, want 400", rec.Code)
	}
	rec, _ = doRequest(t, s, http.MethodGet, "/api/summary/monthly?year=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-integer year status = %d, want 400", rec.Code)
	}
}

func TestCategorySummaryEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	createTransaction(t, s, token, map[string]any{
		"description": "Groceries one", "amount": 10, "category": "food", "type": "expense", "date": "2026-01-10",
	})
	createTransaction(t, s, token, map[string]any{
		"description": "Groceries two", "amount": 20, "category": "food", "type": "expense", "date": "2026-01-20",
	})
	createTransaction(t, s, token, map[string]any{
		"description": "Taxi ride", "amount": 40, "category": "transport", "type": "expense", "date": "2026-01-15",
	})

	rec, env := doRequest(t, s, http.MethodGet, "/api/summary/categories?type=expense", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data struct {
		Categories        []core.CategorySummary `json:"categories"`
		TotalAmount       float64                `json:"totalAmount"`
		TotalTransactions int                    `json:"totalTransactions"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(data.Categories))
	}
	if data.Categories[0].Category != "transport" {
		t.Errorf("order head = %s, want transport (largest total)", data.Categories[0].Category)
	}
	food := data.Categories[1]
	if food.Count != 2 || food.Total.Cents != 3000 || food.Min.Cents != 1000 || food.Max.Cents != 2000 {
		t.Errorf("food = %+v", food)
	}
	if data.TotalAmount != 70 || data.TotalTransactions != 3 {
		t.Errorf("totals = %v / %d", data.TotalAmount, data.TotalTransactions)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	rec, env := doRequest(t, s, http.MethodGet, "/api/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var names []string
	if err := json.Unmarshal(env.Data, &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 11 {
		t.Errorf("len = %d, want 11", len(names))
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec, env := doRequest(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestRateLimitOnAuthEndpoints(t *testing.T) {
	s := newTestServerWithRateLimit(t, 2)

	body := map[string]string{"email": "ada@example.com", "password": "whatever"}
	var last int
	for i := 0; i < 3; i++ {
		rec, _ := doRequest(t, s, http.MethodPost, "/api/auth/login", "", body)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third attempt status = %d, want 429", last)
	}
}

func TestUnknownTransactionIs404(t *testing.T) {
	s := newTestServer(t)
	token := registerUser(t, s, "ada@example.com")

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/transactions/ghost"},
		{http.MethodDelete, "/api/transactions/ghost"},
	} {
		rec, env := doRequest(t, s, req.method, req.path, token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want 404", req.method, req.path, rec.Code)
		}
		if env.Message != "transaction not found" {
			t.Errorf("message = %q", env.Message)
		}
	}

	rec, _ := doRequest(t, s, http.MethodPut, "/api/transactions/ghost", token, map[string]any{
		"description": "Valid description", "amount": 10, "category": "food", "type": "expense",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update ghost status = %d, want 404", rec.Code)
	}
}
