package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/trace"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr               string
	Categories         []string
	PercentDecimals    int
	RateLimitPerMinute int
}

// Server serves the REST API. Events is optional; when nil, mutations
// simply skip publishing.
type Server struct {
	http.Server

	store      backend.Store
	authSvc    *auth.Service
	events     *amqp.Client
	categories core.CategorySet
	decimals   int
	limiter    *ratelimit.Limiter
	logger     *log.Logger
	metrics    *metrics
}

func NewServer(cfg Config, store backend.Store, authSvc *auth.Service, events *amqp.Client, logger *log.Logger) *Server {
	s := &Server{
		store:      store,
		authSvc:    authSvc,
		events:     events,
		categories: core.NewCategorySet(cfg.Categories),
		decimals:   cfg.PercentDecimals,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		logger:  logger.WithComponent(log.ComponentHTTP),
		metrics: newMetrics(),
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           trace.Middleware(s.metrics.middleware(s.routes())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	authed := s.authSvc.Middleware(writeUnauthorized)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("POST /api/auth/register", s.withRateLimit(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withRateLimit(s.handleLogin))
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(s.handleProfile)))
	mux.Handle("GET /api/auth/verify", authed(http.HandlerFunc(s.handleVerify)))

	mux.Handle("GET /api/categories", authed(http.HandlerFunc(s.handleCategories)))

	mux.Handle("GET /api/transactions", authed(http.HandlerFunc(s.handleListTransactions)))
	mux.Handle("POST /api/transactions", authed(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("GET /api/transactions/{id}", authed(http.HandlerFunc(s.handleGetTransaction)))
	mux.Handle("PUT /api/transactions/{id}", authed(http.HandlerFunc(s.handleUpdateTransaction)))
	mux.Handle("DELETE /api/transactions/{id}", authed(http.HandlerFunc(s.handleDeleteTransaction)))

	mux.Handle("GET /api/budgets", authed(http.HandlerFunc(s.handleListBudgets)))
	mux.Handle("POST /api/budgets", authed(http.HandlerFunc(s.handleUpsertBudget)))
	mux.Handle("DELETE /api/budgets/{id}", authed(http.HandlerFunc(s.handleDeleteBudget)))

	mux.Handle("GET /api/summary", authed(http.HandlerFunc(s.handleSummary)))
	mux.Handle("GET /api/summary/monthly", authed(http.HandlerFunc(s.handleMonthlySummary)))
	mux.Handle("GET /api/summary/categories", authed(http.HandlerFunc(s.handleCategorySummary)))

	return mux
}

func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(trace.ClientIP(r)) {
			s.logger.WarnContext(r.Context(), "rate limit exceeded", "client_ip", trace.ClientIP(r))
			ErrorResponse(http.StatusTooManyRequests, "too many requests, slow down").Write(w)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewResponse().Data(s.categories.Names()).Write(w)
}

// publishChange emits a change event after a successful mutation. Bus
// failures are logged, never surfaced to the client.
func (s *Server) publishChange(ctx context.Context, collection, action, entityID, userID string) {
	if s.events == nil {
		return
	}
	event := amqp.NewChangeEvent(collection, action, entityID, userID)
	if err := s.events.PublishChange(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish change event",
			"collection", collection,
			"action", action,
			"entity_id", entityID,
			log.FieldError, err)
	}
}

// Shutdown stops the listener and the rate limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Shutdown()
	return s.Server.Shutdown(ctx)
}
