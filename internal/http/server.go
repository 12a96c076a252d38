// Package http exposes the import and insight services as a JSON API.
package http

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"spaar/internal/core"
	"spaar/internal/csvimport"
	"spaar/internal/log"
	"spaar/internal/services"
)

// ImportAPI is implemented by *services.ImportService.
type ImportAPI interface {
	Import(ctx context.Context, source string, r io.Reader) (*services.ImportOutcome, error)
	Preview(content string, limit int) *csvimport.Result
	Validate(content string) bool
}

// InsightAPI is implemented by *services.InsightService.
type InsightAPI interface {
	Refresh(ctx context.Context) ([]core.FinancialInsight, error)
	Insights(ctx context.Context) ([]core.FinancialInsight, error)
	Analyze(ctx context.Context, days int) (core.SpendingAnalysis, error)
	AssignCategory(ctx context.Context, txID string, categoryID *string) error
	Invalidate()
}

// CategoryAPI is implemented by *services.CategoryService.
type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	Create(ctx context.Context, c core.Category) (core.Category, error)
	Delete(ctx context.Context, id string) error
}

// BudgetAPI is implemented by *services.BudgetService.
type BudgetAPI interface {
	List(ctx context.Context) ([]services.BudgetView, error)
	Create(ctx context.Context, b core.Budget) (services.BudgetView, error)
	Update(ctx context.Context, id string, b core.Budget) (services.BudgetView, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (services.BudgetSummary, error)
}

// Deps are the collaborators of the API.
type Deps struct {
	Imports    ImportAPI
	Insights   InsightAPI
	Categories CategoryAPI
	Budgets    BudgetAPI
	Logger     *log.Logger

	// UploadsPerMinute limits import requests per client. Zero means 30.
	UploadsPerMinute int
}

type Server struct {
	http.Server
	imports     ImportAPI
	insights    InsightAPI
	categories  CategoryAPI
	budgets     BudgetAPI
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limit := deps.UploadsPerMinute
	if limit <= 0 {
		limit = 30
	}

	s := &Server{
		imports:     deps.Imports,
		insights:    deps.Insights,
		categories:  deps.Categories,
		budgets:     deps.Budgets,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(limit, time.Minute),
		metrics:     &securityMetrics{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/imports", s.limited(s.handleImport))
	mux.HandleFunc("POST /api/imports/preview", s.limited(s.handlePreview))
	mux.HandleFunc("POST /api/imports/validate", s.limited(s.handleValidate))

	mux.HandleFunc("GET /api/insights", s.handleInsights)
	mux.HandleFunc("POST /api/insights/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/summary", s.handleBudgetSummary)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("PUT /api/transactions/{id}/category", s.handleAssignCategory)

	var handler http.Handler = mux
	handler = s.withSecurityHeaders(handler)
	handler = log.AccessMiddleware()(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withSecurityHeaders sets defensive headers and counts suspicious requests.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := detectSuspiciousRequest(r, s.metrics); reason != "" {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, extractClientIP(r),
				log.FieldPath, r.URL.Path,
				"reason", reason)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// limited applies the per-client upload rate limit.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP, s.metrics) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			ErrorResponse(r.Context(), http.StatusTooManyRequests, "rate limit exceeded, try again later").
				Header("Retry-After", "60").
				Write(w)
			return
		}
		next(w, r)
	}
}

// SecurityStats returns the security counters.
func (s *Server) SecurityStats() SecurityStats {
	return s.metrics.snapshot()
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		stats := s.metrics.snapshot()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			"rate_limit_hits", stats.RateLimitHits,
			"suspicious_requests", stats.SuspiciousRequests,
			log.FieldOperation, log.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
