package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the store behind the API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the application services the API exposes.
type Deps struct {
	Transactions *services.TransactionService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Reports      *services.ReportService
	Auth         *auth.Service
	Store        Pinger
}

// Options tune the transport layer.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	deps Deps

	logger           *log.Logger
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time
	now              func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	limitCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		deps:             deps,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
		securityDetector: security.NewDetector(),
		started:          time.Now(),
		now:              time.Now,
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(handler)
	handler = s.detectSuspicious(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /me", s.requireUser(s.handleMe))

	mux.Handle("GET /transactions", s.requireUser(s.handleListTransactions))
	mux.Handle("POST /transactions", s.requireUser(s.handleCreateTransaction))
	mux.Handle("GET /transactions/recent", s.requireUser(s.handleRecentTransactions))
	mux.Handle("GET /transactions/range", s.requireUser(s.handleTransactionsByDateRange))
	mux.Handle("GET /transactions/search", s.requireUser(s.handleSearchTransactions))
	mux.Handle("GET /transactions/expenses", s.requireUser(s.handleExpenseTransactions))
	mux.Handle("GET /transactions/incomes", s.requireUser(s.handleIncomeTransactions))
	mux.Handle("GET /transactions/stats", s.requireUser(s.handleTransactionStats))
	mux.Handle("POST /transactions/quick-expense", s.requireUser(s.handleQuickExpense))
	mux.Handle("POST /transactions/quick-income", s.requireUser(s.handleQuickIncome))
	mux.Handle("GET /transactions/{id}", s.requireUser(s.handleGetTransaction))
	mux.Handle("PATCH /transactions/{id}", s.requireUser(s.handleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", s.requireUser(s.handleDeleteTransaction))

	mux.Handle("GET /accounts", s.requireUser(s.handleListAccounts))
	mux.Handle("POST /accounts", s.requireUser(s.handleCreateAccount))
	mux.Handle("GET /accounts/default", s.requireUser(s.handleDefaultAccount))
	mux.Handle("GET /accounts/summary", s.requireUser(s.handleAccountsSummary))
	mux.Handle("GET /accounts/checking", s.requireUser(s.handleAccountsOfType("checking")))
	mux.Handle("GET /accounts/savings", s.requireUser(s.handleAccountsOfType("savings")))
	mux.Handle("GET /accounts/credit-cards", s.requireUser(s.handleAccountsOfType("credit_card")))
	mux.Handle("POST /accounts/seed", s.requireUser(s.handleSeedAccounts))
	mux.Handle("GET /accounts/{id}", s.requireUser(s.handleGetAccount))
	mux.Handle("PATCH /accounts/{id}", s.requireUser(s.handleUpdateAccount))
	mux.Handle("DELETE /accounts/{id}", s.requireUser(s.handleDeleteAccount))
	mux.Handle("POST /accounts/{id}/default", s.requireUser(s.handleSetDefaultAccount))
	mux.Handle("POST /accounts/{id}/deactivate", s.requireUser(s.handleDeactivateAccount))
	mux.Handle("PUT /accounts/{id}/balance", s.requireUser(s.handleUpdateAccountBalance))
	mux.Handle("GET /accounts/{id}/transactions", s.requireUser(s.handleAccountTransactions))

	mux.Handle("GET /categories", s.requireUser(s.handleListCategories))
	mux.Handle("POST /categories", s.requireUser(s.handleCreateCategory))
	mux.Handle("POST /categories/seed", s.requireUser(s.handleSeedCategories))
	mux.Handle("GET /categories/{id}", s.requireUser(s.handleGetCategory))
	mux.Handle("PATCH /categories/{id}", s.requireUser(s.handleUpdateCategory))
	mux.Handle("DELETE /categories/{id}", s.requireUser(s.handleDeleteCategory))
	mux.Handle("POST /categories/{id}/deactivate", s.requireUser(s.handleDeactivateCategory))
	mux.Handle("GET /categories/{id}/transactions", s.requireUser(s.handleCategoryTransactions))

	mux.Handle("GET /reports/monthly", s.requireUser(s.handleMonthlySummary))
	mux.Handle("GET /reports/trends", s.requireUser(s.handleSpendingTrends))

}

// userHandler is a handler that runs with a resolved caller identity.
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// requireUser resolves the bearer token before the handler runs. Requests
// without a valid token never reach core logic.
func (s *Server) requireUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.deps.Auth.Authenticate(r.Context(), auth.BearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := auth.WithUser(r.Context(), u)
		next(w, r.WithContext(ctx), u.ID)
	})
}

func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Error: "Rate limit exceeded. Please try again later.",
		Kind:  "rate_limited",
	})
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
