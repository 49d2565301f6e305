// Package http provides the web server: HTML pages for entry and review,
// HTMX partial endpoints, and the JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tally/internal/backend"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/importer"
	applog "tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	appweb "tally/web"
)

// Ledger is the write path for transactions. *services.LedgerService
// satisfies this; it publishes backup events alongside each write.
type Ledger interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
	Update(ctx context.Context, id int64, u core.TransactionUpdate) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

type Server struct {
	http.Server
	templates *template.Template
	store     backend.Store
	ledger    Ledger
	importer  *importer.Importer

	secHeaders  *security.HeadersMiddleware
	clientIP    *security.ClientIPResolver
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	appLogger *applog.Logger
	structLog *applog.StructuredLogger

	// Month summaries and the transaction list are cached between writes.
	summaryCache *cache.LRUCache[core.MonthSummary]
	listCache    *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

const listCacheKey = "all"

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, store backend.Store, ledger Ledger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:  store,
		ledger: ledger,

		secHeaders:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		clientIP:    security.NewClientIPResolver(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),

		summaryCache: cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		listCache:    cache.NewLRUCache[[]core.Transaction](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.tracer = trace.NewMiddleware(s.clientIP.ExtractClientIP)
	s.appLogger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	s.structLog = applog.NewStructuredLogger(s.appLogger)

	// Imports go through the ledger so bulk rows publish backup events too.
	s.importer = importer.New(ledgerWriter{ledger})

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate,
			"error_type", applog.ErrorTypeConfiguration)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metricsz", s.handleMetrics)

	mux.Handle("/", s.protect(s.handleDashboard))
	mux.Handle("/transactions", s.protect(s.handleTransactions))
	mux.Handle("/transactions/{id}/edit", s.protect(s.handleEditTransaction))
	mux.Handle("/transactions/{id}/delete", s.protect(s.handleDeleteTransaction))
	mux.Handle("/import", s.protect(s.handleImport))
	mux.Handle("/budgets", s.protect(s.handleBudgets))

	mux.Handle("/api/balance", s.protect(s.handleAPIBalance))
	mux.Handle("/api/transactions", s.protect(s.handleAPITransactions))
	mux.Handle("/api/category_data", s.protect(s.handleAPICategoryData))
	mux.Handle("/api/import", s.protect(s.handleAPIImport))

	return s
}

// ledgerWriter adapts the Ledger write path to the importer's port.
type ledgerWriter struct {
	ledger Ledger
}

func (lw ledgerWriter) Add(ctx context.Context, t core.Transaction) (int64, error) {
	return lw.ledger.Create(ctx, t)
}

// protect wires the standard middleware chain: tracing, a request-scoped
// logger, security headers, and rate limiting on writes.
func (s *Server) protect(next http.HandlerFunc) http.Handler {
	var h http.Handler = s.limitWrites(next)
	h = s.secHeaders.Middleware(h)
	h = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = applog.Middleware(s.appLogger)(h)
	h = s.tracer.Middleware(h)
	return h
}

// limitWrites applies the rate limiter to mutating requests only; reads
// stay unthrottled for dashboard polling.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			clientIP := s.clientIP.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path,
					applog.FieldComponent, applog.ComponentRateLimit)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready once storage answers.
	if _, err := s.store.Balance(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("storage unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes in-process counters for operational checks. Only
// routes behind the middleware chain count as requests.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]int64{
		"total_requests":            m.TotalRequests,
		"average_response_time_us":  m.AverageResponseTime,
		"rate_limit_active_clients": int64(s.rateLimiter.ActiveClients()),
		"summary_cache_entries":     int64(s.summaryCache.Size()),
		"list_cache_entries":        int64(s.listCache.Size()),
	})
}

func (s *Server) cacheKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

// invalidateMonth drops cached aggregates for a transaction's month.
func (s *Server) invalidateMonth(d core.Date) {
	s.summaryCache.Delete(s.cacheKey(d.Year(), d.Month()))
	s.listCache.Delete(listCacheKey)
}

// purgeCaches drops everything; bulk imports touch arbitrary months.
func (s *Server) purgeCaches() {
	s.summaryCache.Purge()
	s.listCache.Purge()
}

func (s *Server) getMonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	key := s.cacheKey(year, month)

	if data, found := s.summaryCache.Get(key); found {
		slog.DebugContext(ctx, "Summary cache hit", "year", year, "month", month)
		return data, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	data, err := s.store.MonthSummary(cctx, year, month)
	if err != nil {
		return core.MonthSummary{}, err
	}

	s.summaryCache.Set(key, data)
	return data, nil
}

func (s *Server) getTransactions(ctx context.Context) ([]core.Transaction, error) {
	if items, found := s.listCache.Get(listCacheKey); found {
		// Return a copy to prevent external mutation
		result := make([]core.Transaction, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.store.List(cctx)
	if err != nil {
		return nil, err
	}

	s.listCache.Set(listCacheKey, items)
	return items, nil
}
