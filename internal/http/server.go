// Package http exposes the JSON API over the club's collections, the
// payment ledger and the reports.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"clubledger/internal/cache"
	"clubledger/internal/ledger"
	applog "clubledger/internal/log"
	"clubledger/internal/report"
	"clubledger/internal/services"
)

type Server struct {
	http.Server
	svc    *services.ClubService
	ledger *ledger.Ledger

	rateLimiter  *rateLimiter
	reportCache  *cache.LRUCache[report.YearReport]
	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// Options tunes the server; zero values fall back to defaults.
type Options struct {
	ReportCacheSize int
	ReportCacheTTL  time.Duration
}

// NewServer wires routes over the service and ledger, returning a
// ready-to-run server.
func NewServer(addr string, svc *services.ClubService, led *ledger.Ledger, opts Options) *Server {
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 64
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}

	// Delete checks must see toggles still inside the debounce window,
	// not just the flushed collection.
	svc.UsePaymentSource(led)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:          svc,
		ledger:       led,
		rateLimiter:  newRateLimiter(),
		reportCache:  cache.NewLRUCache[report.YearReport](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/fiscal-years", s.withSecurityHeaders(s.handleFiscalYears))
	mux.HandleFunc("/api/fiscal-years/", s.withSecurityHeaders(s.handleFiscalYearByID))
	mux.HandleFunc("/api/members", s.withSecurityHeaders(s.handleMembers))
	mux.HandleFunc("/api/members/", s.withSecurityHeaders(s.handleMemberByID))
	mux.HandleFunc("/api/staff", s.withSecurityHeaders(s.handleStaff))
	mux.HandleFunc("/api/staff/", s.withSecurityHeaders(s.handleStaffByID))
	mux.HandleFunc("/api/venues", s.withSecurityHeaders(s.handleVenues))
	mux.HandleFunc("/api/venues/", s.withSecurityHeaders(s.handleVenueByID))
	mux.HandleFunc("/api/categories", s.withSecurityHeaders(s.handleCategories))
	mux.HandleFunc("/api/categories/", s.withSecurityHeaders(s.handleCategoryByID))
	mux.HandleFunc("/api/incomes", s.withSecurityHeaders(s.handleIncomes))
	mux.HandleFunc("/api/incomes/", s.withSecurityHeaders(s.handleIncomeByID))
	mux.HandleFunc("/api/expenses", s.withSecurityHeaders(s.handleExpenses))
	mux.HandleFunc("/api/expenses/", s.withSecurityHeaders(s.handleExpenseByID))
	mux.HandleFunc("/api/activities", s.withSecurityHeaders(s.handleActivities))
	mux.HandleFunc("/api/activities/", s.withSecurityHeaders(s.handleActivityByID))
	mux.HandleFunc("/api/users", s.withSecurityHeaders(s.handleUsers))
	mux.HandleFunc("/api/users/", s.withSecurityHeaders(s.handleUserByID))

	mux.HandleFunc("/api/payments", s.withSecurityHeaders(s.handlePayments))
	mux.HandleFunc("/api/payments/toggle", s.withSecurityHeaders(s.handlePaymentToggle))

	mux.HandleFunc("/api/reports/membership", s.withSecurityHeaders(s.handleMembershipReport))
	mux.HandleFunc("/api/reports/compensation", s.withSecurityHeaders(s.handleCompensationReport))
	mux.HandleFunc("/api/reports/year", s.withSecurityHeaders(s.handleYearReport))
	mux.HandleFunc("/api/reports/year/export", s.withSecurityHeaders(s.handleYearExport))

	return s
}

// withSecurityHeaders adds request IDs, rate limiting on mutations,
// security headers and request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := applog.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		// Any successful mutation may change what the reports say.
		if r.Method != http.MethodGet && rw.statusCode < 300 {
			s.reportCache.Clear()
		}

		applog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.svc.ListFiscalYears(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops background cleanup and drains in-flight requests. The
// ledger is flushed by the caller, which owns its lifecycle.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
