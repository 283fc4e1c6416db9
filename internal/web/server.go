// Package web provides the HTTP server and JSON API for the SOSI
// cleaning service.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mkleiva/sosivask/internal/config"
	"github.com/mkleiva/sosivask/internal/core"
	"github.com/mkleiva/sosivask/internal/web/middleware"
)

// Server is the HTTP server for the cleaning service.
type Server struct {
	cfg     *config.Config
	service *core.Service
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the middleware stack and routes around the service.
func NewServer(cfg *config.Config, service *core.Service) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Ingest endpoints get their own, tighter rate limit on top of the
	// global one.
	var ingestLimit func(http.Handler) http.Handler
	if s.cfg.Rate.Enabled {
		ingestLimit = newRateLimiter(s.cfg.Rate.IngestLimit, time.Minute).middleware
	} else {
		ingestLimit = func(next http.Handler) http.Handler { return next }
	}

	s.router.Route("/api", func(r chi.Router) {
		// Dataset ingestion and registry
		r.With(ingestLimit).Post("/datasets", s.handleIngest)
		r.Get("/datasets", s.handleListDatasets)
		r.Get("/datasets/{datasetID}", s.handleGetDataset)
		r.Delete("/datasets/{datasetID}", s.handleDeleteDataset)

		// Dataset inspection
		r.Get("/datasets/{datasetID}/preview", s.handlePreview)
		r.Get("/datasets/{datasetID}/analysis", s.handleAnalysis)
		r.Get("/datasets/{datasetID}/frequency", s.handleFrequency)
		r.Post("/datasets/{datasetID}/pivot", s.handlePivot)

		// Cleaning
		r.Post("/datasets/{datasetID}/clean", s.handleClean)

		// Ingest session tracking
		r.Get("/ingests/{ingestID}/progress", s.handleIngestProgress)
		r.Get("/ingests/{ingestID}/events", s.handleIngestEvents)
		r.Get("/ingests/{ingestID}/result", s.handleIngestResult)
		r.Post("/ingests/{ingestID}/cancel", s.handleCancelIngest)
		r.Get("/queue", s.handleQueueStatus)

		// Stored selections
		r.Get("/selections", s.handleListSelections)
		r.Get("/selections/{name}", s.handleGetSelection)
		r.Put("/selections/{name}", s.handleSaveSelection)
		r.Delete("/selections/{name}", s.handleDeleteSelection)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// TrustedRealIP runs earlier in the chain, so RemoteAddr is already the
// client address this limiter should key on.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
