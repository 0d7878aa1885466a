// Package http implements the REST API: chi routing, middleware, JWT
// authentication and JSON handlers over the application layer.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/service"
	"github.com/scholar-hub/scholarship-hub/internal/interface/http/handlers"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr to listen on, e.g. "0.0.0.0:8080".
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// AllowedOrigins for CORS; "*" allows any.
	AllowedOrigins []string

	// RateLimitRPS per client IP (0 = disabled).
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64

	// SelfRegistration exposes POST /auth/register.
	SelfRegistration bool

	// CountViews increments scholarship view counters on detail reads.
	CountViews bool
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:             "0.0.0.0:8080",
		ReadTimeout:      15 * time.Second,
		WriteTimeout:     15 * time.Second,
		IdleTimeout:      60 * time.Second,
		AllowedOrigins:   []string{"*"},
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		MaxBodyBytes:     1 << 20,
		SelfRegistration: true,
		CountViews:       true,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Metrics is the HTTP-facing part of the metrics registry.
type Metrics interface {
	RequestStarted() func()
	ObserveHTTP(method, route string, status int, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RequestStarted() func()                         { return func() {} }
func (nopMetrics) ObserveHTTP(string, string, int, time.Duration) {}

// Dependencies contains everything the handlers need.
type Dependencies struct {
	App    *service.Container
	Tokens *TokenIssuer

	// Optional
	Logger         *logger.Logger
	Metrics        Metrics
	MetricsHandler http.Handler
	HealthChecker  handlers.HealthChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config   Config
	commands service.Commands
	queries  service.Queries
	tokens   *TokenIssuer
	logger   *logger.Logger
	metrics  Metrics
	health   handlers.HealthChecker
	limiter  *ipRateLimiter

	router     chi.Router
	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) (*Server, error) {
	if deps.App == nil || deps.Tokens == nil {
		return nil, errors.New("http: application container and token issuer are required")
	}

	s := &Server{
		config:   config,
		commands: deps.App.Commands,
		queries:  deps.App.Queries,
		tokens:   deps.Tokens,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		health:   deps.HealthChecker,
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.Component("http"))
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.health == nil {
		s.health = handlers.NewCompositeHealthChecker("")
	}
	if config.RateLimitRPS > 0 {
		s.limiter = newIPRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	}

	s.router = s.routes(deps.MetricsHandler)
	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) routes(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(handlers.SecurityHeadersMiddleware)
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Health & Metrics
	// ─────────────────────────────────────────────────────────────────────────
	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// API v1
	// ─────────────────────────────────────────────────────────────────────────
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.NoCacheMiddleware)
		r.Use(handlers.RequestSizeLimitMiddleware(s.maxBodyBytes()))
		r.Use(s.authenticate)

		// Public
		r.Post("/auth/login", s.handleLogin)
		if s.config.SelfRegistration {
			r.Post("/auth/register", s.handleRegister)
		}
		r.Get("/scholarships", s.handleListScholarships)
		r.Get("/scholarships/{ref}", s.handleGetScholarship)
		r.Get("/scholarships/{ref}/eligibility", s.handleGetEligibility)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/scholarships", s.handleCreateScholarship)
			r.Patch("/scholarships/{ref}", s.handleUpdateScholarship)
			r.Delete("/scholarships/{ref}", s.handleDeleteScholarship)
			for _, action := range []command.ScholarshipAction{
				command.ActionPublish, command.ActionClose, command.ActionSuspend,
				command.ActionReopen, command.ActionExpire,
			} {
				r.Post("/scholarships/{ref}/"+string(action), s.handleChangeScholarshipStatus(action))
			}
			r.Put("/scholarships/{ref}/slots", s.handleAdjustSlots)
			r.Put("/scholarships/{ref}/eligibility", s.handleSetEligibility)
			r.Delete("/scholarships/{ref}/eligibility", s.handleRemoveEligibility)
			r.Post("/scholarships/{ref}/applications", s.handleSubmitApplication)
			r.Get("/scholarships/{ref}/applications", s.handleListScholarshipApplications)

			r.Get("/applications", s.handleListApplications)
			r.Get("/applications/{id}", s.handleGetApplication)
			r.Post("/applications/{id}/review", s.handleReviewApplication)
			r.Post("/applications/{id}/withdraw", s.handleWithdrawApplication)
			r.Post("/applications/{id}/cancel", s.handleCancelApplication)

			r.Get("/users/me", s.handleGetCurrentUser)
			r.Put("/users/me/password", s.handleChangePassword)
			r.Put("/users/{id}/profile/student", s.handleUpsertStudentProfile)
			r.Put("/users/{id}/profile/sponsor", s.handleUpsertSponsorProfile)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}/status", s.handleChangeUserStatus)
		})
	})

	return r
}

func (s *Server) maxBodyBytes() int64 {
	if s.config.MaxBodyBytes > 0 {
		return s.config.MaxBodyBytes
	}
	return 1 << 20
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())
	if !status.Ready {
		writeEnvelope(w, r, http.StatusServiceUnavailable, JSONResponse{Data: status})
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.close()
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
