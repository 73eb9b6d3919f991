// Package http exposes the puzzle hub over REST: game event ingestion,
// leaderboard reads and writes, achievement listings and the admin API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alem-hub/puzzle-hub/config"
	"github.com/alem-hub/puzzle-hub/internal/application/command"
	"github.com/alem-hub/puzzle-hub/internal/application/eventhandler"
	"github.com/alem-hub/puzzle-hub/internal/application/query"
	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/puzzle-hub/internal/interface/http/handlers"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64

	// AllowedOrigins - allowed origins for CORS. Empty disables CORS.
	AllowedOrigins []string

	// RateLimitRequests per RateLimitWindow per client IP (0 = disabled).
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Version is reported in response metadata and health output.
	Version string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
		MaxBodyBytes:      64 << 10,
		AllowedOrigins:    []string{"*"},
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		Version:           "v1",
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// EventSubmitter accepts game events for asynchronous processing.
type EventSubmitter interface {
	Submit(ev achievement.GameEvent) error
}

// RecentAwardsSource serves the recent awards feed.
type RecentAwardsSource interface {
	Recent(limit int) []eventhandler.RecentAward
}

// QueueMetricsSource reports ingestion queue counters.
type QueueMetricsSource interface {
	Metrics() messaging.EventQueueMetrics
}

// BusMetricsSource reports domain event bus counters.
type BusMetricsSource interface {
	Metrics() *messaging.EventBusMetrics
}

// RecomputeCounter reports how many times the ranking was rebuilt.
type RecomputeCounter interface {
	Recomputes() int64
}

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	// Write side
	Events            EventSubmitter
	UpsertScore       *command.UpsertScoreHandler
	UpsertAchievement *command.UpsertAchievementHandler

	// Read side
	GetLeaderboard         *query.GetLeaderboardHandler
	ListAchievements       *query.ListAchievementsHandler
	ListPlayerAchievements *query.ListPlayerAchievementsHandler
	RecentAwards           RecentAwardsSource

	// Stats (each optional)
	QueueMetrics QueueMetricsSource
	BusMetrics   BusMetricsSource
	Ranking      RecomputeCounter

	// Admin endpoints are only mounted when AdminAuth has a key configured.
	AdminAuth *handlers.APIKeyAuth

	// Features gates optional routes. Nil means defaults.
	Features *config.FeatureFlags

	// Health Check Dependencies
	HealthChecker handlers.HealthChecker

	// Logger
	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	logger     *logger.Logger

	// Middleware state
	rateLimiter *rateLimiter

	// Server state
	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(cfg Config, deps Dependencies) *Server {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if cfg.RateLimitRequests > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.rateLimiter = newRateLimiter(cfg.RateLimitRequests, window)
	}

	s.setupRoutes()
	s.handler = s.buildMiddlewareChain(s.router)

	s.httpServer = &http.Server{
		Addr:           cfg.Address(),
		Handler:        s.handler,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return s
}

// Handler returns the fully wrapped handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /{$}", s.handleRoot)

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - Public Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/events", s.handleSubmitEvent)
	s.router.HandleFunc("GET /api/v1/leaderboard", s.handleGetLeaderboard)
	s.router.HandleFunc("PUT /api/v1/leaderboard/users/{id}", s.handleUpsertScore)
	s.router.HandleFunc("GET /api/v1/achievements", s.handleListAchievements)
	s.router.HandleFunc("GET /api/v1/players/{id}/achievements", s.handleListPlayerAchievements)
	s.router.HandleFunc("GET /api/v1/stats", s.handleGetStats)

	if s.deps.Features.IsEnabled(config.FeatureRecentFeed) && s.deps.RecentAwards != nil {
		s.router.HandleFunc("GET /api/v1/achievements/recent", s.handleRecentAwards)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// API v1 - Admin Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	if s.deps.Features.IsEnabled(config.FeatureAdminAPI) && s.deps.AdminAuth != nil && s.deps.AdminAuth.Enabled() {
		s.router.Handle("PUT /api/v1/admin/achievements/{id}",
			s.deps.AdminAuth.Middleware(http.HandlerFunc(s.handleUpsertAchievement)))
	}
}

// buildMiddlewareChain wraps the router with all middleware.
// The first middleware listed is the outermost.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	chain := []handlers.MiddlewareFunc{
		s.requestIDMiddleware,
		s.loggingMiddleware,
		s.recoveryMiddleware,
	}

	if len(s.config.AllowedOrigins) > 0 {
		chain = append(chain, s.corsMiddleware)
	}

	if s.rateLimiter != nil {
		chain = append(chain, s.rateLimitMiddleware)
	}

	chain = append(chain,
		handlers.SecurityHeadersMiddleware,
		handlers.RequestSizeLimitMiddleware(s.config.MaxBodyBytes),
	)

	return handlers.Chain(chain...)(handler)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully shuts down the server and stops the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
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

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
