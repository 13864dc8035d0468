// Package server wires the router, middleware stack, and handlers into a
// configured *http.Server.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menezmethod/salute/internal/config"
	"github.com/menezmethod/salute/internal/handler"
	"github.com/menezmethod/salute/internal/middleware"
	"github.com/menezmethod/salute/internal/router"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// minNameLen guards against empty user names on create.
var minNameLen = 1

// NewRouter builds the fully wired Router. Split from New so tests can
// drive the router directly through httptest without a listener.
func NewRouter(cfg config.Config, store middleware.RateLimitStore, logger *slog.Logger, started time.Time) *router.Router {
	rt := router.New(logger)
	rt.IncludeStacks = cfg.Development()

	// Global middleware, in execution order. CORS runs after logging so
	// preflights still produce a log line; rate limiting and auth decide
	// before dispatch.
	rt.Use(middleware.Metrics())
	rt.Use(middleware.Logging(logger))
	rt.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     cfg.CORS.AllowMethods,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		ExposeHeaders:    cfg.CORS.ExposeHeaders,
		MaxAge:           cfg.CORS.MaxAge,
		AllowCredentials: cfg.CORS.AllowCredentials,
	}))
	rt.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Store:  store,
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	}))
	rt.Use(middleware.Auth(middleware.AuthConfig{Required: cfg.Auth.Required}))

	// Greeting + health.
	rt.Register(http.MethodGet, "/api", handler.Greeting())
	rt.Register(http.MethodPost, "/api", handler.Echo())
	rt.Register(http.MethodGet, "/api/health", handler.Health(started))

	// Users CRUD stubs on a mounted sub-router.
	users := router.New(logger)
	users.Register(http.MethodGet, "/", handler.ListUsers())
	users.Register(http.MethodGet, "/:id", handler.GetUser())
	users.Register(http.MethodPost, "/", router.Wrap(handler.CreateUser(),
		middleware.Validate(middleware.Schema{
			Body: map[string]*middleware.Rule{
				"name":  {Type: "string", Required: true, MinLen: &minNameLen},
				"email": {Type: "string", Pattern: emailPattern},
			},
		}),
	))
	users.Register(http.MethodPut, "/:id", handler.UpdateUser())
	users.Register(http.MethodDelete, "/:id", handler.DeleteUser())
	rt.Mount("/api/users", users)

	// Admin routes require an authenticated admin principal regardless of
	// the global auth.required setting.
	admin := router.New(logger)
	admin.Register(http.MethodGet, "/stats", router.Wrap(handler.AdminStats(started),
		middleware.Auth(middleware.AuthConfig{Required: true}),
		middleware.RequireRole("admin"),
	))
	rt.Mount("/api/admin", admin)

	// Root discovery payload, registered last so it lists the full table.
	rt.Register(http.MethodGet, "/", handler.Root(rt))

	return rt
}

// New creates the configured *http.Server and the rate-limit store whose
// sweeper the caller must Close on shutdown. Prometheus metrics are served
// outside the envelope router.
func New(cfg config.Config, logger *slog.Logger) (*http.Server, *middleware.MemoryStore) {
	store := middleware.NewMemoryStore(cfg.RateLimit.SweepInterval)
	rt := NewRouter(cfg, store, logger, time.Now())

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/", rt)

	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}, store
}

// Shutdown gracefully shuts down the server with the given context.
func Shutdown(ctx context.Context, srv *http.Server, logger *slog.Logger) {
	logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}
