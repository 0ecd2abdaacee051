// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/tessera/internal/authz/rbac"
	"github.com/taibuivan/tessera/internal/platform/config"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/middleware"
	"github.com/taibuivan/tessera/internal/tenancy/license"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
	"github.com/taibuivan/tessera/internal/users/account"
	"github.com/taibuivan/tessera/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus scrape endpoint.
	Metrics http.Handler

	// Auth handles the token lifecycle (login, refresh, logout).
	Auth *auth.Handler

	// Tenant handles tenant provisioning and schema-cache administration.
	Tenant *tenant.Handler

	// License handles license administration and seat usage.
	License *license.Handler

	// Role handles tenant role administration.
	Role *rbac.Handler

	// User handles tenant user administration.
	User *account.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// Tenant resolution runs before authentication so token validation can bind
// the token to the request's tenant.
func NewServer(
	serverContext context.Context,
	cfg *config.Config,
	log *slog.Logger,
	resolver *tenant.Resolver,
	validator middleware.AccessTokenValidator,
	checker middleware.PermissionChecker,
	h Handlers,
) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(serverContext))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)
	r.Use(middleware.ResolveTenant(resolver, cfg.BaseDomain))
	r.Use(middleware.Authenticate(validator))

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", h.Metrics)

	guard := middleware.PermissionGuard(checker)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(authRoutes chi.Router) {
			public := authRoutes.With(middleware.AuthRateLimit(serverContext))
			protected := authRoutes.With(middleware.RequireAuth)
			h.Auth.RegisterRoutes(public, protected)
		})

		api.Route("/tenants", func(tenants chi.Router) {
			tenants.Use(middleware.RequireAdmin)
			h.Tenant.RegisterRoutes(tenants)
		})

		api.Route("/licenses", func(licenses chi.Router) {
			admin := licenses.With(middleware.RequireAdmin)
			tenantFacing := licenses.With(middleware.RequireAuth)
			h.License.RegisterRoutes(admin, tenantFacing)
		})

		api.Route("/roles", func(roles chi.Router) {
			roles.Use(middleware.RequireAuth)
			h.Role.RegisterRoutes(roles, guard)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(middleware.RequireAuth)
			h.User.RegisterRoutes(users, guard)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
