package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nuber/nuber/internal/config"
	"github.com/nuber/nuber/internal/handler"
	"github.com/nuber/nuber/internal/metrics"
	"github.com/nuber/nuber/internal/middleware"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	graphql  http.Handler
	keys     middleware.KeyStore
	authC    middleware.AuthCache
	limiter  middleware.Limiter
	db       handler.HealthChecker
	cache    handler.HealthChecker
	snapshot metrics.Snapshotter
}

func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(d.cfg.GetCORSAllowedOrigins())))

	health := handler.NewHealthHandler(d.db, d.cache)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	authCfg := middleware.AuthConfig{
		Logger: d.logger,
		Keys:   d.keys,
		Cache:  d.authC,
	}

	// Anonymous callers reach /graphql so sayHello stays public; private
	// resolvers check for a caller themselves.
	optionalAuth := authCfg
	optionalAuth.Optional = true

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))
		r.Use(middleware.Auth(optionalAuth))
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Logger:    d.logger,
			Limiter:   d.limiter,
			Enabled:   d.cfg.RateLimitAPIEnabled,
			AnonRPS:   d.cfg.RateLimitAnonRPS,
			AnonBurst: d.cfg.RateLimitAnonBurst,
		}))
		r.Post("/graphql", d.graphql.ServeHTTP)
	})

	r.With(middleware.Auth(authCfg), middleware.RequireAdmin()).
		Get("/metrics", handler.NewMetricsHandler(d.snapshot).Metrics)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
