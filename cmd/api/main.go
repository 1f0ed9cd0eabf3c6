// Package main is the entrypoint for the nuber GraphQL API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/nuber/nuber/internal/cache"
	"github.com/nuber/nuber/internal/config"
	"github.com/nuber/nuber/internal/graph"
	"github.com/nuber/nuber/internal/metrics"
	"github.com/nuber/nuber/internal/notify"
	"github.com/nuber/nuber/internal/repository"
	"github.com/nuber/nuber/internal/server"
	"github.com/nuber/nuber/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	sender, err := notify.NewSender(&cfg.Mail, logger)
	if err != nil {
		logger.Error("failed to configure mail backend", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()

	places := service.NewPlaceService(repo, logger, recorder)
	verifications := service.NewVerificationService(
		repo, repo, cacheClient,
		notify.NewMailer(sender, &cfg.Mail),
		service.VerificationConfig{
			SendLimit:  cfg.VerificationSendLimit,
			SendWindow: cfg.VerificationSendWindow,
		},
		logger, recorder,
	)

	schema, err := graph.NewSchema(graph.NewResolver(places, verifications, logger), cfg.GraphQLMaxDepth)
	if err != nil {
		logger.Error("failed to build GraphQL schema", "error", err)
		os.Exit(1)
	}

	router := newRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		graphql:  graph.NewHandler(schema, logger, recorder),
		keys:     repo,
		authC:    cacheClient,
		limiter:  cacheClient,
		db:       repo,
		cache:    cacheClient,
		snapshot: recorder,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"mail_backend", cfg.Mail.Backend,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			username = "redacted"
		}
		parsed.User = url.User(username)
	}

	return parsed.String()
}

// sanitizeError replaces any secret URL in err's message with its redacted
// form and masks key=value passwords.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
