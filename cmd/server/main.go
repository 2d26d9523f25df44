// Package main is the entry point for the RentVerify HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/popeskul/rentverify/internal/client/twilio"
	"github.com/popeskul/rentverify/internal/config"
	"github.com/popeskul/rentverify/internal/handler"
	"github.com/popeskul/rentverify/internal/infrastructure/database"
	"github.com/popeskul/rentverify/internal/infrastructure/migrate"
	"github.com/popeskul/rentverify/internal/metrics"
	"github.com/popeskul/rentverify/internal/middleware"
	"github.com/popeskul/rentverify/internal/repository"
	"github.com/popeskul/rentverify/internal/service"
	"github.com/popeskul/rentverify/internal/session"
	"github.com/popeskul/rentverify/internal/web"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if !cfg.App.IsProduction() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	dialect, err := database.NewDialect(cfg.Database)
	if err != nil {
		return err
	}

	if err := migrate.NewRunner(dialect, migrate.WithLogger(logger)).Up(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.Open(ctx, dialect)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	logger.Info("Database ready", zap.String("dialect", dialect.Name()))

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := session.NewManager(store, session.Options{
		Secret:     cfg.Session.Secret,
		CookieName: cfg.Session.CookieName,
		Lifetime:   cfg.Session.Lifetime,
		Secure:     cfg.App.IsProduction(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// A nil interface, not a nil *twilio.Client, keeps the notifier disabled.
	var sender service.SMSSender
	if cfg.Twilio.Enabled() {
		client, err := twilio.NewClient(twilio.Config{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			FromNumber: cfg.Twilio.FromNumber,
			BaseURL:    cfg.Twilio.BaseURL,
			Timeout:    time.Duration(cfg.Twilio.Timeout) * time.Second,
		}, logger)
		if err != nil {
			return err
		}
		sender = client
	} else {
		logger.Warn("Twilio credentials not set, outbound SMS disabled")
	}

	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, store, sender, m, logger)
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	h := handler.NewHandler(svc, sessions, renderer, m, logger)
	router := setupRouter(h, sessions, m, logger)

	chain, rateLimiter := middleware.Chain(&middleware.Config{
		Logger:         logger,
		RateLimit:      rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst: cfg.Middleware.RateLimitBurst,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		TimeoutExempt:  webhookPaths,
	})
	defer rateLimiter.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      chain(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.Bool("outbound_sms", sender != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// newSessionStore returns the configured session store and a function that
// releases it.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Store, func(), error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(10 * time.Minute), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Using Redis session store", zap.String("addr", cfg.Redis.Addr()))

	return session.NewRedisStore(client), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}, nil
}
