package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/prospectiva/internal/auth"
	"github.com/BradenHooton/prospectiva/internal/background"
	"github.com/BradenHooton/prospectiva/internal/config"
	"github.com/BradenHooton/prospectiva/internal/database"
	"github.com/BradenHooton/prospectiva/internal/eventstream"
	"github.com/BradenHooton/prospectiva/internal/handlers"
	"github.com/BradenHooton/prospectiva/internal/middleware"
	"github.com/BradenHooton/prospectiva/internal/repositories"
	"github.com/BradenHooton/prospectiva/internal/routes"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	pkglogger "github.com/BradenHooton/prospectiva/pkg/logger"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	// Initialize database
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)
	accessLogRepo := repositories.NewAccessLogRepository(db)
	techniqueRepo := repositories.NewTechniqueRepository(db)

	// Catalog cache is optional; without it every request reads Postgres
	var techniqueCache services.TechniqueCache
	if cfg.Catalog.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.Catalog.RedisURL, logger)
		if err != nil {
			logger.Warn("catalog cache disabled", slog.Any("error", err))
		} else {
			defer redisClient.Close()
			techniqueCache = repositories.NewTechniqueCache(redisClient, cfg.Catalog.CacheTTL)
		}
	}

	// Security event sinks
	sinks := []services.EventSink{services.NewAccessLogSink(accessLogRepo)}
	if len(cfg.Events.KafkaBrokers) > 0 {
		kafkaSink := eventstream.NewKafkaSink(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, logger)
		defer func() {
			if err := kafkaSink.Close(); err != nil {
				logger.Warn("failed to close kafka writer", slog.Any("error", err))
			}
		}()
		sinks = append(sinks, kafkaSink)
	}
	eventLogger := services.NewSecurityEventLogger(sinks, cfg.Events.SendTimeout, clock, logger)

	// Account-blocked alerts are optional
	var alerts services.AlertSender
	if cfg.Email.AlertFromAddress != "" {
		sesAlerts, err := services.NewSESAlertService(ctx, cfg.Email.AWSRegion, cfg.Email.AlertFromAddress, logger)
		if err != nil {
			logger.Warn("account alerts disabled", slog.Any("error", err))
		} else {
			alerts = sesAlerts
		}
	}

	// Security core
	limiter := services.NewRateLimiter(services.RateLimitConfig{
		MaxAttempts:   cfg.Auth.MaxAttempts,
		Window:        cfg.Auth.AttemptWindow,
		BlockDuration: cfg.Auth.BlockDuration,
	}, clock, logger)
	timing := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.TimingBaseDelay,
		RandomDelay: cfg.Auth.TimingRandomDelay,
	}, clock)
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, clock)
	sessionValidator := services.NewSessionValidator(
		auth.NewTokenSessionProvider(tokenManager, revokeRepo), eventLogger, clock, logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, revokeRepo, tokenManager, limiter, eventLogger, timing, alerts, clock, logger)
	userService := services.NewUserService(userRepo, logger)
	techniqueService := services.NewTechniqueService(techniqueRepo, techniqueCache, cfg.Catalog.DefaultLanguage, logger)
	accessLogService := services.NewAccessLogService(accessLogRepo, cfg.Events.AccessLogRetention, clock, logger)

	// Bootstrap first admin user if configured
	if cfg.Auth.AdminEmail != "" {
		bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := userService.EnsureAdmin(bootstrapCtx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Error("failed to ensure admin user",
				pkglogger.RedactedAttr("email", cfg.Auth.AdminEmail, cfg.Server.Env),
				slog.Any("error", err))
		}
		cancel()
	}

	// Initialize handlers
	cookies := auth.CookieConfig{
		Domain:   cfg.Server.CookieDomain,
		Secure:   cfg.Server.IsProduction(),
		SameSite: "strict",
	}
	router := routes.NewRouter(routes.RouterConfig{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IPConfig:       &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies},
		AuthRateLimit:  middleware.RateLimitConfig{RequestsPerMinute: cfg.Auth.IPRequestsPerMin},
	}, routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cookies, clock),
		Users:      handlers.NewUserHandler(userService),
		Techniques: handlers.NewTechniqueHandler(techniqueService),
		AccessLogs: handlers.NewAccessLogHandler(accessLogService),
		Health:     handlers.NewHealthHandler(db),
	}, sessionValidator, userRepo, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(revokeRepo, accessLogService, limiter, cfg.Auth.CleanupInterval, clock, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cleanupManager.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// Drain background work that outlives requests
	authService.WaitForAlerts()
	eventLogger.Flush()

	if err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
