package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/cache"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/config"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/database"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/dto"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/logging"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/routes"
	"github.com/ahmetcoskunkizilkaya/disaster-reports/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// system_logs handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewContextHandler(logging.NewMultiHandler(
		logging.StdoutHandler(cfg.LogLevel),
		pgLogHandler,
	))))

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	// Redis, shared by the cache and the broadcaster when either uses it
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
	}

	var queryCache cache.Cache
	var cachePinger handlers.Pinger
	switch cfg.CacheBackend {
	case "redis":
		rc := cache.NewRedisCache(redisClient)
		queryCache, cachePinger = rc, rc
	default:
		queryCache = cache.NewTableCache(database.DB)
	}

	var natsConn *nats.Conn
	var broadcaster realtime.Broadcaster
	switch cfg.BroadcastBackend {
	case "redis":
		broadcaster = realtime.NewRedisBroadcaster(redisClient)
	case "nats":
		conn, err := realtime.ConnectNATS(cfg.NATSURL)
		if err != nil {
			slog.Error("nats connection failed", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		natsConn = conn
		broadcaster = realtime.NewNATSBroadcaster(conn)
	default:
		broadcaster = realtime.NewLogBroadcaster(slog.Default())
	}
	slog.Info("collaborators configured", "cache", cfg.CacheBackend, "broadcast", cfg.BroadcastBackend)

	// Services
	store := services.NewGormReportStore(database.DB)
	authorizer := services.NewRoleAuthorizer(database.DB, cfg)
	moderationService := services.NewModerationService(authorizer, store, queryCache, broadcaster, slog.Default())
	queryService := services.NewReportQueryService(store, queryCache, cfg.VerifiedCacheTTL, slog.Default())

	// Handlers
	healthHandler := handlers.NewHealthHandler(database.DB, cachePinger)
	moderationHandler := handlers.NewModerationHandler(moderationService, queryService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.RequestContext())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, healthHandler, moderationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			slog.Error("nats drain error", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if err := database.Close(database.DB); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.ErrorContext(c.UserContext(), "unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
