package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhttp "data-playground/internal/auth/adapter/http"
	authconfig "data-playground/internal/auth/config"
	"data-playground/internal/di"
	pgconfig "data-playground/internal/playground/config"
	"data-playground/internal/shared/logger"
	"data-playground/internal/shared/metrics"
	"data-playground/internal/shared/middleware"
	"data-playground/internal/shared/response"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host             string `env:"SERVER_HOST" envDefault:"localhost"`
	Port             string `env:"SERVER_PORT" envDefault:"3000"`
	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	MetricsEnabled   bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Environment      string `env:"ENVIRONMENT" envDefault:"development"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()

	accessLog, err := middleware.NewAccessLogger(serverCfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create access logger: %v", err)
	}
	defer func() { _ = accessLog.Sync() }()

	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		appLogger.Fatalf("Failed to load auth configuration: %v", err)
	}
	pgCfg, err := pgconfig.LoadConfig()
	if err != nil {
		appLogger.Fatalf("Failed to load playground configuration: %v", err)
	}

	container := di.NewContainer(appLogger, authCfg, pgCfg)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.ConnectMongo(ctx); err != nil {
		appLogger.Fatalf("%v", err)
	}
	if err := container.ConnectRedis(ctx); err != nil {
		appLogger.Fatalf("%v", err)
	}
	if err := container.InitializeAuth(ctx); err != nil {
		appLogger.Fatalf("Failed to initialize auth module: %v", err)
	}
	if err := container.InitializePlayground(); err != nil {
		appLogger.Fatalf("Failed to initialize playground module: %v", err)
	}
	appLogger.Info("All modules initialized")

	app := buildApp(serverCfg, container, appLogger, accessLog)

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}

// buildApp assembles middleware and routes. Modules missing from the
// container are skipped.
func buildApp(cfg *ServerConfig, container *di.Container, appLogger logger.Logger, accessLog *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Data Playground API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: response.ErrorHandler(appLogger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(authhttp.RequestID())
	app.Use(authhttp.RequestContext())

	if cfg.MetricsEnabled {
		httpMetrics := metrics.NewHTTPMetrics()
		app.Use(httpMetrics.Middleware())
		app.Get("/metrics", httpMetrics.Handler())
	}
	app.Use(middleware.RequestLogger(accessLog))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		status, err := container.HealthCheck(healthCtx)
		if err != nil {
			appLogger.Warnf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "UNHEALTHY",
				"services": status,
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"services":  status,
			"timestamp": time.Now().UTC(),
		})
	})

	authModule := container.GetAuthModule()
	if authModule == nil {
		return app
	}
	authModule.RegisterRoutes(app.Group("/api/auth"))

	if pg := container.GetPlaygroundModule(); pg != nil {
		pg.RegisterRoutes(app.Group("/api"), app, authModule.GetMiddleware().Protect())
	}
	return app
}
