package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/config"
	"github.com/Glivan2903/fazendo-90/internal/database"
	"github.com/Glivan2903/fazendo-90/internal/events"
	"github.com/Glivan2903/fazendo-90/internal/logging"
	"github.com/Glivan2903/fazendo-90/internal/middleware"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
	"github.com/Glivan2903/fazendo-90/internal/routes"
	"github.com/Glivan2903/fazendo-90/internal/services"
	"github.com/Glivan2903/fazendo-90/internal/tracing"
	rosterws "github.com/Glivan2903/fazendo-90/internal/websocket"
)

const serviceName = "gym-booking"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(serviceName, cfg.LogLevel)

	shutdownTracer, err := tracing.InitTracerProvider(serviceName, cfg.OtelEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracer provider")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}
	if err := database.ConnectDB(ctx, cfg.DBUrl); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.CloseDB()

	publisher := connectPublisher(cfg.NatsURL)
	defer publisher.Close()

	hub := rosterws.NewHub()
	go hub.Run(ctx)

	bootstrapAccounts(ctx, cfg)
	if cfg.DemoMode {
		log.Warn().Msg("DEMO_MODE enabled: synthetic classes are served when the schedule is empty or unreachable")
	}

	// 3. Setup Fiber
	app := fiber.New(fiber.Config{AppName: serviceName})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Metrics())
	app.Use(cors.New())
	app.Use(logger.New())

	routes.RegisterRoutes(app, cfg, database.DB, hub, publisher)

	// 4. Start Server
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}

// connectPublisher falls back to a no-op publisher so that booking keeps
// working without a broker.
func connectPublisher(natsURL string) events.EventPublisher {
	if natsURL == "" {
		log.Info().Msg("NATS_URL not set, check-in events disabled")
		return events.NoopPublisher{}
	}
	publisher, err := events.NewNatsPublisher(natsURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to NATS, check-in events disabled")
		return events.NoopPublisher{}
	}
	log.Info().Msg("Successfully connected to NATS")
	return publisher
}

func bootstrapAccounts(ctx context.Context, cfg *config.Config) {
	authService := services.NewAuthService(
		repository.NewTxManager(database.DB),
		repository.NewUserRepository(database.DB),
		repository.NewProfileRepository(database.DB),
		cfg.JWTSecret,
	)

	accounts := []struct {
		email, password, role, name string
	}{
		{cfg.DefaultAdminEmail, cfg.DefaultAdminPassword, models.RoleAdmin, "Administrador"},
		{cfg.DefaultCoachEmail, cfg.DefaultCoachPassword, models.RoleCoach, "Coach"},
	}
	for _, account := range accounts {
		if account.email == "" || account.password == "" {
			continue
		}
		if err := authService.EnsureAccount(ctx, account.email, account.password, account.role, account.name); err != nil {
			log.Error().Err(err).Str("email", account.email).Str("role", account.role).Msg("Failed to bootstrap account")
		}
	}
}
