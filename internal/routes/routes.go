package routes

import (
	"context"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Glivan2903/fazendo-90/internal/config"
	"github.com/Glivan2903/fazendo-90/internal/events"
	"github.com/Glivan2903/fazendo-90/internal/handlers"
	"github.com/Glivan2903/fazendo-90/internal/middleware"
	"github.com/Glivan2903/fazendo-90/internal/models"
	"github.com/Glivan2903/fazendo-90/internal/repository"
	"github.com/Glivan2903/fazendo-90/internal/services"
	rosterws "github.com/Glivan2903/fazendo-90/internal/websocket"
)

func RegisterRoutes(
	app *fiber.App,
	cfg *config.Config,
	db *pgxpool.Pool,
	hub *rosterws.Hub,
	publisher events.EventPublisher,
) {
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	classRepo := repository.NewClassRepository(db)
	checkInRepo := repository.NewCheckInRepository(db)
	programRepo := repository.NewProgramRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	billingRepo := repository.NewBillingRepository(db)

	var avatarStorage services.AvatarStorage
	if cfg.StorageConfigured() {
		avatarStorage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	bookingService := services.NewBookingService(txManager, classRepo, checkInRepo, publisher, hub, services.BookingConfig{
		DemoMode: cfg.DemoMode,
		Location: cfg.Location(),
	})
	scheduleService := services.NewScheduleService(txManager, classRepo, programRepo, coachRepo)
	authService := services.NewAuthService(txManager, userRepo, profileRepo, cfg.JWTSecret)
	profileService := services.NewProfileService(profileRepo, avatarStorage)
	billingService := services.NewBillingService(txManager, billingRepo)

	classHandler := handlers.NewClassHandler(bookingService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(profileService)
	billingHandler := handlers.NewBillingHandler(billingService)
	rosterHandler := handlers.NewRosterHandler(hub, bookingService.Today)

	app.Get("/health", healthHandler(db))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	v1 := api.Group("/v1")
	requireAuth := middleware.AuthRequired(cfg.JWTSecret)

	classes := v1.Group("/classes")
	classes.Get("", middleware.OptionalAuth(cfg.JWTSecret), classHandler.ListClasses)
	classes.Get("/:id", middleware.OptionalAuth(cfg.JWTSecret), classHandler.GetClass)

	checkIns := classes.Group("/:id/checkin", checkInLimiter(cfg.CheckInRateLimit), requireAuth)
	checkIns.Post("", classHandler.CheckIn)
	checkIns.Delete("", classHandler.CancelCheckIn)
	checkIns.Post("/change", classHandler.ChangeCheckIn)

	profile := v1.Group("/profile", requireAuth)
	profile.Get("", profileHandler.GetProfile)
	profile.Put("", profileHandler.UpdateProfile)
	profile.Post("/avatar", profileHandler.UploadAvatar)

	billing := v1.Group("/billing", requireAuth)
	billing.Get("/subscriptions", billingHandler.MySubscriptions)
	billing.Get("/invoices", billingHandler.MyInvoices)
	billing.Get("/payments", billingHandler.MyPayments)

	staff := v1.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin, models.RoleCoach))
	staff.Post("/classes", scheduleHandler.CreateClass)
	staff.Put("/classes/:id", scheduleHandler.UpdateClass)
	staff.Delete("/classes/:id", scheduleHandler.DeleteClass)
	staff.Get("/programs", scheduleHandler.ListPrograms)
	staff.Post("/programs", scheduleHandler.CreateProgram)
	staff.Get("/coaches", scheduleHandler.ListCoaches)

	adminBilling := v1.Group("/admin/billing", requireAuth, middleware.RequireRole(models.RoleAdmin))
	adminBilling.Get("/subscriptions", billingHandler.ListSubscriptions)
	adminBilling.Post("/subscriptions", billingHandler.CreateSubscription)
	adminBilling.Get("/invoices", billingHandler.ListInvoices)
	adminBilling.Post("/invoices", billingHandler.CreateInvoice)
	adminBilling.Get("/payments", billingHandler.ListPayments)
	adminBilling.Post("/payments", billingHandler.RecordPayment)

	v1.Get("/ws/roster", rosterHandler.Upgrade, websocket.New(rosterHandler.Stream))
}

// checkInLimiter throttles booking mutations per user, or per IP for
// anonymous callers.
func checkInLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 30
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if token := c.Get("Authorization"); token != "" {
				return token
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Muitas tentativas, aguarde um instante",
			})
		},
	})
}

func healthHandler(db *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil {
			return c.JSON(fiber.Map{"status": "ok"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}
