package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/addisride/addisride-backend/database"
	"github.com/addisride/addisride-backend/internal/handlers"
	"github.com/addisride/addisride-backend/internal/jobs"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/routes"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
	"github.com/addisride/addisride-backend/internal/ttlstore"
	"github.com/addisride/addisride-backend/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	store := buildStore()
	notifier := buildNotifier()

	cache := ttlstore.NewMemoryStore()
	sweeperStop := make(chan struct{})
	ttlstore.StartSweeper(cache, 5*time.Minute, sweeperStop)

	hub := ws.NewHub()

	tokenService := services.NewTokenService(store)
	otpService := services.NewOTPService(store, notifier, services.DefaultOTPConfig())
	driverService := services.NewDriverService(store)
	pricingService := services.NewPricingService(store, hub)

	reminders := jobs.NewReminderJob(store, notifier, cache)
	reminders.Start()

	app := fiber.New(fiber.Config{
		AppName:      "AddisRide Backend",
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	routes.Setup(app, routes.Deps{
		Auth:    handlers.NewAuthHandler(store, otpService, tokenService),
		Driver:  handlers.NewDriverHandler(store, driverService, os.Getenv("UPLOAD_DIR")),
		Admin:   handlers.NewAdminHandler(store, driverService),
		Pricing: handlers.NewPricingHandler(store, pricingService, hub),
		Dispute: handlers.NewDisputeHandler(store),
		Tokens:  tokenService,
		Limiter: cache,
		Hub:     hub,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	log.Printf("Server listening on port %s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	reminders.Stop()
	close(sweeperStop)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// buildStore picks the persistence backend. USE_MEMORY_STORE=true keeps
// everything in process memory for local development.
func buildStore() storage.Store {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("Using in-memory store")
		return storage.NewMemoryStore()
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Passenger{},
		&models.Driver{},
		&models.OTP{},
		&models.PricingPolicy{},
		&models.Booking{},
		&models.RefreshToken{},
		&models.Dispute{},
		&models.DisputeReply{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	return storage.NewDatabaseStore(db)
}

// buildNotifier prefers Twilio and falls back to logging when credentials
// are not configured.
func buildNotifier() services.Notifier {
	notifier, err := services.NewTwilioNotifier()
	if err != nil {
		log.Printf("Twilio not configured (%v), SMS will be logged only", err)
		return services.LogNotifier{}
	}
	log.Println("Twilio SMS notifier enabled")
	return notifier
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	if code == fiber.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
