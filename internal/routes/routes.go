package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/addisride/addisride-backend/internal/handlers"
	"github.com/addisride/addisride-backend/internal/middleware"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/ttlstore"
	"github.com/addisride/addisride-backend/internal/ws"
)

// Deps carries everything the route table needs.
type Deps struct {
	Auth    *handlers.AuthHandler
	Driver  *handlers.DriverHandler
	Admin   *handlers.AdminHandler
	Pricing *handlers.PricingHandler
	Dispute *handlers.DisputeHandler
	Tokens  *services.TokenService
	Limiter ttlstore.Store
	Hub     *ws.Hub
}

// Setup mounts the full HTTP surface on the app.
func Setup(app *fiber.App, d Deps) {
	app.Get("/health", handlers.Health)

	protected := middleware.Protected(d.Tokens)
	driverOnly := middleware.RequireType(models.PartyDriver)
	adminOnly := middleware.RequireType(models.PartyAdmin)
	passengerOnly := middleware.RequireType(models.PartyPassenger)

	api := app.Group("/api")

	// Auth: rate limited per IP so the OTP cooldown cannot be probed by
	// hammering the endpoint.
	auth := api.Group("/auth", middleware.RateLimit(d.Limiter, 10, time.Minute))
	auth.Post("/request-otp", d.Auth.RequestOTP)
	auth.Post("/verify-otp", d.Auth.VerifyOTP)
	auth.Post("/login", d.Auth.Login)
	auth.Post("/refresh-token", d.Auth.RefreshToken)

	drivers := api.Group("/drivers")
	profile := drivers.Group("/profile/me", protected, driverOnly)
	profile.Get("/", d.Driver.GetProfile)
	profile.Put("/", d.Driver.UpdateProfile)
	profile.Post("/change-password", d.Driver.ChangePassword)
	profile.Post("/toggle-availability", d.Driver.ToggleAvailability)
	drivers.Get("/booking-eligibility", protected, driverOnly, d.Driver.BookingEligibility)
	drivers.Post("/:id/upload-documents", protected, d.Driver.UploadDocuments)

	bookings := api.Group("/bookings", protected)
	bookings.Post("/", passengerOnly, d.Pricing.CreateBooking)
	bookings.Get("/:id", d.Pricing.GetBooking)

	pricing := api.Group("/pricing")
	pricing.Post("/recalculate", protected, d.Pricing.Recalculate)
	pricing.Get("/", d.Pricing.ListPolicies)
	pricing.Post("/", protected, adminOnly, d.Pricing.CreatePolicy)
	pricing.Put("/:id", protected, adminOnly, d.Pricing.UpdatePolicy)

	admin := api.Group("/admin", protected, adminOnly)
	admin.Put("/drivers/:id", d.Admin.UpdateDriver)
	admin.Post("/drivers/:id/status", d.Admin.SetDriverStatus)
	admin.Post("/drivers/:id/approve", d.Admin.ApproveDriver)
	admin.Post("/drivers/:id/documents/approve", d.Admin.ApproveDocuments)
	admin.Post("/drivers/:id/documents/reject", d.Admin.RejectDocuments)
	admin.Get("/drivers/pending-documents", d.Admin.PendingDocuments)
	admin.Post("/drivers/:id/points", d.Admin.AwardDriverPoints)
	admin.Post("/passengers/:id/points", d.Admin.AwardPassengerPoints)
	admin.Post("/passengers", d.Admin.CreatePassenger)

	disputes := api.Group("/disputes", protected)
	disputes.Post("/", d.Dispute.Create)
	disputes.Get("/", d.Dispute.List)
	disputes.Get("/:id", d.Dispute.Get)
	disputes.Post("/:id/replies", d.Dispute.Reply)
	disputes.Put("/:id/status", adminOnly, d.Dispute.UpdateStatus)

	// Websocket upgrade gate, then the pricing event stream.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pricing", websocket.New(d.Hub.Handler()))
}
