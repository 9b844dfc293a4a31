package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/middleware"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

// PricingHandler owns fare recalculation, pricing policy management, and
// booking creation.
type PricingHandler struct {
	store       storage.Store
	pricing     *services.PricingService
	broadcaster services.Broadcaster
}

// NewPricingHandler creates the pricing endpoint group.
func NewPricingHandler(store storage.Store, pricing *services.PricingService, broadcaster services.Broadcaster) *PricingHandler {
	if broadcaster == nil {
		broadcaster = services.NopBroadcaster{}
	}
	return &PricingHandler{store: store, pricing: pricing, broadcaster: broadcaster}
}

// Recalculate recomputes and persists a booking's fare.
func (h *PricingHandler) Recalculate(c *fiber.Ctx) error {
	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := c.BodyParser(&req); err != nil || req.BookingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bookingId is required"})
	}

	result, err := h.pricing.Recalculate(req.BookingID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

type policyRequest struct {
	VehicleType      string   `json:"vehicleType"`
	BaseFare         *float64 `json:"baseFare"`
	PerKm            *float64 `json:"perKm"`
	PerMinute        *float64 `json:"perMinute"`
	WaitingPerMinute *float64 `json:"waitingPerMinute"`
	SurgeMultiplier  *float64 `json:"surgeMultiplier"`
	MinimumFare      *float64 `json:"minimumFare"`
	MaximumFare      *float64 `json:"maximumFare"`
	IsActive         *bool    `json:"isActive"`
	Description      *string  `json:"description"`
}

// CreatePolicy registers a pricing policy for a vehicle type.
func (h *PricingHandler) CreatePolicy(c *fiber.Ctx) error {
	var req policyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.VehicleType == "" || req.BaseFare == nil || req.PerKm == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "vehicleType, baseFare, and perKm are required",
		})
	}
	if !models.IsAllowedVehicleType(req.VehicleType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid vehicle type",
			"allowed": models.AllowedVehicleTypes,
		})
	}

	policy := &models.PricingPolicy{
		VehicleType:     models.NormalizeVehicleType(req.VehicleType),
		BaseFare:        *req.BaseFare,
		PerKm:           *req.PerKm,
		SurgeMultiplier: 1,
		IsActive:        true,
	}
	applyPolicyFields(policy, &req)

	created, err := h.store.CreatePricingPolicy(policy)
	if err != nil {
		return respondServiceError(c, err)
	}
	h.broadcaster.Broadcast(services.PricingUpdateEvent, created)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Pricing policy created", "policy": created})
}

// UpdatePolicy applies a partial update to a policy and broadcasts it.
func (h *PricingHandler) UpdatePolicy(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid policy id"})
	}
	var req policyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	policy, err := h.store.GetPricingPolicy(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if req.VehicleType != "" {
		if !models.IsAllowedVehicleType(req.VehicleType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid vehicle type",
				"allowed": models.AllowedVehicleTypes,
			})
		}
		policy.VehicleType = models.NormalizeVehicleType(req.VehicleType)
	}
	if req.BaseFare != nil {
		policy.BaseFare = *req.BaseFare
	}
	if req.PerKm != nil {
		policy.PerKm = *req.PerKm
	}
	applyPolicyFields(policy, &req)

	if err := h.store.UpdatePricingPolicy(policy); err != nil {
		return respondServiceError(c, err)
	}
	h.broadcaster.Broadcast(services.PricingUpdateEvent, policy)
	return c.JSON(fiber.Map{"message": "Pricing policy updated", "policy": policy})
}

func applyPolicyFields(policy *models.PricingPolicy, req *policyRequest) {
	if req.PerMinute != nil {
		policy.PerMinute = *req.PerMinute
	}
	if req.WaitingPerMinute != nil {
		policy.WaitingPerMinute = *req.WaitingPerMinute
	}
	if req.SurgeMultiplier != nil {
		policy.SurgeMultiplier = *req.SurgeMultiplier
	}
	if req.MinimumFare != nil {
		policy.MinimumFare = *req.MinimumFare
	}
	if req.MaximumFare != nil {
		policy.MaximumFare = *req.MaximumFare
	}
	if req.IsActive != nil {
		policy.IsActive = *req.IsActive
	}
	if req.Description != nil {
		policy.Description = *req.Description
	}
}

// ListPolicies returns every pricing policy.
func (h *PricingHandler) ListPolicies(c *fiber.Ctx) error {
	policies, err := h.store.ListPricingPolicies()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(policies), "policies": policies})
}

// CreateBooking registers a trip request for the authenticated passenger
// and computes the initial fare estimate when a policy exists.
func (h *PricingHandler) CreateBooking(c *fiber.Ctx) error {
	var req struct {
		PickupLat   float64 `json:"pickupLat"`
		PickupLng   float64 `json:"pickupLng"`
		DropoffLat  float64 `json:"dropoffLat"`
		DropoffLng  float64 `json:"dropoffLng"`
		VehicleType string  `json:"vehicleType"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.VehicleType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "vehicleType is required"})
	}
	if !models.IsAllowedVehicleType(req.VehicleType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid vehicle type",
			"allowed": models.AllowedVehicleTypes,
		})
	}

	booking, err := h.store.CreateBooking(&models.Booking{
		PassengerID: middleware.UserID(c),
		PickupLat:   req.PickupLat,
		PickupLng:   req.PickupLng,
		DropoffLat:  req.DropoffLat,
		DropoffLng:  req.DropoffLng,
		VehicleType: models.NormalizeVehicleType(req.VehicleType),
		Status:      "requested",
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	// Initial estimate is best-effort; a missing policy leaves the
	// booking unpriced rather than failing creation.
	if result, err := h.pricing.Recalculate(booking.ID); err == nil {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": result, "id": booking.ID})
	} else if !errors.Is(err, services.ErrNoActivePricing) {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": booking})
}

// GetBooking returns a booking by ID.
func (h *PricingHandler) GetBooking(c *fiber.Ctx) error {
	booking, err := h.store.GetBooking(c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"booking": booking})
}
