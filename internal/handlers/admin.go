package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/phone"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

// AdminHandler owns the back-office endpoints: driver review, passenger
// management, and reward points.
type AdminHandler struct {
	store   storage.Store
	drivers *services.DriverService
}

// NewAdminHandler creates the admin endpoint group.
func NewAdminHandler(store storage.Store, drivers *services.DriverService) *AdminHandler {
	return &AdminHandler{store: store, drivers: drivers}
}

func (h *AdminHandler) driverID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, errors.New("invalid driver id")
	}
	return uint(id), nil
}

// SetDriverStatus applies an admission status chosen by an admin.
func (h *AdminHandler) SetDriverStatus(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status is required"})
	}

	driver, err := h.drivers.SetStatus(id, req.Status)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Driver status updated", "driver": driver})
}

// ApproveDriver admits the driver after the full approval check.
func (h *AdminHandler) ApproveDriver(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	driver, err := h.drivers.Approve(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Driver approved", "driver": driver})
}

// ApproveDocuments accepts the driver's current document set.
func (h *AdminHandler) ApproveDocuments(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	driver, err := h.drivers.ApproveDocuments(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Documents approved", "driver": driver})
}

// RejectDocuments rejects the driver's current document set.
func (h *AdminHandler) RejectDocuments(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	driver, err := h.drivers.RejectDocuments(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Documents rejected", "driver": driver})
}

// PendingDocuments lists drivers awaiting document review.
func (h *AdminHandler) PendingDocuments(c *fiber.Ctx) error {
	drivers, err := h.store.GetDriversPendingDocuments()
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(drivers), "drivers": drivers})
}

// AwardDriverPoints adds (or deducts) reward points on a driver.
func (h *AdminHandler) AwardDriverPoints(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	var req struct {
		Points int `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil || req.Points == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points must be a non-zero number"})
	}

	driver, err := h.store.GetDriver(id)
	if err != nil {
		return respondServiceError(c, err)
	}
	driver.RewardPoints += req.Points
	if err := h.store.UpdateDriver(driver); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Reward points updated",
		"rewardPoints": driver.RewardPoints,
	})
}

// AwardPassengerPoints adds (or deducts) reward points on a passenger.
func (h *AdminHandler) AwardPassengerPoints(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid passenger id"})
	}
	var req struct {
		Points int `json:"points"`
	}
	if err := c.BodyParser(&req); err != nil || req.Points == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points must be a non-zero number"})
	}

	passenger, err := h.store.GetPassenger(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	passenger.RewardPoints += req.Points
	if err := h.store.UpdatePassenger(passenger); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Reward points updated",
		"rewardPoints": passenger.RewardPoints,
	})
}

// UpdateDriver applies an admin edit to a driver. Rating is never settable
// through this endpoint; vehicleType and driverStatus are validated against
// their enums.
func (h *AdminHandler) UpdateDriver(c *fiber.Ctx) error {
	id, err := h.driverID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		Name          *string `json:"name"`
		Email         *string `json:"email"`
		VehicleType   *string `json:"vehicleType"`
		CarName       *string `json:"carName"`
		CarPlate      *string `json:"carPlate"`
		CarModel      *string `json:"carModel"`
		CarColor      *string `json:"carColor"`
		DriverStatus  *string `json:"driverStatus"`
		Wallet        *float64 `json:"wallet"`
		BankAccountNo *string `json:"bankAccountNo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	driver, err := h.store.GetDriver(id)
	if err != nil {
		return respondServiceError(c, err)
	}

	if req.VehicleType != nil {
		if !models.IsAllowedVehicleType(*req.VehicleType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid vehicle type",
				"allowed": models.AllowedVehicleTypes,
			})
		}
		driver.VehicleType = models.NormalizeVehicleType(*req.VehicleType)
	}
	if req.DriverStatus != nil {
		switch *req.DriverStatus {
		case models.DriverStatusActive, models.DriverStatusInactive, models.DriverStatusSuspended:
			driver.DriverStatus = *req.DriverStatus
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "driverStatus must be active, inactive, or suspended",
			})
		}
	}
	if req.Name != nil {
		driver.Name = *req.Name
	}
	if req.Email != nil {
		driver.Email = *req.Email
	}
	if req.CarName != nil {
		driver.CarName = *req.CarName
	}
	if req.CarPlate != nil {
		driver.CarPlate = *req.CarPlate
	}
	if req.CarModel != nil {
		driver.CarModel = *req.CarModel
	}
	if req.CarColor != nil {
		driver.CarColor = *req.CarColor
	}
	if req.Wallet != nil {
		driver.Wallet = *req.Wallet
	}
	if req.BankAccountNo != nil {
		driver.BankAccountNo = *req.BankAccountNo
	}

	if err := h.store.UpdateDriver(driver); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Driver updated", "driver": driver})
}

// CreatePassenger registers a passenger account from the back office.
func (h *AdminHandler) CreatePassenger(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and phone are required"})
	}

	canonical := phone.Normalize(req.Phone)
	if _, err := h.store.GetPassengerByPhone(canonical); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A passenger with this phone number already exists",
		})
	}

	if req.Password == "" {
		req.Password = services.RandomPassword()
	}
	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}

	passenger, err := h.store.CreatePassenger(&models.Passenger{
		Name:     req.Name,
		Phone:    canonical,
		Email:    req.Email,
		Password: hashed,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Passenger created",
		"passenger": passenger,
	})
}
