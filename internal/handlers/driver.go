package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/addisride/addisride-backend/internal/middleware"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

// DriverHandler owns driver self-service and document upload endpoints.
type DriverHandler struct {
	store     storage.Store
	drivers   *services.DriverService
	uploadDir string
}

// NewDriverHandler creates the driver endpoint group. uploadDir is where
// multipart document files land.
func NewDriverHandler(store storage.Store, drivers *services.DriverService, uploadDir string) *DriverHandler {
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	return &DriverHandler{store: store, drivers: drivers, uploadDir: uploadDir}
}

// GetProfile returns the authenticated driver's own record.
func (h *DriverHandler) GetProfile(c *fiber.Ctx) error {
	driver, err := h.store.GetDriver(middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"driver": driver})
}

// profileUpdateRequest carries the self-editable subset of driver fields.
// Status axes, verification, rating, and wallet are admin-only and absent
// here on purpose.
type profileUpdateRequest struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	CarName           *string `json:"carName"`
	VehicleType       *string `json:"vehicleType"`
	CarPlate          *string `json:"carPlate"`
	CarModel          *string `json:"carModel"`
	CarColor          *string `json:"carColor"`
	BankAccountNo     *string `json:"bankAccountNo"`
	PaymentPreference *int    `json:"paymentPreference"`
	EmergencyContacts *string `json:"emergencyContacts"`
}

// UpdateProfile applies a partial update to the self-editable fields.
func (h *DriverHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	driver, err := h.store.GetDriver(middleware.UserID(c))
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
	if req.BankAccountNo != nil {
		driver.BankAccountNo = *req.BankAccountNo
	}
	if req.PaymentPreference != nil {
		driver.PaymentPreference = req.PaymentPreference
	}
	if req.EmergencyContacts != nil {
		driver.EmergencyContacts = *req.EmergencyContacts
	}

	if err := h.store.UpdateDriver(driver); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated", "driver": driver})
}

// ChangePassword verifies the current password before storing a new hash.
func (h *DriverHandler) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Current and new password are required",
		})
	}
	if len(req.NewPassword) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "New password must be at least 6 characters",
		})
	}

	driver, err := h.store.GetDriver(middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !services.CheckPassword(driver.Password, req.CurrentPassword) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hashed, err := services.HashPassword(req.NewPassword)
	if err != nil {
		return respondServiceError(c, err)
	}
	driver.Password = hashed
	if err := h.store.UpdateDriver(driver); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// ToggleAvailability flips the driver's online flag.
func (h *DriverHandler) ToggleAvailability(c *fiber.Ctx) error {
	driver, err := h.drivers.ToggleAvailability(middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "Availability updated",
		"availability": driver.Availability,
		"status":       driver.Status,
		"driverStatus": driver.DriverStatus,
	})
}

// BookingEligibility reports whether the driver may accept bookings. An
// ineligible driver gets a 403 carrying the blocking axis and any missing
// fields; clients branch on the status code, not the body.
func (h *DriverHandler) BookingEligibility(c *fiber.Ctx) error {
	eligibility, err := h.drivers.BookingEligibility(middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !eligibility.Eligible {
		resp := fiber.Map{
			"canAcceptBookings": false,
			"message":           eligibility.Reason,
			"status":            eligibility.Status,
			"driverStatus":      eligibility.DriverStatus,
		}
		if len(eligibility.Missing) > 0 {
			resp["missing"] = eligibility.Missing
		}
		return c.Status(fiber.StatusForbidden).JSON(resp)
	}
	return c.JSON(fiber.Map{
		"canAcceptBookings": true,
		"status":            eligibility.Status,
		"driverStatus":      eligibility.DriverStatus,
	})
}

// documentFormFields maps multipart field names to themselves; only these
// are accepted on upload.
var documentFormFields = []string{"nationalId", "vehicleRegistration", "insurance", "document", "license"}

// UploadDocuments stores the uploaded files under randomized names and
// merges them into the driver's document set.
func (h *DriverHandler) UploadDocuments(c *fiber.Ctx) error {
	driverID, err := c.ParamsInt("id")
	if err != nil || driverID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid driver id"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Multipart form required"})
	}

	saved := map[string]string{}
	for _, field := range documentFormFields {
		fh := firstFile(form, field)
		if fh == nil {
			continue
		}
		filename := uuid.NewString() + filepath.Ext(fh.Filename)
		if err := c.SaveFile(fh, filepath.Join(h.uploadDir, filename)); err != nil {
			return respondServiceError(c, fmt.Errorf("saving %s: %w", field, err))
		}
		saved[field] = filename
	}

	driver, err := h.drivers.UploadDocuments(uint(driverID), saved)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Documents uploaded. Your account is pending review.",
		"driver":  driver,
		"files":   saved,
	})
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
