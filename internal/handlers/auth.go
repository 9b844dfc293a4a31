package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/phone"
	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
)

// AuthHandler owns the OTP and token endpoints for passengers and drivers.
type AuthHandler struct {
	store  storage.Store
	otp    *services.OTPService
	tokens *services.TokenService
}

// NewAuthHandler creates the auth endpoint group.
func NewAuthHandler(store storage.Store, otp *services.OTPService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{store: store, otp: otp, tokens: tokens}
}

// RequestOTP issues a verification code to the given phone. A passenger
// account is auto-provisioned on first contact so verification can attach
// to it.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil || req.Phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone number is required",
		})
	}

	canonical, err := phone.NormalizeStrict(req.Phone)
	if err != nil {
		return respondServiceError(c, services.ErrInvalidPhoneFormat)
	}

	if _, err := h.store.GetPassengerByPhone(canonical); errors.Is(err, storage.ErrNotFound) {
		password, hashErr := services.HashPassword(services.RandomPassword())
		if hashErr != nil {
			return respondServiceError(c, hashErr)
		}
		digits := phone.Digits(canonical)
		if _, err := h.store.CreatePassenger(&models.Passenger{
			Name:     "Passenger " + digits[len(digits)-4:],
			Phone:    canonical,
			Password: password,
		}); err != nil {
			return respondServiceError(c, err)
		}
		log.Printf("[AUTH] auto-provisioned passenger for %s", canonical)
	}

	result, err := h.otp.Issue(c.Context(), services.OTPRequest{Phone: canonical})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":     "OTP sent successfully",
		"phoneNumber": result.PhoneNumber,
		"expiresIn":   result.ExpiresIn,
	})
}

// VerifyOTP checks the submitted code, marks the passenger OTP-registered,
// and returns a token pair.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil || req.Phone == "" || req.OTP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone number and OTP are required",
		})
	}

	canonical, err := phone.NormalizeStrict(req.Phone)
	if err != nil {
		return respondServiceError(c, services.ErrInvalidPhoneFormat)
	}

	if err := h.otp.Verify(c.Context(), services.OTPRequest{Phone: canonical}, req.OTP); err != nil {
		return respondServiceError(c, err)
	}

	passenger, err := h.store.GetPassengerByPhone(canonical)
	if err != nil {
		return respondServiceError(c, err)
	}
	if !passenger.OTPRegistered {
		passenger.OTPRegistered = true
		if err := h.store.UpdatePassenger(passenger); err != nil {
			return respondServiceError(c, err)
		}
	}

	accessToken, err := h.tokens.GenerateAccessToken(passenger.ID, models.PartyPassenger, passenger.Phone)
	if err != nil {
		return respondServiceError(c, err)
	}
	refreshToken, err := h.tokens.IssueRefreshToken(models.PartyPassenger, passenger.ID, c.Get("User-Agent"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "OTP verified successfully",
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"passenger":    passenger,
	})
}

// Login authenticates a passenger or driver by phone and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
		UserType string `json:"userType"`
	}
	if err := c.BodyParser(&req); err != nil || req.Phone == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Phone number and password are required",
		})
	}
	if req.UserType == "" {
		req.UserType = models.PartyPassenger
	}

	canonical := phone.Normalize(req.Phone)

	var (
		userID      uint
		userPhone   string
		storedHash  string
		accountBody interface{}
	)
	switch req.UserType {
	case models.PartyPassenger:
		p, err := h.store.GetPassengerByPhone(canonical)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
		}
		userID, userPhone, storedHash, accountBody = p.ID, p.Phone, p.Password, p
	case models.PartyDriver:
		d, err := h.store.GetDriverByPhone(canonical)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Account not found"})
		}
		userID, userPhone, storedHash, accountBody = d.ID, d.Phone, d.Password, d
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userType must be passenger or driver",
		})
	}

	if !services.CheckPassword(storedHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	accessToken, err := h.tokens.GenerateAccessToken(userID, req.UserType, userPhone)
	if err != nil {
		return respondServiceError(c, err)
	}
	refreshToken, err := h.tokens.IssueRefreshToken(req.UserType, userID, c.Get("User-Agent"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Login successful",
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		req.UserType:   accountBody,
	})
}

// RefreshToken exchanges a valid refresh token for a fresh pair, revoking
// the old one.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		UserType     string `json:"userType"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "refresh_token is required",
		})
	}
	if req.UserType == "" {
		req.UserType = models.PartyPassenger
	}

	matched, err := h.tokens.FindRefreshToken(req.UserType, req.RefreshToken)
	if err != nil {
		status := fiber.StatusUnauthorized
		if errors.Is(err, services.ErrRefreshTokenExpired) {
			status = fiber.StatusForbidden
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	userPhone, err := h.lookupPhone(req.UserType, matched.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}

	rotated, err := h.tokens.RotateRefreshToken(matched)
	if err != nil {
		return respondServiceError(c, err)
	}
	accessToken, err := h.tokens.GenerateAccessToken(matched.UserID, matched.UserType, userPhone)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token":  accessToken,
		"refresh_token": rotated,
	})
}

func (h *AuthHandler) lookupPhone(userType string, userID uint) (string, error) {
	switch userType {
	case models.PartyPassenger:
		p, err := h.store.GetPassenger(userID)
		if err != nil {
			return "", err
		}
		return p.Phone, nil
	case models.PartyDriver:
		d, err := h.store.GetDriver(userID)
		if err != nil {
			return "", err
		}
		return d.Phone, nil
	default:
		return "", fmt.Errorf("unknown user type %q", userType)
	}
}
