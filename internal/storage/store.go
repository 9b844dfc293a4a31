package storage

import (
	"errors"
	"time"

	"github.com/addisride/addisride-backend/internal/models"
)

// ErrNotFound is returned by lookups when no matching record exists. Both
// implementations return it so callers can distinguish missing data from
// infrastructure failures.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations used by the services. Backed by
// Postgres via GORM in production and by an in-memory map store in tests and
// local development (USE_MEMORY_STORE=true).
type Store interface {
	// Passenger operations
	CreatePassenger(p *models.Passenger) (*models.Passenger, error)
	GetPassenger(id uint) (*models.Passenger, error)
	GetPassengerByPhone(phone string) (*models.Passenger, error)
	UpdatePassenger(p *models.Passenger) error

	// Driver operations
	CreateDriver(d *models.Driver) (*models.Driver, error)
	GetDriver(id uint) (*models.Driver, error)
	GetDriverByPhone(phone string) (*models.Driver, error)
	UpdateDriver(d *models.Driver) error
	GetDriversPendingDocuments() ([]*models.Driver, error)
	GetDriversWithInsuranceExpiring(before time.Time) ([]*models.Driver, error)

	// OTP operations. Rows are keyed by (phone, referenceType, referenceID);
	// PurgeStaleOTPs implements the purge-on-access rule for that key.
	CreateOTP(o *models.OTP) (*models.OTP, error)
	GetOTPByStatus(phone, referenceType string, referenceID uint, status string) (*models.OTP, error)
	UpdateOTP(o *models.OTP) error
	DeleteOTP(id uint) error
	DeleteOTPsForKey(phone, referenceType string, referenceID uint) error
	PurgeStaleOTPs(phone, referenceType string, referenceID uint, now time.Time) error

	// Pricing operations
	CreatePricingPolicy(p *models.PricingPolicy) (*models.PricingPolicy, error)
	GetPricingPolicy(id uint) (*models.PricingPolicy, error)
	UpdatePricingPolicy(p *models.PricingPolicy) error
	ListPricingPolicies() ([]*models.PricingPolicy, error)
	// GetActivePricing returns the most-recently-updated active policy for
	// the vehicle type, or ErrNotFound.
	GetActivePricing(vehicleType string) (*models.PricingPolicy, error)

	// Booking operations
	CreateBooking(b *models.Booking) (*models.Booking, error)
	GetBooking(id string) (*models.Booking, error)
	UpdateBooking(b *models.Booking) error

	// Refresh token operations
	CreateRefreshToken(t *models.RefreshToken) (*models.RefreshToken, error)
	GetActiveRefreshTokens(userType string, userID uint) ([]*models.RefreshToken, error)
	GetActiveRefreshTokensByType(userType string) ([]*models.RefreshToken, error)
	RevokeRefreshToken(id uint, at time.Time) error

	// Dispute operations
	CreateDispute(d *models.Dispute) (*models.Dispute, error)
	GetDispute(id uint) (*models.Dispute, error)
	ListDisputes() ([]*models.Dispute, error)
	UpdateDispute(d *models.Dispute) error
	CreateDisputeReply(r *models.DisputeReply) (*models.DisputeReply, error)
}
