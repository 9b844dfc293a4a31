package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/addisride/addisride-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM/Postgres.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open GORM connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Passenger operations

func (s *DatabaseStore) CreatePassenger(p *models.Passenger) (*models.Passenger, error) {
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *DatabaseStore) GetPassenger(id uint) (*models.Passenger, error) {
	var p models.Passenger
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (s *DatabaseStore) GetPassengerByPhone(phone string) (*models.Passenger, error) {
	var p models.Passenger
	if err := s.db.Where("phone = ?", phone).First(&p).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (s *DatabaseStore) UpdatePassenger(p *models.Passenger) error {
	return s.db.Save(p).Error
}

// Driver operations

func (s *DatabaseStore) CreateDriver(d *models.Driver) (*models.Driver, error) {
	if err := s.db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DatabaseStore) GetDriver(id uint) (*models.Driver, error) {
	var d models.Driver
	if err := s.db.First(&d, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &d, nil
}

func (s *DatabaseStore) GetDriverByPhone(phone string) (*models.Driver, error) {
	var d models.Driver
	if err := s.db.Where("phone = ?", phone).First(&d).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &d, nil
}

func (s *DatabaseStore) UpdateDriver(d *models.Driver) error {
	return s.db.Save(d).Error
}

func (s *DatabaseStore) GetDriversPendingDocuments() ([]*models.Driver, error) {
	var drivers []*models.Driver
	err := s.db.
		Where("status = ? OR document_status = ? OR document_status IS NULL OR document_status = ''",
			models.StatusPending, models.DocumentStatusPending).
		Order("id").
		Find(&drivers).Error
	return drivers, err
}

func (s *DatabaseStore) GetDriversWithInsuranceExpiring(before time.Time) ([]*models.Driver, error) {
	var drivers []*models.Driver
	err := s.db.
		Where("insurance_expiry IS NOT NULL AND insurance_expiry < ?", before).
		Order("id").
		Find(&drivers).Error
	return drivers, err
}

// OTP operations

func (s *DatabaseStore) CreateOTP(o *models.OTP) (*models.OTP, error) {
	if err := s.db.Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

func (s *DatabaseStore) GetOTPByStatus(phone, referenceType string, referenceID uint, status string) (*models.OTP, error) {
	var o models.OTP
	err := s.db.
		Where("phone = ? AND reference_type = ? AND reference_id = ? AND status = ?",
			phone, referenceType, referenceID, status).
		First(&o).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &o, nil
}

func (s *DatabaseStore) UpdateOTP(o *models.OTP) error {
	return s.db.Save(o).Error
}

func (s *DatabaseStore) DeleteOTP(id uint) error {
	return s.db.Unscoped().Delete(&models.OTP{}, id).Error
}

func (s *DatabaseStore) DeleteOTPsForKey(phone, referenceType string, referenceID uint) error {
	return s.db.Unscoped().
		Where("phone = ? AND reference_type = ? AND reference_id = ?", phone, referenceType, referenceID).
		Delete(&models.OTP{}).Error
}

func (s *DatabaseStore) PurgeStaleOTPs(phone, referenceType string, referenceID uint, now time.Time) error {
	return s.db.Unscoped().
		Where("phone = ? AND reference_type = ? AND reference_id = ?", phone, referenceType, referenceID).
		Where("expires_at < ? OR status IN ?", now, []string{models.OTPStatusVerified, models.OTPStatusExpired}).
		Delete(&models.OTP{}).Error
}

// Pricing operations

func (s *DatabaseStore) CreatePricingPolicy(p *models.PricingPolicy) (*models.PricingPolicy, error) {
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *DatabaseStore) GetPricingPolicy(id uint) (*models.PricingPolicy, error) {
	var p models.PricingPolicy
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (s *DatabaseStore) UpdatePricingPolicy(p *models.PricingPolicy) error {
	return s.db.Save(p).Error
}

func (s *DatabaseStore) ListPricingPolicies() ([]*models.PricingPolicy, error) {
	var policies []*models.PricingPolicy
	err := s.db.Order("id").Find(&policies).Error
	return policies, err
}

func (s *DatabaseStore) GetActivePricing(vehicleType string) (*models.PricingPolicy, error) {
	var p models.PricingPolicy
	err := s.db.
		Where("vehicle_type = ? AND is_active = ?", models.NormalizeVehicleType(vehicleType), true).
		Order("updated_at DESC").
		First(&p).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

// Booking operations

func (s *DatabaseStore) CreateBooking(b *models.Booking) (*models.Booking, error) {
	if err := s.db.Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (s *DatabaseStore) GetBooking(id string) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.Where("id = ?", id).First(&b).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &b, nil
}

func (s *DatabaseStore) UpdateBooking(b *models.Booking) error {
	return s.db.Save(b).Error
}

// Refresh token operations

func (s *DatabaseStore) CreateRefreshToken(t *models.RefreshToken) (*models.RefreshToken, error) {
	if err := s.db.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DatabaseStore) GetActiveRefreshTokens(userType string, userID uint) ([]*models.RefreshToken, error) {
	var tokens []*models.RefreshToken
	err := s.db.
		Where("user_type = ? AND user_id = ? AND revoked_at IS NULL", userType, userID).
		Find(&tokens).Error
	return tokens, err
}

func (s *DatabaseStore) GetActiveRefreshTokensByType(userType string) ([]*models.RefreshToken, error) {
	var tokens []*models.RefreshToken
	err := s.db.
		Where("user_type = ? AND revoked_at IS NULL", userType).
		Find(&tokens).Error
	return tokens, err
}

func (s *DatabaseStore) RevokeRefreshToken(id uint, at time.Time) error {
	return s.db.Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("revoked_at", at).Error
}

// Dispute operations

func (s *DatabaseStore) CreateDispute(d *models.Dispute) (*models.Dispute, error) {
	if err := s.db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DatabaseStore) GetDispute(id uint) (*models.Dispute, error) {
	var d models.Dispute
	if err := s.db.Preload("Replies").First(&d, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &d, nil
}

func (s *DatabaseStore) ListDisputes() ([]*models.Dispute, error) {
	var disputes []*models.Dispute
	err := s.db.Order("id").Find(&disputes).Error
	return disputes, err
}

func (s *DatabaseStore) UpdateDispute(d *models.Dispute) error {
	return s.db.Omit("Replies").Save(d).Error
}

func (s *DatabaseStore) CreateDisputeReply(r *models.DisputeReply) (*models.DisputeReply, error) {
	if err := s.db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}
