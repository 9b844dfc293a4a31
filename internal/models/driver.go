package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/addisride/addisride-backend/internal/phone"
)

// Admission status values. Whether the driver account is allowed to operate
// at all; independent of the operational DriverStatus.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusSuspended = "suspended"
	StatusRejected  = "rejected"
)

// Document review status values.
const (
	DocumentStatusPending  = "pending"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
)

// Operational readiness values.
const (
	DriverStatusActive    = "active"
	DriverStatusInactive  = "inactive"
	DriverStatusSuspended = "suspended"
)

// AllowedVehicleTypes is the vehicle class enum shared by drivers and
// pricing policies.
var AllowedVehicleTypes = []string{"mini", "sedan", "van", "suv", "mpv", "motorbike", "bajaj"}

// IsAllowedVehicleType reports whether v is a known vehicle class. The
// common "motobike" typo is accepted and normalized by NormalizeVehicleType.
func IsAllowedVehicleType(v string) bool {
	v = NormalizeVehicleType(v)
	for _, t := range AllowedVehicleTypes {
		if v == t {
			return true
		}
	}
	return false
}

// NormalizeVehicleType lowercases and trims a vehicle type, fixing the
// historical "motobike" typo.
func NormalizeVehicleType(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "motobike" {
		v = "motorbike"
	}
	return v
}

// Driver represents a driver account with its document set and the three
// status axes governing eligibility.
type Driver struct {
	gorm.Model

	Name     string `json:"name" gorm:"not null"`
	Phone    string `json:"phone" gorm:"not null;index"`
	Password string `json:"-" gorm:"not null"`
	Email    string `json:"email"`

	Wallet       float64 `json:"wallet" gorm:"type:decimal(10,2);default:0"`
	Rating       float64 `json:"rating" gorm:"default:5.0"`
	RewardPoints int     `json:"rewardPoints" gorm:"default:0"`

	// Uploaded document files, stored as blob-store filenames.
	DrivingLicenseFile      string `json:"drivingLicenseFile"`
	Document                string `json:"document"`
	NationalIDFile          string `json:"nationalIdFile"`
	VehicleRegistrationFile string `json:"vehicleRegistrationFile"`
	InsuranceFile           string `json:"insuranceFile"`

	CarName     string `json:"carName"`
	VehicleType string `json:"vehicleType"`
	CarPlate    string `json:"carPlate"`
	CarModel    string `json:"carModel"`
	CarColor    string `json:"carColor"`

	Availability      bool   `json:"availability" gorm:"default:false"`
	BankAccountNo     string `json:"bankAccountNo"`
	Verification      bool   `json:"verification" gorm:"default:false"`
	PaymentPreference *int   `json:"paymentPreference"`
	EmergencyContacts string `json:"emergencyContacts"`

	CarServiceDate   *time.Time `json:"carServiceDate"`
	BolloRenewalDate *time.Time `json:"bolloRenewalDate"`
	InsuranceExpiry  *time.Time `json:"insuranceExpiry"`

	Status         string `json:"status" gorm:"default:pending;not null"`
	DocumentStatus string `json:"documentStatus"`
	DriverStatus   string `json:"driverStatus" gorm:"default:active"`
}

// BeforeCreate normalizes the phone number and applies defaults.
func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	d.Phone = phone.Normalize(d.Phone)
	if d.Status == "" {
		d.Status = StatusPending
	}
	if d.DriverStatus == "" {
		d.DriverStatus = DriverStatusActive
	}
	if d.Rating == 0 {
		d.Rating = 5.0
	}
	return nil
}

// Field returns the value of a named document/vehicle field. The three
// eligibility checks each use a different required-field list, so lookups go
// through one accessor rather than three switch statements.
func (d *Driver) Field(name string) string {
	switch name {
	case "carPlate":
		return d.CarPlate
	case "carModel":
		return d.CarModel
	case "carColor":
		return d.CarColor
	case "drivingLicenseFile":
		return d.DrivingLicenseFile
	case "document":
		return d.Document
	case "nationalIdFile":
		return d.NationalIDFile
	case "vehicleRegistrationFile":
		return d.VehicleRegistrationFile
	case "insuranceFile":
		return d.InsuranceFile
	default:
		return ""
	}
}

// MissingFields returns the subset of required field names that are empty on
// the driver.
func (d *Driver) MissingFields(required []string) []string {
	missing := []string{}
	for _, f := range required {
		if d.Field(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}
