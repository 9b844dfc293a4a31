package models

import (
	"gorm.io/gorm"

	"github.com/addisride/addisride-backend/internal/phone"
)

// Passenger represents a rider account. Accounts may be auto-provisioned on
// the first OTP request and activated once the code is verified.
type Passenger struct {
	gorm.Model

	Name     string `json:"name" gorm:"not null"`
	Phone    string `json:"phone" gorm:"not null;uniqueIndex"`
	Password string `json:"-" gorm:"not null"`
	Email    string `json:"email"`

	ContractID        string  `json:"contractId"`
	Wallet            float64 `json:"wallet" gorm:"type:decimal(10,2);default:0"`
	Rating            float64 `json:"rating" gorm:"default:5.0"`
	RewardPoints      int     `json:"rewardPoints" gorm:"default:0"`
	EmergencyContacts string  `json:"emergencyContacts"`

	// Set once the passenger has completed OTP verification at least once.
	OTPRegistered bool `json:"otpRegistered" gorm:"default:false"`
}

func (p *Passenger) BeforeCreate(tx *gorm.DB) error {
	p.Phone = phone.Normalize(p.Phone)
	if p.Rating == 0 {
		p.Rating = 5.0
	}
	return nil
}
