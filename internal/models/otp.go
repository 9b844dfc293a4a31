package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP row lifecycle states.
const (
	OTPStatusPending  = "pending"
	OTPStatusVerified = "verified"
	OTPStatusExpired  = "expired"
	OTPStatusLocked   = "locked"
)

// Reference entity kinds an OTP can be scoped to.
const (
	OTPReferencePassenger = "Passenger"
	OTPReferenceDriver    = "Driver"
	OTPReferenceDirect    = "direct"
)

// OTP is a single pending or locked verification code, keyed by
// (phone, referenceType, referenceID). Only the SHA-256 hash of the code is
// stored. At most one pending or locked row exists per key; issuance
// destroys or supersedes prior rows rather than accumulating them.
type OTP struct {
	gorm.Model
	Phone         string    `gorm:"not null;index"`
	HashedSecret  string    `gorm:"not null"`
	ExpiresAt     time.Time `gorm:"not null"`
	Attempts      int       `gorm:"default:0"`
	Status        string    `gorm:"not null;default:pending"`
	ReferenceType string    `gorm:"not null;index"`
	ReferenceID   uint      `gorm:"not null;index"`
}
