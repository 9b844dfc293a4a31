package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors shared across the services. Handlers map these to HTTP
// status codes; none of them are fatal to the process.
var (
	// OTP engine
	ErrInvalidPhoneFormat = errors.New("invalid phone number format. Use 09XXXXXXXX or 07XXXXXXXX")
	ErrNoValidCode        = errors.New("no valid OTP found")
	ErrCodeExpired        = errors.New("OTP has expired")
	ErrInvalidCode        = errors.New("invalid OTP")

	// Driver eligibility
	ErrInvalidStatus         = errors.New("invalid status. Allowed values: pending, approved, suspended, rejected")
	ErrAccountPending        = errors.New("cannot change availability. Your account is still pending approval. Please contact support")
	ErrAccountSuspended      = errors.New("cannot change availability. Your account has been suspended. Please contact support")
	ErrDriverStatusSuspended = errors.New("cannot change availability. Your driver status is suspended. Please contact support")
	ErrDriverStatusInactive  = errors.New("cannot change availability. Your driver status is inactive. Please contact support")

	// Pricing engine
	ErrBookingNotFound = errors.New("booking not found")
	ErrNoActivePricing = errors.New("active pricing not found for vehicleType")
)

// TooSoonError is returned when a new OTP is requested inside the cooldown
// window of the previous issuance.
type TooSoonError struct {
	RetryAfter time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another OTP", int(e.RetryAfter.Seconds()))
}

// AccountLockedError is returned when the OTP key is locked out after too
// many failed attempts.
type AccountLockedError struct {
	RemainingSeconds int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked. Try again in %d seconds", e.RemainingSeconds)
}

// MissingDocumentsError lists the required driver fields that are empty.
type MissingDocumentsError struct {
	Missing []string
}

func (e *MissingDocumentsError) Error() string {
	return "missing required documents: " + strings.Join(e.Missing, ", ")
}
