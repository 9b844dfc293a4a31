package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"math/big"
	"time"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/phone"
	"github.com/addisride/addisride-backend/internal/storage"
)

// OTPConfig carries the tunables of the one-time-code engine.
type OTPConfig struct {
	CodeLength  int           // digits per code
	Expiration  time.Duration // pending code lifetime
	MaxAttempts int           // wrong guesses before lockout
	Lockout     time.Duration // lockout row lifetime
	Cooldown    time.Duration // minimum gap between issuances per key
	CompanyName string        // prefix on the SMS text
}

// DefaultOTPConfig returns the production defaults: 6 digits, 5 minute
// expiry, 3 attempts, 30 minute lockout, 30 second cooldown.
func DefaultOTPConfig() OTPConfig {
	return OTPConfig{
		CodeLength:  6,
		Expiration:  300 * time.Second,
		MaxAttempts: 3,
		Lockout:     1800 * time.Second,
		Cooldown:    30 * time.Second,
		CompanyName: "AddisRide",
	}
}

// OTPRequest identifies the key a code is issued or verified against.
// Either Phone is set directly, or ReferenceType/ReferenceID name a
// Passenger or Driver whose stored phone number is used.
type OTPRequest struct {
	ReferenceType string
	ReferenceID   uint
	Phone         string
}

// OTPIssueResult reports a successful issuance.
type OTPIssueResult struct {
	PhoneNumber string `json:"phoneNumber"`
	ExpiresIn   int    `json:"expiresIn"` // seconds
}

// OTPService issues and verifies one-time codes keyed by
// (phone, referenceType, referenceID). One pending or locked row exists per
// key at a time; stale rows are purged on the next access rather than by a
// background sweep.
type OTPService struct {
	store    storage.Store
	notifier Notifier
	cfg      OTPConfig
	now      func() time.Time
}

// NewOTPService creates an OTP engine over the given store and notifier.
func NewOTPService(store storage.Store, notifier Notifier, cfg OTPConfig) *OTPService {
	if cfg.CodeLength == 0 {
		cfg = DefaultOTPConfig()
	}
	return &OTPService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// resolveKey normalizes the request into the canonical (phone, refType,
// refID) tuple, looking the phone up from the reference entity when no
// direct number was supplied.
func (s *OTPService) resolveKey(req OTPRequest) (string, string, uint, error) {
	refType := req.ReferenceType
	refID := req.ReferenceID
	if refType == "" {
		refType = models.OTPReferenceDirect
	}

	if req.Phone != "" {
		canonical, err := phone.NormalizeStrict(req.Phone)
		if err != nil {
			return "", "", 0, ErrInvalidPhoneFormat
		}
		return canonical, refType, refID, nil
	}

	if req.ReferenceType == "" || req.ReferenceID == 0 {
		return "", "", 0, fmt.Errorf("reference type and ID are required")
	}

	var rawPhone string
	switch req.ReferenceType {
	case models.OTPReferencePassenger:
		p, err := s.store.GetPassenger(req.ReferenceID)
		if err != nil {
			return "", "", 0, fmt.Errorf("passenger not found")
		}
		rawPhone = p.Phone
	case models.OTPReferenceDriver:
		d, err := s.store.GetDriver(req.ReferenceID)
		if err != nil {
			return "", "", 0, fmt.Errorf("driver not found")
		}
		rawPhone = d.Phone
	default:
		return "", "", 0, fmt.Errorf("reference type must be Passenger or Driver")
	}
	if rawPhone == "" {
		return "", "", 0, fmt.Errorf("%s has no phone number", req.ReferenceType)
	}

	canonical, err := phone.NormalizeStrict(rawPhone)
	if err != nil {
		return "", "", 0, ErrInvalidPhoneFormat
	}
	return canonical, refType, refID, nil
}

// Issue generates a new code for the key, supersedes any previous pending
// row, and dispatches the plaintext via SMS. The SMS outcome never fails
// issuance: the code is already persisted and usable.
func (s *OTPService) Issue(ctx context.Context, req OTPRequest) (*OTPIssueResult, error) {
	key, refType, refID, err := s.resolveKey(req)
	if err != nil {
		return nil, err
	}
	now := s.now()

	// An unexpired pending row blocks re-issuance inside the cooldown
	// window and is destroyed (superseded) outside it.
	if existing, err := s.store.GetOTPByStatus(key, refType, refID, models.OTPStatusPending); err == nil {
		if now.Before(existing.ExpiresAt) {
			age := now.Sub(existing.CreatedAt)
			if age < s.cfg.Cooldown {
				return nil, &TooSoonError{RetryAfter: s.cfg.Cooldown - age}
			}
			if err := s.store.DeleteOTP(existing.ID); err != nil {
				return nil, err
			}
		}
	}

	if locked, err := s.store.GetOTPByStatus(key, refType, refID, models.OTPStatusLocked); err == nil {
		if now.Before(locked.ExpiresAt) {
			remaining := int(math.Ceil(locked.ExpiresAt.Sub(now).Seconds()))
			return nil, &AccountLockedError{RemainingSeconds: remaining}
		}
	}

	if err := s.store.PurgeStaleOTPs(key, refType, refID, now); err != nil {
		return nil, err
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &models.OTP{
		Phone:         key,
		HashedSecret:  hashSecret(code),
		ExpiresAt:     now.Add(s.cfg.Expiration),
		Attempts:      0,
		Status:        models.OTPStatusPending,
		ReferenceType: refType,
		ReferenceID:   refID,
	}
	if _, err := s.store.CreateOTP(otp); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("%s: Your OTP is %s. It expires in %d minutes.",
		s.cfg.CompanyName, code, int(s.cfg.Expiration.Minutes()))
	smsCtx, cancel := context.WithTimeout(ctx, smsTimeout)
	defer cancel()
	if err := s.notifier.Send(smsCtx, key, msg); err != nil {
		// Delivery is best-effort; the code is persisted either way.
		log.Printf("[OTP SMS ERROR] phone=%s err=%v", key, err)
	}

	return &OTPIssueResult{
		PhoneNumber: key,
		ExpiresIn:   int(s.cfg.Expiration.Seconds()),
	}, nil
}

// Verify checks a submitted code against the pending row for the key.
// Attempts are counted before comparison, so repeated wrong guesses
// eventually lock the key even across calls.
func (s *OTPService) Verify(ctx context.Context, req OTPRequest, submitted string) error {
	if submitted == "" {
		return ErrInvalidCode
	}
	key, refType, refID, err := s.resolveKey(req)
	if err != nil {
		return err
	}
	now := s.now()

	if err := s.store.PurgeStaleOTPs(key, refType, refID, now); err != nil {
		return err
	}

	otp, err := s.store.GetOTPByStatus(key, refType, refID, models.OTPStatusPending)
	if err != nil {
		return ErrNoValidCode
	}

	if otp.Attempts >= s.cfg.MaxAttempts {
		otp.Status = models.OTPStatusLocked
		otp.ExpiresAt = now.Add(s.cfg.Lockout)
		if err := s.store.UpdateOTP(otp); err != nil {
			return err
		}
		return &AccountLockedError{RemainingSeconds: int(s.cfg.Lockout.Seconds())}
	}

	if now.After(otp.ExpiresAt) {
		otp.Status = models.OTPStatusExpired
		if err := s.store.UpdateOTP(otp); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	otp.Attempts++
	if err := s.store.UpdateOTP(otp); err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(hashSecret(submitted)), []byte(otp.HashedSecret)) != 1 {
		return ErrInvalidCode
	}

	otp.Status = models.OTPStatusVerified
	if err := s.store.UpdateOTP(otp); err != nil {
		return err
	}
	return s.store.DeleteOTPsForKey(key, refType, refID)
}

// generateCode draws a numeric code uniformly from the full digit range for
// the given length (6 digits: [100000, 999999]), using crypto/rand.
func generateCode(length int) (string, error) {
	min := int64(math.Pow10(length - 1))
	max := int64(math.Pow10(length)) - 1
	n, err := rand.Int(rand.Reader, big.NewInt(max-min+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", min+n.Int64()), nil
}

// hashSecret is the one-way storage form of a code. Plaintext codes never
// touch the database.
func hashSecret(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
