package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// captureNotifier records every message instead of sending it.
type captureNotifier struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (c *captureNotifier) Send(ctx context.Context, to, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("carrier unreachable")
	}
	c.messages = append(c.messages, message)
	return nil
}

func (c *captureNotifier) lastCode(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		t.Fatal("no SMS captured")
	}
	code := regexp.MustCompile(`\d{6}`).FindString(c.messages[len(c.messages)-1])
	if code == "" {
		t.Fatalf("no 6-digit code in message %q", c.messages[len(c.messages)-1])
	}
	return code
}

func newTestOTPService() (*OTPService, *captureNotifier, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	svc := NewOTPService(store, notifier, DefaultOTPConfig())
	return svc, notifier, store
}

func TestIssueNormalizesPhoneKey(t *testing.T) {
	svc, _, store := newTestOTPService()

	res, err := svc.Issue(context.Background(), OTPRequest{Phone: "0912345678"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if res.PhoneNumber != "+251912345678" {
		t.Errorf("key = %q, want +251912345678", res.PhoneNumber)
	}
	if res.ExpiresIn != 300 {
		t.Errorf("expiresIn = %d, want 300", res.ExpiresIn)
	}

	otp, err := store.GetOTPByStatus("+251912345678", models.OTPReferenceDirect, 0, models.OTPStatusPending)
	if err != nil {
		t.Fatalf("pending row not stored: %v", err)
	}
	if len(otp.HashedSecret) != 64 {
		t.Errorf("secret is not a sha256 hex digest: %q", otp.HashedSecret)
	}
}

func TestIssueRejectsInvalidPhone(t *testing.T) {
	svc, _, _ := newTestOTPService()

	for _, raw := range []string{"12345", "0812345678", "+15551234567", ""} {
		if _, err := svc.Issue(context.Background(), OTPRequest{Phone: raw}); err == nil {
			t.Errorf("Issue(%q) succeeded, want error", raw)
		}
	}
}

func TestIssueCooldownBlocksReissue(t *testing.T) {
	svc, _, _ := newTestOTPService()

	if _, err := svc.Issue(context.Background(), OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("first Issue: %v", err)
	}

	_, err := svc.Issue(context.Background(), OTPRequest{Phone: "0912345678"})
	var tooSoon *TooSoonError
	if !errors.As(err, &tooSoon) {
		t.Fatalf("second Issue err = %v, want TooSoonError", err)
	}
	if tooSoon.RetryAfter <= 0 || tooSoon.RetryAfter > 30*time.Second {
		t.Errorf("retryAfter = %v, want within (0s, 30s]", tooSoon.RetryAfter)
	}
}

func TestIssueSupersedesAfterCooldown(t *testing.T) {
	svc, notifier, _ := newTestOTPService()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("first Issue: %v", err)
	}
	first := notifier.lastCode(t)

	svc.now = func() time.Time { return time.Now().Add(31 * time.Second) }
	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("re-Issue after cooldown: %v", err)
	}
	second := notifier.lastCode(t)

	// Only the newest code verifies.
	if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, first); first != second && !errors.Is(err, ErrInvalidCode) {
		t.Errorf("superseded code verified, err = %v", err)
	}
}

func TestIssueSurvivesSMSFailure(t *testing.T) {
	svc, notifier, store := newTestOTPService()
	notifier.fail = true

	if _, err := svc.Issue(context.Background(), OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("Issue with failing notifier: %v", err)
	}
	if _, err := store.GetOTPByStatus("+251912345678", models.OTPReferenceDirect, 0, models.OTPStatusPending); err != nil {
		t.Errorf("code not persisted despite SMS failure: %v", err)
	}
}

func TestVerifyHappyPathDeletesRows(t *testing.T) {
	svc, notifier, store := newTestOTPService()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	code := notifier.lastCode(t)

	if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	// All rows for the key are destroyed; a replay finds nothing.
	for _, status := range []string{models.OTPStatusPending, models.OTPStatusVerified} {
		if _, err := store.GetOTPByStatus("+251912345678", models.OTPReferenceDirect, 0, status); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("row with status %q survived verification", status)
		}
	}
	if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, code); !errors.Is(err, ErrNoValidCode) {
		t.Errorf("replay err = %v, want ErrNoValidCode", err)
	}
}

func TestVerifyWrongCodeCountsAttempts(t *testing.T) {
	svc, notifier, _ := newTestOTPService()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, "000000"); !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d err = %v, want ErrInvalidCode", i+1, err)
		}
	}

	// Fourth try hits the attempt ceiling and locks the key even if the
	// submitted code is now correct.
	code := notifier.lastCode(t)
	err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, code)
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("err = %v, want AccountLockedError", err)
	}
	if locked.RemainingSeconds != 1800 {
		t.Errorf("lockout = %ds, want 1800", locked.RemainingSeconds)
	}

	// And issuance is refused while the lock row lives.
	_, err = svc.Issue(ctx, OTPRequest{Phone: "0912345678"})
	if !errors.As(err, &locked) {
		t.Errorf("Issue during lockout err = %v, want AccountLockedError", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	svc, notifier, _ := newTestOTPService()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	code := notifier.lastCode(t)

	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }
	if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}

	// After expiry the purge-on-access rule clears the row, so a fresh
	// issue goes through immediately.
	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Errorf("Issue after expiry: %v", err)
	}
}

func TestIssueByReferenceUsesStoredPhone(t *testing.T) {
	svc, _, store := newTestOTPService()

	d, err := store.CreateDriver(&models.Driver{Name: "Abebe", Phone: "0712345678", Password: "x"})
	if err != nil {
		t.Fatalf("CreateDriver: %v", err)
	}

	res, err := svc.Issue(context.Background(), OTPRequest{ReferenceType: models.OTPReferenceDriver, ReferenceID: d.ID})
	if err != nil {
		t.Fatalf("Issue by reference: %v", err)
	}
	if res.PhoneNumber != "+251712345678" {
		t.Errorf("key = %q, want +251712345678", res.PhoneNumber)
	}
}

func TestKeysAreIndependentPerReference(t *testing.T) {
	svc, notifier, _ := newTestOTPService()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678"}); err != nil {
		t.Fatalf("Issue direct: %v", err)
	}
	directCode := notifier.lastCode(t)

	// Same phone under a different reference tuple is a separate key with
	// its own cooldown and its own code.
	if _, err := svc.Issue(ctx, OTPRequest{Phone: "0912345678", ReferenceType: models.OTPReferencePassenger, ReferenceID: 7}); err != nil {
		t.Fatalf("Issue scoped: %v", err)
	}

	if err := svc.Verify(ctx, OTPRequest{Phone: "0912345678"}, directCode); err != nil {
		t.Errorf("direct key verification broke after scoped issue: %v", err)
	}
}
