package services

import (
	"errors"
	"testing"
	"time"

	"github.com/addisride/addisride-backend/internal/storage"
)

func newTestTokenService() *TokenService {
	svc := NewTokenService(storage.NewMemoryStore())
	svc.secret = []byte("test-secret")
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.GenerateAccessToken(42, "driver", "+251912345678")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.UserType != "driver" || claims.Phone != "+251912345678" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAccessTokenExpires(t *testing.T) {
	svc := newTestTokenService()
	svc.now = func() time.Time { return time.Now().Add(-20 * time.Minute) }

	token, err := svc.GenerateAccessToken(1, "passenger", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	svc := newTestTokenService()
	token, err := svc.GenerateAccessToken(1, "admin", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := newTestTokenService()
	other.secret = []byte("different-secret")
	if _, err := other.VerifyAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	svc := newTestTokenService()

	plaintext, err := svc.IssueRefreshToken("passenger", 7, "test-device")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	matched, err := svc.FindRefreshToken("passenger", plaintext)
	if err != nil {
		t.Fatalf("FindRefreshToken: %v", err)
	}
	if matched.UserID != 7 {
		t.Errorf("matched userID = %d, want 7", matched.UserID)
	}
	if matched.HashedToken == plaintext {
		t.Error("refresh token stored in plaintext")
	}

	rotated, err := svc.RotateRefreshToken(matched)
	if err != nil {
		t.Fatalf("RotateRefreshToken: %v", err)
	}
	if rotated == plaintext {
		t.Error("rotation returned the same token")
	}

	// The old token is revoked; only the replacement matches.
	if _, err := svc.FindRefreshToken("passenger", plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old token err = %v, want ErrInvalidToken", err)
	}
	if err := svc.ValidateRefreshToken("passenger", 7, rotated); err != nil {
		t.Errorf("rotated token invalid: %v", err)
	}
}

func TestRefreshTokenScopedByUserType(t *testing.T) {
	svc := newTestTokenService()

	plaintext, err := svc.IssueRefreshToken("driver", 3, "")
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := svc.FindRefreshToken("passenger", plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("driver token matched under passenger scope, err = %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hashed, "secret123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hashed, "secret124") {
		t.Error("wrong password accepted")
	}
}
