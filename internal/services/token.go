package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// Token errors surfaced to the auth handlers.
var (
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

const (
	accessTokenTTL      = 15 * time.Minute
	refreshTokenTTLDays = 30
	refreshTokenBytes   = 32
)

// Claims is the access-token payload.
type Claims struct {
	UserID   uint   `json:"id"`
	UserType string `json:"type"` // passenger, driver, admin
	Phone    string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues JWT access tokens and opaque, bcrypt-hashed refresh
// tokens with rotation. It is the single place credentials are minted.
type TokenService struct {
	store  storage.Store
	secret []byte
	now    func() time.Time
}

// NewTokenService reads the signing secret from JWT_SECRET.
func NewTokenService(store storage.Store) *TokenService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key"
	}
	return &TokenService{store: store, secret: []byte(secret), now: time.Now}
}

// GenerateAccessToken signs a short-lived JWT for the user.
func (s *TokenService) GenerateAccessToken(userID uint, userType, phoneNumber string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   userID,
		UserType: userType,
		Phone:    phoneNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyAccessToken parses and validates a JWT, returning its claims.
func (s *TokenService) VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRefreshToken mints an opaque token, stores only its bcrypt hash, and
// returns the plaintext to hand to the client once.
func (s *TokenService) IssueRefreshToken(userType string, userID uint, metadata string) (string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	plaintext := hex.EncodeToString(raw)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	_, err = s.store.CreateRefreshToken(&models.RefreshToken{
		UserType:    userType,
		UserID:      userID,
		HashedToken: string(hashed),
		ExpiresAt:   s.now().AddDate(0, 0, refreshTokenTTLDays),
		Metadata:    metadata,
	})
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

// FindRefreshToken locates the stored row matching a plaintext token among
// a user type's active tokens. The bcrypt comparison cost makes this a
// linear scan; refresh volume is low enough for that.
func (s *TokenService) FindRefreshToken(userType, plaintext string) (*models.RefreshToken, error) {
	tokens, err := s.store.GetActiveRefreshTokensByType(userType)
	if err != nil {
		return nil, err
	}
	for _, t := range tokens {
		if bcrypt.CompareHashAndPassword([]byte(t.HashedToken), []byte(plaintext)) == nil {
			if s.now().After(t.ExpiresAt) {
				return nil, ErrRefreshTokenExpired
			}
			return t, nil
		}
	}
	return nil, ErrInvalidToken
}

// ValidateRefreshToken checks a plaintext token against a specific user's
// active tokens.
func (s *TokenService) ValidateRefreshToken(userType string, userID uint, plaintext string) error {
	tokens, err := s.store.GetActiveRefreshTokens(userType, userID)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		if bcrypt.CompareHashAndPassword([]byte(t.HashedToken), []byte(plaintext)) == nil {
			if s.now().After(t.ExpiresAt) {
				return ErrRefreshTokenExpired
			}
			return nil
		}
	}
	return ErrInvalidToken
}

// RotateRefreshToken revokes the matched row and issues a replacement.
func (s *TokenService) RotateRefreshToken(matched *models.RefreshToken) (string, error) {
	if err := s.store.RevokeRefreshToken(matched.ID, s.now()); err != nil {
		return "", err
	}
	return s.IssueRefreshToken(matched.UserType, matched.UserID, matched.Metadata)
}

// HashPassword hashes an account password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// RandomPassword generates a throwaway password for auto-provisioned
// passenger accounts created on first OTP request.
func RandomPassword() string {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Sprintf("fallback-%d!A1", time.Now().UnixNano())
	}
	return hex.EncodeToString(raw) + "!A1"
}
