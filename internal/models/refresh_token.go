package models

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken stores the bcrypt hash of an opaque refresh token. The
// plaintext is only ever returned to the client at issuance; exchange
// compares against the hash and rotates the row.
type RefreshToken struct {
	gorm.Model
	UserType    string     `gorm:"not null;index"`
	UserID      uint       `gorm:"not null;index"`
	HashedToken string     `gorm:"not null"`
	ExpiresAt   time.Time  `gorm:"not null"`
	RevokedAt   *time.Time
	Metadata    string
}

// Active reports whether the token is neither revoked nor expired.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
