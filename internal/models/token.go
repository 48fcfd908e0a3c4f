package models

import (
	"time"

	"github.com/google/uuid"
)

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time

	// nil while the token is neither rotated nor explicitly revoked
	RevokedAt *time.Time

	// Set on rotation only: points to the token that superseded this one.
	// Stays nil on explicit revoke, which distinguishes the two for audit.
	ReplacedByToken *string

	// Network origin recorded at issuance
	RemoteIP string
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsActive reports whether the token is usable for refresh or revoke:
// not revoked and not expired
func (t RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && !t.IsExpired(now)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
