package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// Has to return apperrors.ErrUsernameTaken or apperrors.ErrEmailTaken
	// if the username or email is occupied already
	CreateUser(ctx context.Context, username string, email string, hashedPassword string) (models.User, error)

	// Get user by id, username or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set last login timestamp to now
	MarkLogin(ctx context.Context, userID uuid.UUID) error

	// Replace user roles with the given set
	UpdateRoles(ctx context.Context, userID uuid.UUID, roles []string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save new token row
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it is revoked or expired already
	// If no such token must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token revoked and link the successor token in one conditional
	// update. Exactly one of two concurrent calls with the same token may
	// succeed; the loser gets apperrors.ErrRefreshTokenRevoked.
	// Expired or unknown tokens fail with the matching apperrors sentinel.
	// Returns the updated row
	Rotate(ctx context.Context, tokenString string, successor string) (models.RefreshToken, error)

	// Mark token revoked without a successor (explicit revoke).
	// Same conditional update discipline as Rotate
	Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// All tokens ever issued to the user, newest first. Rows are never
	// deleted so this is the rotation audit trail
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)
}

type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
}
