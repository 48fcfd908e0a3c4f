package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token, remote_ip)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token, remote_ip
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt,
		token.RevokedAt, token.ReplacedByToken, token.RemoteIP,
	)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getToken = `-- name: GetRefreshToken
SELECT id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token, remote_ip
FROM refresh_tokens
WHERE token = $1
`

// Get token by the token string itself
// Returns the row even if it is revoked or expired already
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeActiveToken = `-- name: RevokeActiveToken
UPDATE refresh_tokens
SET revoked_at = $2, replaced_by_token = $3
WHERE token = $1 AND revoked_at IS NULL AND expires_at > $2
RETURNING id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token, remote_ip
`

// Rotate marks the token revoked and records its successor.
// The WHERE clause is the check-and-set: only an active row matches, so of
// two concurrent rotations exactly one gets the row back and the other
// falls through to the inactive classification.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, tokenString string, successor string) (models.RefreshToken, error) {
	return r.revokeActive(ctx, tokenString, &successor)
}

// Revoke marks the token revoked with no successor
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	return r.revokeActive(ctx, tokenString, nil)
}

func (r *RefreshTokenRepo) revokeActive(ctx context.Context, tokenString string, successor *string) (models.RefreshToken, error) {
	now := time.Now()
	rows, _ := r.DB.Query(ctx, revokeActiveToken, tokenString, now, successor)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No active row matched. Look the token up to tell why
		return r.classifyInactive(ctx, tokenString, now)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func (r *RefreshTokenRepo) classifyInactive(ctx context.Context, tokenString string, now time.Time) (models.RefreshToken, error) {
	token, err := r.Get(ctx, tokenString)
	if err != nil {
		return token, err
	}

	if token.RevokedAt != nil {
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	}
	if token.IsExpired(now) {
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExpired)
	}

	// The row turned active between the two queries: somebody inserted or
	// un-revoked it concurrently. Treat as revoked, the caller must not win
	return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
}

const listTokensByUser = `-- name: ListRefreshTokensByUser
SELECT id, user_id, token, created_at, expires_at, revoked_at, replaced_by_token, remote_ip
FROM refresh_tokens
WHERE user_id = $1
ORDER BY created_at DESC
`

func (r *RefreshTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, listTokensByUser, userID)
	tokens, err := pgx.CollectRows(rows, rowToRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedByToken, &t.RemoteIP)
	return t, err
}
