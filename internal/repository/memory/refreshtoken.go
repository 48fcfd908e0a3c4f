// Package memory holds mutex-guarded in-memory implementations of the
// repository contracts. They back unit tests that should not need a
// database and serve as the reference for the conditional rotate
// semantics the postgres repos implement in SQL.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type RefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewRefreshTokenRepo() *RefreshTokenRepo {
	return &RefreshTokenRepo{tokens: make(map[string]models.RefreshToken)}
}

func (r *RefreshTokenRepo) Save(_ context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tokens[token.Token]; ok {
		return models.RefreshToken{}, fmt.Errorf("repo error: token exists already")
	}

	r.tokens[token.Token] = token
	return token, nil
}

func (r *RefreshTokenRepo) Get(_ context.Context, tokenString string) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenString]
	if !ok {
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	return token, nil
}

func (r *RefreshTokenRepo) Rotate(ctx context.Context, tokenString string, successor string) (models.RefreshToken, error) {
	return r.revokeActive(tokenString, &successor)
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	return r.revokeActive(tokenString, nil)
}

// Check-and-set under one lock: the revoked mark and the successor link are
// written only while the token is still active, mirroring the conditional
// UPDATE of the postgres repo
func (r *RefreshTokenRepo) revokeActive(tokenString string, successor *string) (models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	token, ok := r.tokens[tokenString]
	switch {
	case !ok:
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	case token.RevokedAt != nil:
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenRevoked)
	case token.IsExpired(now):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenExpired)
	}

	token.RevokedAt = &now
	token.ReplacedByToken = successor
	r.tokens[tokenString] = token

	return token, nil
}

func (r *RefreshTokenRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []models.RefreshToken
	for _, token := range r.tokens {
		if token.UserID == userID {
			tokens = append(tokens, token)
		}
	}

	// Newest first, same order the postgres repo returns
	for i := range tokens {
		for j := i + 1; j < len(tokens); j++ {
			if tokens[j].CreatedAt.After(tokens[i].CreatedAt) {
				tokens[i], tokens[j] = tokens[j], tokens[i]
			}
		}
	}

	return tokens, nil
}
