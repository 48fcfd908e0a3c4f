package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	activeToken := func(value string) models.RefreshToken {
		now := time.Now().Truncate(time.Second)
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     value,
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
			RemoteIP:  "10.0.0.1",
		}
	}

	t.Run("save and get", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		saved, err := repo.Save(t.Context(), activeToken("token-one"))
		require.NoError(t, err)

		got, err := repo.Get(t.Context(), "token-one")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("save duplicate fail", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		_, err := repo.Save(t.Context(), activeToken("token-one"))
		require.NoError(t, err)

		_, err = repo.Save(t.Context(), activeToken("token-one"))
		require.Error(t, err, "token strings are unique")
	})

	t.Run("get unknown fail", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		_, err := repo.Get(t.Context(), "never-saved")
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
	})

	t.Run("rotate links successor", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		_, err := repo.Save(t.Context(), activeToken("token-one"))
		require.NoError(t, err)

		rotated, err := repo.Rotate(t.Context(), "token-one", "token-two")
		require.NoError(t, err)

		require.NotNil(t, rotated.RevokedAt)
		require.NotNil(t, rotated.ReplacedByToken)
		assert.Equal(t, "token-two", *rotated.ReplacedByToken)
	})

	t.Run("exactly one concurrent rotate wins", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		_, err := repo.Save(t.Context(), activeToken("token-one"))
		require.NoError(t, err)

		const attempts = 16

		var wg sync.WaitGroup
		results := make([]error, attempts)

		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = repo.Rotate(t.Context(), "token-one", uuid.NewString())
			}()
		}
		wg.Wait()

		winners := 0
		for _, err := range results {
			if err == nil {
				winners++
				continue
			}
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "losers should see the token as revoked")
		}
		assert.Equal(t, 1, winners, "exactly one rotation should succeed")
	})

	t.Run("revoke sets no successor", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		_, err := repo.Save(t.Context(), activeToken("token-one"))
		require.NoError(t, err)

		revoked, err := repo.Revoke(t.Context(), "token-one")
		require.NoError(t, err)

		require.NotNil(t, revoked.RevokedAt)
		assert.Nil(t, revoked.ReplacedByToken)
	})

	t.Run("revoke expired fail", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		expired := activeToken("token-one")
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		_, err := repo.Save(t.Context(), expired)
		require.NoError(t, err)

		_, err = repo.Revoke(t.Context(), "token-one")
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
	})

	t.Run("list by user newest first", func(t *testing.T) {
		repo := NewRefreshTokenRepo()

		older := activeToken("token-one")
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		_, err := repo.Save(t.Context(), older)
		require.NoError(t, err)

		newer := activeToken("token-two")
		_, err = repo.Save(t.Context(), newer)
		require.NoError(t, err)

		stranger := activeToken("token-three")
		stranger.UserID = uuid.New()
		_, err = repo.Save(t.Context(), stranger)
		require.NoError(t, err)

		tokens, err := repo.ListByUser(t.Context(), userID)
		require.NoError(t, err)

		require.Len(t, tokens, 2, "other users tokens should not leak in")
		assert.Equal(t, "token-two", tokens[0].Token)
		assert.Equal(t, "token-one", tokens[1].Token)
	})
}
