package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Tokens reference users, so every test starts with an owner row
	createOwner := func(t *testing.T, tx pgx.Tx) models.User {
		t.Helper()
		user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
		require.NoError(t, err)
		return user
	}

	newToken := func(owner models.User, value string) models.RefreshToken {
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    owner.ID,
			Token:     value,
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
			RemoteIP:  "10.0.0.1",
		}
	}

	t.Run("create token ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.ID, got.ID)
			require.Equal(t, token.UserID, got.UserID)
			require.Equal(t, token.Token, got.Token)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
			require.Equal(t, "10.0.0.1", got.RemoteIP)
			require.Nil(t, got.RevokedAt, "fresh token should not be revoked")
			require.Nil(t, got.ReplacedByToken, "fresh token should have no successor")
		})
	})

	t.Run("create duplicate token string fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			owner := createOwner(t, tx)

			_, err := repo.Save(t.Context(), newToken(owner, "secret-token"))
			require.NoError(t, err)

			_, err = repo.Save(t.Context(), newToken(owner, "secret-token"))
			require.Error(t, err, "token strings are unique")
		})
	})

	t.Run("get token ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserID, got.UserID)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, 0)
		})
	})

	t.Run("get not existed token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Get(t.Context(), "never-issued")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("rotate ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Rotate(t.Context(), token.Token, "successor-token")

			require.NoError(t, err, "No error must be happen when rotating active token")
			require.NotNil(t, got.RevokedAt, "token must be marked revoked")
			require.WithinDuration(t, time.Now(), *got.RevokedAt, 50*time.Millisecond, "should be revoked close to now() enough")
			require.NotNil(t, got.ReplacedByToken, "successor must be recorded")
			require.Equal(t, "successor-token", *got.ReplacedByToken)
			require.Equal(t, token.UserID, got.UserID)
		})
	})

	t.Run("rotate not existed token", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Rotate(t.Context(), "never-issued", "successor-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("rotate twice fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			first, err := repo.Rotate(t.Context(), token.Token, "successor-token")
			require.NoError(t, err, "No error should happen on first rotate")

			second, err := repo.Rotate(t.Context(), token.Token, "another-successor")
			require.Error(t, err, "Rotating already rotated token has to return error")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "should return ErrRefreshTokenRevoked error")

			assert.WithinDuration(t, *first.RevokedAt, *second.RevokedAt, 0, "losing rotate must not move the revocation time")
			assert.Equal(t, "successor-token", *second.ReplacedByToken, "losing rotate must not replace the successor")
		})
	})

	t.Run("rotate expired token fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			token.ExpiresAt = mustParseTime("2024-01-02 19:00:01Z")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = repo.Rotate(t.Context(), token.Token, "successor-token")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired)
		})
	})

	t.Run("revoke without successor", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Revoke(t.Context(), token.Token)

			require.NoError(t, err)
			require.NotNil(t, got.RevokedAt, "token must be marked revoked")
			require.Nil(t, got.ReplacedByToken, "explicit revoke records no successor")
		})
	})

	t.Run("revoke revoked token fails", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			token := newToken(createOwner(t, tx), "secret-token")
			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = repo.Revoke(t.Context(), token.Token)
			require.NoError(t, err)

			_, err = repo.Revoke(t.Context(), token.Token)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
		})
	})

	t.Run("list by user newest first", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			owner := createOwner(t, tx)

			older := newToken(owner, "older-token")
			_, err := repo.Save(t.Context(), older)
			require.NoError(t, err)

			newer := newToken(owner, "newer-token")
			newer.CreatedAt = older.CreatedAt.Add(time.Hour)
			_, err = repo.Save(t.Context(), newer)
			require.NoError(t, err)

			got, err := repo.ListByUser(t.Context(), owner.ID)

			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "newer-token", got[0].Token)
			require.Equal(t, "older-token", got[1].Token)
		})
	})

	t.Run("list by user without tokens", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			got, err := repo.ListByUser(t.Context(), uuid.New())

			require.NoError(t, err)
			require.Empty(t, got)
		})
	})
}
