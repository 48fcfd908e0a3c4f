package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			got, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, got.ID, "id should be generated")
			require.Equal(t, "nk", got.Username)
			require.Equal(t, "nk@example.com", got.Email)
			require.Equal(t, "hashed-password", got.HashedPassword)
			require.WithinDuration(t, time.Now(), got.CreatedAt, 50*time.Millisecond)
			require.Empty(t, got.Roles, "new user should have no roles")
			require.Nil(t, got.LastLoginAt, "new user should have never logged in")
		})
	})

	t.Run("create user duplicate username", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), "nk", "other@example.com", "hashed-password")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
		})
	})

	t.Run("create user duplicate email", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), "other", "nk@example.com", "hashed-password")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
		})
	})

	t.Run("get user by id or name or email", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
			require.NoError(t, err)

			byID, err := repo.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.Equal(t, user.ID, byID.ID)

			byName, err := repo.GetUserByUsername(t.Context(), "nk")
			require.NoError(t, err)
			require.Equal(t, user.ID, byName.ID)

			byEmail, err := repo.GetUserByEmail(t.Context(), "nk@example.com")
			require.NoError(t, err)
			require.Equal(t, user.ID, byEmail.ID)
		})
	})

	t.Run("get not existed user", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByUsername(t.Context(), "nobody")

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("mark login", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
			require.NoError(t, err)

			err = repo.MarkLogin(t.Context(), user.ID)
			require.NoError(t, err)

			got, err := repo.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, got.LastLoginAt, "login time should be recorded")
			require.WithinDuration(t, time.Now(), *got.LastLoginAt, 50*time.Millisecond)
		})
	})

	t.Run("mark login not existed user", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			err := repo.MarkLogin(t.Context(), uuid.New())

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update roles", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "nk", "nk@example.com", "hashed-password")
			require.NoError(t, err)

			got, err := repo.UpdateRoles(t.Context(), user.ID, []string{"customer", "admin"})

			require.NoError(t, err)
			require.Equal(t, []string{"customer", "admin"}, got.Roles)
		})
	})
}
