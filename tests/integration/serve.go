package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/logger"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/repository/postgres"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/service/auth"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/service/auth/tokenmanager"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
}

// Create db transaction and run the full router over that connection.
// Everything the test writes is rolled back at the end, so the database
// stays clean between scenarios
func RunTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			SecretKey: "test-secret",
			Issuer:    "test-issuer",
			Audience:  "test-audience",
		}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
		require.NoError(t, err, "auth service starting error", err)

		router := handlers.NewRouter(as, logger.NewNoOpLogger())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL, Services{AuthService: as})
	})
}
