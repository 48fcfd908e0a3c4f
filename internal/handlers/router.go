package handlers

import (
	"context"
	"net/http"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/middleware"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/logger"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type middlewareAuthService interface {
	// Authenticate the request by its bearer access token
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Service capable of everything the auth routes need
type FullAuthService interface {
	AuthService
	SessionLister
	middlewareAuthService
}

func NewRouter(authService FullAuthService, logger logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	authHandler := NewAuth(authService, logger)
	userHandler := NewUser(authService, logger)

	apiauth := http.NewServeMux()
	apiauth.Handle("/", authHandler.Handler())
	apiauth.Handle("GET /profile", withAuth(userHandler.Handler()))
	apiauth.Handle("GET /sessions", withAuth(userHandler.Handler()))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}
