package middleware

import (
	"context"
	"net/http"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/render"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/userctx"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
