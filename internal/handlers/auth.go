package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/render"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/logger"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

// Auth service used by handlers
type AuthService interface {
	// Register user
	// Has to return apperrors.ErrUsernameTaken or apperrors.ErrEmailTaken on duplicates
	Register(ctx context.Context, username string, email string, password string) (models.User, error)

	// Login user with username and password
	// Has to return apperrors.ErrInvalidCredentials on any credential problem
	Login(ctx context.Context, username string, password string, remoteIP string) (models.TokenPair, error)

	// Rotate refresh token and issue a new pair
	// Has to return one of the apperrors refresh token sentinels on failure
	Refresh(ctx context.Context, refresh string, remoteIP string) (models.TokenPair, error)

	// Revoke refresh token without a successor
	Revoke(ctx context.Context, refresh string) error
}

// TokenPair json shape returned on login and refresh
type TokenPairResponse struct {
	AccessToken            string    `json:"accessToken"`
	AccessTokenExpiration  time.Time `json:"accessTokenExpiration"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiration time.Time `json:"refreshTokenExpiration"`
}

func newTokenPairResponse(pair models.TokenPair) TokenPairResponse {
	return TokenPairResponse{
		AccessToken:            pair.Access.Value,
		AccessTokenExpiration:  pair.Access.ExpiresAt,
		RefreshToken:           pair.Refresh.Value,
		RefreshTokenExpiration: pair.Refresh.ExpiresAt,
	}
}

type AuthHandler struct {
	auth   AuthService
	logger logger.Logger
}

func NewAuth(auth AuthService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)
	mux.HandleFunc("POST /revoke", h.revoke)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		UserName string `json:"userName" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	_, err = h.auth.Register(r.Context(), data.UserName, data.Email, data.Password)
	if err != nil {
		// Duplicates are reported specifically: unlike login this is not
		// an enumeration concern, registration discloses them anyway
		switch {
		case errors.Is(err, apperrors.ErrUsernameTaken):
			render.ServiceError(w, "User name already taken", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.ServiceError(w, "Email already taken", http.StatusBadRequest)
		default:
			h.logger.Error("registration failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RegisterSuccessResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		UserName string `json:"userName" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Login(r.Context(), data.UserName, data.Password, remoteIP(r))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newTokenPairResponse(pair))
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), data.RefreshToken, remoteIP(r))
	if err != nil {
		// One generic response whatever the reason: unknown, expired and
		// already rotated must be indistinguishable for a token guesser
		switch {
		case isRefreshTokenError(err):
			render.ServiceError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("refresh failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, newTokenPairResponse(pair))
}

func (h *AuthHandler) revoke(w http.ResponseWriter, r *http.Request) {
	type RevokeRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RevokeSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RevokeRequest](w, r)
	if err != nil {
		return
	}

	err = h.auth.Revoke(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case isRefreshTokenError(err):
			render.ServiceError(w, "Token not found or already revoked", http.StatusNotFound)
		default:
			h.logger.Error("revoke failed", "error", err.Error())
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RevokeSuccessResponse{Message: "Token revoked successfully"})
}

func isRefreshTokenError(err error) bool {
	return errors.Is(err, apperrors.ErrRefreshTokenNotFound) ||
		errors.Is(err, apperrors.ErrRefreshTokenRevoked) ||
		errors.Is(err, apperrors.ErrRefreshTokenExpired)
}

// remoteIP extracts the network origin recorded on issued refresh tokens
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
