package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/render"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/handlers/userctx"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/logger"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
)

type SessionLister interface {
	Sessions(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)
}

type UserHandler struct {
	sessions SessionLister
	logger   logger.Logger
}

func NewUser(sessions SessionLister, logger logger.Logger) *UserHandler {
	return &UserHandler{sessions: sessions, logger: logger}
}

func (h *UserHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profile", h.profile)
	mux.HandleFunc("GET /sessions", h.listSessions)

	return mux
}

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	type ProfileResponse struct {
		ID          uuid.UUID  `json:"id"`
		UserName    string     `json:"userName"`
		Email       string     `json:"email"`
		Roles       []string   `json:"roles"`
		LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	}

	// Middleware guarantees the user is set
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	render.JSON(w, ProfileResponse{
		ID:          user.ID,
		UserName:    user.Username,
		Email:       user.Email,
		Roles:       user.Roles,
		LastLoginAt: user.LastLoginAt,
	})
}

// listSessions renders the caller's refresh token audit trail.
// Raw token strings are never exposed, only lifecycle metadata
func (h *UserHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	type SessionResponse struct {
		CreatedAt       time.Time  `json:"createdAt"`
		ExpiresAt       time.Time  `json:"expiresAt"`
		RevokedAt       *time.Time `json:"revokedAt,omitempty"`
		Rotated         bool       `json:"rotated"`
		RemoteIPAddress string     `json:"remoteIpAddress"`
		Active          bool       `json:"active"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tokens, err := h.sessions.Sessions(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("sessions listing failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	sessions := make([]SessionResponse, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionResponse{
			CreatedAt:       t.CreatedAt,
			ExpiresAt:       t.ExpiresAt,
			RevokedAt:       t.RevokedAt,
			Rotated:         t.ReplacedByToken != nil,
			RemoteIPAddress: t.RemoteIP,
			Active:          t.IsActive(now),
		})
	}

	render.JSON(w, sessions)
}
