package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour

	// 512 bits of entropy in every refresh token
	refreshTokenBytesLen = 64
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles,omitempty"`
}

// Token manager with sensible defaults
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Registered claims validated on every parse
	Issuer   string
	Audience string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	// Secret key to sign access token
	key string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	issuer   string
	audience string

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Refresh token repo
	refreshRepo repository.RefreshTokenRepo
}

func New(cfg Config, refreshRepo repository.RefreshTokenRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:         cfg.SecretKey,
		alg:         jwt.GetSigningMethod(cfg.Alg),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		refreshRepo: refreshRepo,
	}, nil
}

// AccessToken mints a signed access token with claims built from the user
// state passed in. Callers are expected to pass the current user row, never
// a cached one, so rotated tokens carry fresh roles
func (m *TokenManager) AccessToken(user models.User) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Issuer:    m.issuer,
				Audience:  jwt.ClaimStrings{m.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Roles:    user.Roles,
		},
	)

	signed, err := token.SignedString([]byte(m.key))
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// GeneratePair mints an access token and persists a brand new refresh token
// for the user
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User, remoteIP string) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := m.AccessToken(user)
	if err != nil {
		return pair, err
	}

	refresh, err := m.newRefreshToken(ctx, user.ID, remoteIP)
	if err != nil {
		return pair, err
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refresh.ExpiresAt},
	}, nil
}

// Rotate consumes the presented refresh token and persists its successor.
// The presented token is marked revoked and linked to the successor in one
// conditional update, so it can never be used twice: a second presentation
// of the same string fails no matter how the calls interleave.
// Returns the successor row
func (m *TokenManager) Rotate(ctx context.Context, refresh string, remoteIP string) (models.RefreshToken, error) {
	successor, err := generateTokenString()
	if err != nil {
		return models.RefreshToken{}, err
	}

	rotated, err := m.refreshRepo.Rotate(ctx, refresh, successor)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	return m.saveRefreshToken(ctx, successor, rotated.UserID, remoteIP)
}

// Revoke the presented token without issuing a successor
func (m *TokenManager) Revoke(ctx context.Context, refresh string) (models.RefreshToken, error) {
	revoked, err := m.refreshRepo.Revoke(ctx, refresh)
	if err != nil {
		return revoked, fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}
	return revoked, nil
}

// Sessions lists every refresh token ever issued to the user, newest first
func (m *TokenManager) Sessions(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	tokens, err := m.refreshRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error while listing refresh tokens. Err: %w", err)
	}
	return tokens, nil
}

// Parse and validate access token: signature, expiry, issuer and audience,
// no clock-skew leeway
func (m *TokenManager) ParseAccess(access string) (AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.key), nil },
		opts...,
	)
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return *claims, nil
}

func (m *TokenManager) newRefreshToken(ctx context.Context, userID uuid.UUID, remoteIP string) (models.RefreshToken, error) {
	value, err := generateTokenString()
	if err != nil {
		return models.RefreshToken{}, err
	}

	return m.saveRefreshToken(ctx, value, userID, remoteIP)
}

func (m *TokenManager) saveRefreshToken(ctx context.Context, value string, userID uuid.UUID, remoteIP string) (models.RefreshToken, error) {
	now := time.Now().Truncate(time.Second)

	token, err := m.refreshRepo.Save(ctx, models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(m.refreshTTL),
		RemoteIP:  remoteIP,
	})
	if err != nil {
		return token, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return token, nil
}

func generateTokenString() (string, error) {
	b := make([]byte, refreshTokenBytesLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
