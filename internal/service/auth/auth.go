package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Mustafa-Adel61/ecommerce-platform/internal/apperrors"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/models"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/repository"
	"github.com/Mustafa-Adel61/ecommerce-platform/internal/service/auth/tokenmanager"
)

const authScheme = "Bearer"

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during user registration or login
	// BcryptHasher is used if not set
	Hasher PasswordHasher
}

// Auth service: registration, login and the refresh token lifecycle.
// Stateless per request, every bit of shared state lives in the repos
type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term data
	userRepo repository.UserRepo
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if token == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

// Register creates the user. No tokens are issued: the user logs in after
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, email, hash)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login verifies the password and issues a fresh token pair.
// Unknown user and wrong password are indistinguishable for the caller
func (s *AuthService) Login(ctx context.Context, username string, password string, remoteIP string) (models.TokenPair, error) {
	// Ignore the lookup error: the compare below fails on the empty hash,
	// so unknown users take the same path as wrong passwords
	user, _ := s.userRepo.GetUserByUsername(ctx, username)

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.token.GeneratePair(ctx, user, remoteIP)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	if err := s.userRepo.MarkLogin(ctx, user.ID); err != nil {
		return models.TokenPair{}, fmt.Errorf("error while marking login time. Err: %w", err)
	}

	return pair, nil
}

// Refresh rotates the presented refresh token and issues a new pair.
// Claims of the new access token are recomputed from the current user row,
// not carried over from the original login
func (s *AuthService) Refresh(ctx context.Context, refresh string, remoteIP string) (models.TokenPair, error) {
	successor, err := s.token.Rotate(ctx, refresh, remoteIP)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, successor.UserID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while loading token owner. Err: %w", err)
	}

	access, err := s.token.AccessToken(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: successor.Token, ExpiresAt: successor.ExpiresAt},
	}, nil
}

// Revoke invalidates the presented refresh token without a successor
func (s *AuthService) Revoke(ctx context.Context, refresh string) error {
	_, err := s.token.Revoke(ctx, refresh)
	return err
}

// Sessions returns the full refresh token history of the user for audit
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error) {
	return s.token.Sessions(ctx, userID)
}

// Authenticate the request by its bearer access token
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")

	access, found := strings.CutPrefix(header, authScheme+" ")
	if !found || access == "" {
		return models.User{}, fmt.Errorf("no bearer token in request")
	}

	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("token owner not found. Err: %w", err)
	}

	return user, nil
}
