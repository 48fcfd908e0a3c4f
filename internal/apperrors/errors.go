package apperrors

import (
	"errors"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	ErrUserNotFound  = errors.New("user not found")

	// Login with unknown user or wrong password. Intentionally carries
	// no detail to avoid username enumeration
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Internal outcomes of refresh/revoke. Handlers collapse all three
	// into one generic response so a token guesser learns nothing
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
)
