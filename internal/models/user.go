package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	Email          string
	HashedPassword string

	// Roles assigned to the user. Included into access token claims
	Roles []string

	// nil until the user logged in at least once
	LastLoginAt *time.Time
}
