package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthProvider identifies how a user account was created.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
	ProviderGithub   = "github"
)

// User represents an account that owns projects.
// PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PasswordHash   string    `json:"-"`
	Provider       string    `json:"provider"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}
