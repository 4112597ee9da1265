// Package models defines the data structures that map to database tables
// and the derived types the sizing and layout engines produce.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User owns a category forest. Authentication beyond a password check is
// handled by the session token store.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
