package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account as stored, hash included. Never serialized
// directly; API responses use UserProfile.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserProfile is the public shape returned on a successful login.
// Name is derived from the email local part.
type UserProfile struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}
