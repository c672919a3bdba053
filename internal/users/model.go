package users

import "time"

// Provider values stored with each user.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// User is a directory entry for the built-in identity provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
