package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBalance is credited to every newly registered user.
const DefaultBalance int64 = 100

// PasswordCredential is the salted one-way derivation of a password.
// Both values are hex encoded. It is created once at registration.
type PasswordCredential struct {
	Salt string `json:"-"`
	Hash string `json:"-"`
}

// User is an account holder identified by a unique username.
type User struct {
	ID         uuid.UUID          `json:"id"`
	Username   string             `json:"username"`
	Credential PasswordCredential `json:"-"` // Never expose
	Balance    int64              `json:"balance"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// CanAfford reports whether the user's balance covers amount.
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}

// TokenPair is the pair of bearer credentials issued on register and login.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"-"` // Delivered by cookie only
	RefreshExpiresAt time.Time `json:"-"`
}
