package auth

import "time"

// LoginCode is a pending one-time login code for an email address. Only the
// SHA-256 hash of the code is stored.
type LoginCode struct {
	Email     string
	CodeHash  string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}
