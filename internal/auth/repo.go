package auth

import (
	"context"
	"errors"
)

var (
	ErrCodeNotFound = errors.New("login code not found")
	ErrCodeExpired  = errors.New("login code expired")
	ErrCodeInvalid  = errors.New("login code invalid")
	ErrTooManyTries = errors.New("too many verification attempts")
)

// CodeRepo persists pending login codes, one per email.
type CodeRepo interface {
	Put(ctx context.Context, code LoginCode) error
	Get(ctx context.Context, email string) (LoginCode, error)
	IncrementAttempts(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}
