package auth

import (
	"context"
	"strings"
	"sync"
)

// MemoryCodeRepo is an in-memory implementation of CodeRepo.
type MemoryCodeRepo struct {
	mu   sync.Mutex
	data map[string]LoginCode // email -> pending code
}

// NewMemoryCodeRepo constructs a MemoryCodeRepo.
func NewMemoryCodeRepo() *MemoryCodeRepo {
	return &MemoryCodeRepo{data: make(map[string]LoginCode)}
}

// Put stores the pending code for an email, replacing any previous one.
func (r *MemoryCodeRepo) Put(ctx context.Context, code LoginCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[normalizeEmail(code.Email)] = code
	return nil
}

// Get returns the pending code for an email.
func (r *MemoryCodeRepo) Get(ctx context.Context, email string) (LoginCode, error) {
	if err := ctx.Err(); err != nil {
		return LoginCode{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.data[normalizeEmail(email)]
	if !ok {
		return LoginCode{}, ErrCodeNotFound
	}
	return code, nil
}

// IncrementAttempts bumps the attempt counter for an email's pending code.
func (r *MemoryCodeRepo) IncrementAttempts(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalizeEmail(email)
	code, ok := r.data[key]
	if !ok {
		return ErrCodeNotFound
	}
	code.Attempts++
	r.data[key] = code
	return nil
}

// Delete removes the pending code for an email.
func (r *MemoryCodeRepo) Delete(ctx context.Context, email string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, normalizeEmail(email))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
