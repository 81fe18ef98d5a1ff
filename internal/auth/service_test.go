package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal-backend/internal/users"
)

type captureMailer struct {
	email string
	code  string
	err   error
}

func (m *captureMailer) SendLoginCode(ctx context.Context, email, code string) error {
	if m.err != nil {
		return m.err
	}
	m.email = email
	m.code = code
	return nil
}

func newTestService() (*Service, *captureMailer) {
	mailer := &captureMailer{}
	svc := NewService(NewMemoryCodeRepo(), mailer, users.NewService(users.NewMemoryRepo()))
	return svc, mailer
}

func TestRequestAndVerifyCode(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	if err := svc.RequestCode(ctx, "Writer@Example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if mailer.email != "writer@example.com" {
		t.Fatalf("mailer email = %q", mailer.email)
	}
	if len(mailer.code) != codeLength {
		t.Fatalf("code length = %d", len(mailer.code))
	}

	token, user, err := svc.VerifyCode(ctx, "writer@example.com", mailer.code)
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if token == "" {
		t.Fatalf("expected a session token")
	}
	if user.Email != "writer@example.com" {
		t.Fatalf("user email = %q", user.Email)
	}

	// Codes are single use.
	if _, _, err := svc.VerifyCode(ctx, "writer@example.com", mailer.code); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound on reuse, got %v", err)
	}
}

func TestVerifyCodeWrongCode(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	if err := svc.RequestCode(ctx, "writer@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}

	if _, _, err := svc.VerifyCode(ctx, "writer@example.com", "000000x"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}

	// The correct code still works after one bad attempt.
	if _, _, err := svc.VerifyCode(ctx, "writer@example.com", mailer.code); err != nil {
		t.Fatalf("VerifyCode after bad attempt: %v", err)
	}
}

func TestVerifyCodeTooManyAttempts(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	if err := svc.RequestCode(ctx, "writer@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}

	for i := 0; i < maxAttempts; i++ {
		if _, _, err := svc.VerifyCode(ctx, "writer@example.com", "wrong-0"); !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i, err)
		}
	}

	if _, _, err := svc.VerifyCode(ctx, "writer@example.com", mailer.code); !errors.Is(err, ErrTooManyTries) {
		t.Fatalf("expected ErrTooManyTries, got %v", err)
	}
}

func TestVerifyCodeExpired(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	codes := svc.Codes
	now := time.Now().UTC()
	if err := codes.Put(ctx, LoginCode{
		Email:     "writer@example.com",
		CodeHash:  hashCode("123456"),
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-11 * time.Minute),
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, _, err := svc.VerifyCode(ctx, "writer@example.com", "123456"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestRequestCodeRejectsInvalidEmail(t *testing.T) {
	svc, _ := newTestService()
	if err := svc.RequestCode(context.Background(), "not-an-email"); err == nil {
		t.Fatalf("expected error for invalid email")
	}
}
