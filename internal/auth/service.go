package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	sharedauth "journal-backend/internal/shared/auth"
	"journal-backend/internal/shared/telemetry"
	"journal-backend/internal/users"
)

const (
	codeLength  = 6
	codeTTL     = 10 * time.Minute
	maxAttempts = 5
)

// Service implements one-time-password email login.
type Service struct {
	Codes  CodeRepo
	Mailer Mailer
	Users  *users.Service
}

// NewService constructs an OTP login service.
func NewService(codes CodeRepo, mailer Mailer, userSvc *users.Service) *Service {
	return &Service{Codes: codes, Mailer: mailer, Users: userSvc}
}

// RequestCode generates a one-time code for the email and delivers it.
// Any previous pending code for the email is replaced.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return errors.New("invalid email address")
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := time.Now().UTC()
	if err := s.Codes.Put(ctx, LoginCode{
		Email:     email,
		CodeHash:  hashCode(code),
		ExpiresAt: now.Add(codeTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if err := s.Mailer.SendLoginCode(ctx, email, code); err != nil {
		// Remove the unusable code so a retry issues a fresh one.
		_ = s.Codes.Delete(ctx, email)
		return fmt.Errorf("send code: %w", err)
	}

	telemetry.Info("auth.code_requested", map[string]any{"email": email})
	return nil
}

// VerifyCode checks a submitted code and, on success, consumes it, upserts
// the user, and issues a signed session token.
func (s *Service) VerifyCode(ctx context.Context, email, submitted string) (string, users.User, error) {
	email = normalizeEmail(email)
	submitted = strings.TrimSpace(submitted)
	if email == "" || submitted == "" {
		return "", users.User{}, ErrCodeInvalid
	}

	pending, err := s.Codes.Get(ctx, email)
	if err != nil {
		return "", users.User{}, err
	}
	if time.Now().UTC().After(pending.ExpiresAt) {
		_ = s.Codes.Delete(ctx, email)
		return "", users.User{}, ErrCodeExpired
	}
	if pending.Attempts >= maxAttempts {
		_ = s.Codes.Delete(ctx, email)
		return "", users.User{}, ErrTooManyTries
	}

	if !hmac.Equal([]byte(hashCode(submitted)), []byte(pending.CodeHash)) {
		_ = s.Codes.IncrementAttempts(ctx, email)
		return "", users.User{}, ErrCodeInvalid
	}

	// Single use.
	if err := s.Codes.Delete(ctx, email); err != nil {
		return "", users.User{}, err
	}

	user := users.User{
		ID:    "email:" + hashEmail(email),
		Email: email,
	}
	if s.Users != nil {
		if existing, err := s.Users.GetByEmail(ctx, email); err == nil {
			user = existing
		}
		if err := s.Users.UpsertFromAuth(ctx, user); err != nil {
			return "", users.User{}, fmt.Errorf("upsert user: %w", err)
		}
	}

	token, err := sharedauth.SignJWT(sharedauth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
	})
	if err != nil {
		return "", users.User{}, fmt.Errorf("sign token: %w", err)
	}

	telemetry.Info("auth.code_verified", map[string]any{"email": email, "user_id": user.ID})
	return token, user, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(normalizeEmail(email)))
	return hex.EncodeToString(sum[:16])
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
