package auth

import (
	"context"
	"database/sql"
	"errors"
)

// PGCodeRepo implements CodeRepo using Postgres.
type PGCodeRepo struct {
	DB *sql.DB
}

// Put upserts the pending code for an email.
func (r *PGCodeRepo) Put(ctx context.Context, code LoginCode) error {
	const query = `
INSERT INTO login_codes (email, code_hash, attempts, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE SET
    code_hash = EXCLUDED.code_hash,
    attempts = EXCLUDED.attempts,
    expires_at = EXCLUDED.expires_at,
    created_at = EXCLUDED.created_at`

	_, err := r.DB.ExecContext(ctx, query,
		normalizeEmail(code.Email),
		code.CodeHash,
		code.Attempts,
		code.ExpiresAt,
		code.CreatedAt,
	)
	return err
}

// Get returns the pending code for an email.
func (r *PGCodeRepo) Get(ctx context.Context, email string) (LoginCode, error) {
	const query = `
SELECT email, code_hash, attempts, expires_at, created_at
FROM login_codes
WHERE email = $1`

	var code LoginCode
	err := r.DB.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(
		&code.Email,
		&code.CodeHash,
		&code.Attempts,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginCode{}, ErrCodeNotFound
		}
		return LoginCode{}, err
	}
	return code, nil
}

// IncrementAttempts bumps the attempt counter.
func (r *PGCodeRepo) IncrementAttempts(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE login_codes SET attempts = attempts + 1 WHERE email = $1`,
		normalizeEmail(email),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// Delete removes the pending code for an email.
func (r *PGCodeRepo) Delete(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM login_codes WHERE email = $1`, normalizeEmail(email))
	return err
}
