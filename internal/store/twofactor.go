package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// TwoFactorCode is a pending verification code, stored hashed.
type TwoFactorCode struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
}

// TwoFactorRepository keeps at most one pending code per email.
type TwoFactorRepository struct {
	db *sql.DB
}

func NewTwoFactorRepository(db *sql.DB) *TwoFactorRepository {
	return &TwoFactorRepository{db: db}
}

func (r *TwoFactorRepository) Save(ctx context.Context, code TwoFactorCode) error {
	const query = `
		INSERT INTO two_factor_codes (email, code_hash, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at`
	_, err := r.db.ExecContext(ctx, query, strings.ToLower(code.Email), code.CodeHash, code.ExpiresAt)
	return err
}

func (r *TwoFactorRepository) Get(ctx context.Context, email string) (TwoFactorCode, error) {
	const query = `SELECT email, code_hash, expires_at FROM two_factor_codes WHERE email = $1`
	var code TwoFactorCode
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&code.Email, &code.CodeHash, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TwoFactorCode{}, ErrNotFound
		}
		return TwoFactorCode{}, err
	}
	return code, nil
}

func (r *TwoFactorRepository) Delete(ctx context.Context, email string) error {
	const query = `DELETE FROM two_factor_codes WHERE email = $1`
	_, err := r.db.ExecContext(ctx, query, strings.ToLower(email))
	return err
}
