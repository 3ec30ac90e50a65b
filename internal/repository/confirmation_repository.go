package repository

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accounts/api/internal/security"
)

const confirmationTTL = 24 * time.Hour

type ConfirmationRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewConfirmationRepository(pool *pgxpool.Pool) *ConfirmationRepository {
	return &ConfirmationRepository{pool: pool, now: time.Now}
}

// GenerateConfirmationCode replaces any outstanding code for the user and
// returns the new one. Only its digest is stored.
func (r *ConfirmationRepository) GenerateConfirmationCode(ctx context.Context, userID string) (string, error) {
	const query = `
		INSERT INTO email_confirmations (user_id, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			code_hash = EXCLUDED.code_hash,
			expires_at = EXCLUDED.expires_at,
			created_at = NOW()
	`

	code, hash, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}
	if _, err := r.pool.Exec(ctx, query, userID, hash, r.now().Add(confirmationTTL)); err != nil {
		return "", err
	}
	return code, nil
}

// ConfirmEmail consumes a matching, unexpired code and marks the address
// confirmed. A wrong or stale code yields false without error.
func (r *ConfirmationRepository) ConfirmEmail(ctx context.Context, userID string, code string) (bool, error) {
	const selectQuery = `
		SELECT code_hash, expires_at FROM email_confirmations
		WHERE user_id = $1
		FOR UPDATE
	`
	const confirmQuery = `UPDATE users SET email_confirmed = TRUE, updated_at = NOW() WHERE id = $1`
	const consumeQuery = `DELETE FROM email_confirmations WHERE user_id = $1`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var (
		stored    []byte
		expiresAt time.Time
	)
	if err := tx.QueryRow(ctx, selectQuery, userID).Scan(&stored, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if subtle.ConstantTimeCompare(stored, security.HashOpaqueToken(code)) != 1 {
		return false, nil
	}
	if !r.now().Before(expiresAt) {
		return false, nil
	}

	if _, err := tx.Exec(ctx, confirmQuery, userID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx, consumeQuery, userID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
