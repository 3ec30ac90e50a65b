package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accounts/api/internal/models"
	"accounts/api/internal/security"
)

const userColumns = `
	id, email, username, display_name, password_hash, email_confirmed,
	phone_number, phone_number_confirmed, terms_agreed_to, terms_agreed_to_on,
	password_last_changed, lockout_enabled, lockout_end, joined_on, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.DisplayName,
		&user.PasswordHash,
		&user.EmailConfirmed,
		&user.PhoneNumber,
		&user.PhoneNumberConfirmed,
		&user.TermsAgreedTo,
		&user.TermsAgreedToOn,
		&user.PasswordLastChanged,
		&user.LockoutEnabled,
		&user.LockoutEnd,
		&user.JoinedOn,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	return scanUser(r.pool.QueryRow(ctx, query, arg))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail matches case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

// FindByUsername matches exactly.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *UserRepository) FindByDisplayName(ctx context.Context, displayName string) (models.User, error) {
	return r.findOne(ctx, "display_name = $1", displayName)
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY joined_on DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, username, display_name, password_hash, email_confirmed,
			phone_number, phone_number_confirmed, terms_agreed_to, terms_agreed_to_on,
			password_last_changed, lockout_enabled, lockout_end, joined_on, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		user.EmailConfirmed,
		user.PhoneNumber,
		user.PhoneNumberConfirmed,
		user.TermsAgreedTo,
		user.TermsAgreedToOn,
		user.PasswordLastChanged,
		user.LockoutEnabled,
		user.LockoutEnd,
		user.JoinedOn,
	)
	return mapUniqueViolation(err)
}

// Update writes every mutable column. The id never changes.
func (r *UserRepository) Update(ctx context.Context, user models.User) error {
	const query = `
		UPDATE users SET
			email = $2,
			username = $3,
			display_name = $4,
			password_hash = $5,
			email_confirmed = $6,
			phone_number = $7,
			phone_number_confirmed = $8,
			terms_agreed_to = $9,
			terms_agreed_to_on = $10,
			password_last_changed = $11,
			lockout_enabled = $12,
			lockout_end = $13,
			updated_at = NOW()
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
		user.EmailConfirmed,
		user.PhoneNumber,
		user.PhoneNumberConfirmed,
		user.TermsAgreedTo,
		user.TermsAgreedToOn,
		user.PasswordLastChanged,
		user.LockoutEnabled,
		user.LockoutEnd,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) VerifyPassword(_ context.Context, user models.User, password string) (bool, error) {
	if len(user.PasswordHash) == 0 {
		return false, nil
	}
	return security.VerifyPassword(password, user.PasswordHash)
}

// SetPassword replaces the credential on user in memory; Create or Update persists it.
func (r *UserRepository) SetPassword(_ context.Context, user *models.User, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}
