package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateDisplayName = errors.New("display name already taken")
	ErrRoleNotFound         = errors.New("role not found")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapUniqueViolation turns a unique constraint failure on users into the
// matching sentinel. Other errors pass through unchanged.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_display_name_key":
		return ErrDuplicateDisplayName
	case "users_email_lower_key", "users_username_key":
		return ErrDuplicateEmail
	}
	return err
}
