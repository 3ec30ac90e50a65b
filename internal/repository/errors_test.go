package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapUniqueViolation(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "plain error", err: plain, want: plain},
		{name: "email index", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"}, want: ErrDuplicateEmail},
		{name: "username", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, want: ErrDuplicateEmail},
		{name: "display name", err: &pgconn.PgError{Code: "23505", ConstraintName: "users_display_name_key"}, want: ErrDuplicateDisplayName},
		{name: "wrapped display name", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_display_name_key"}), want: ErrDuplicateDisplayName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapUniqueViolation(tt.err)
			if !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("mapUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapUniqueViolation_OtherConstraintPassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "user_roles_pkey"}
	got := mapUniqueViolation(pgErr)
	var asPg *pgconn.PgError
	if !errors.As(got, &asPg) {
		t.Fatalf("mapUniqueViolation() = %v, want the PgError unchanged", got)
	}
}

func TestMapUniqueViolation_OtherCodePassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "users_display_name_key"}
	if got := mapUniqueViolation(pgErr); errors.Is(got, ErrDuplicateDisplayName) {
		t.Error("foreign key violation mapped to duplicate display name")
	}
}
