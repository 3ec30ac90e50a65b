package service

import (
	"context"
	"io"

	"accounts/api/internal/models"
	"accounts/api/internal/repository"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByDisplayName(ctx context.Context, displayName string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) error
	Update(ctx context.Context, user models.User) error
	VerifyPassword(ctx context.Context, user models.User, password string) (bool, error)
	SetPassword(ctx context.Context, user *models.User, password string) error
}

type RoleStore interface {
	GetRoles(ctx context.Context, userID string) ([]string, error)
}

type ConfirmationStore interface {
	GenerateConfirmationCode(ctx context.Context, userID string) (string, error)
	ConfirmEmail(ctx context.Context, userID string, code string) (bool, error)
}

type LoginStore interface {
	Record(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error)
	Query(ctx context.Context, filter repository.LoginFilter) ([]models.LoginEvent, error)
}

// AccountNotifier sends account emails. Implementations never fail the caller.
type AccountNotifier interface {
	EmailConfirmation(ctx context.Context, user models.User, code string)
	PasswordChanged(ctx context.Context, user models.User)
}

type TokenIssuer interface {
	Issue(user models.User, roles []string) (string, error)
}

// ArchiveStore persists login exports.
type ArchiveStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) error
}

var (
	_ UserStore         = (*repository.UserRepository)(nil)
	_ RoleStore         = (*repository.RoleRepository)(nil)
	_ ConfirmationStore = (*repository.ConfirmationRepository)(nil)
	_ LoginStore        = (*repository.LoginRepository)(nil)
)
