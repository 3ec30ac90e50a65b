package service

import (
	"context"
	"errors"

	"accounts/api/internal/repository"
	"accounts/api/internal/security"
)

// Authorizer resolves the caller's current roles and applies a rule. Roles
// embedded in the token are ignored here.
type Authorizer struct {
	users UserStore
	roles RoleStore
}

func NewAuthorizer(users UserStore, roles RoleStore) *Authorizer {
	return &Authorizer{users: users, roles: roles}
}

func (a *Authorizer) Check(ctx context.Context, caller security.Principal, rule security.Rule) error {
	if rule.SatisfiedBySelf(caller.ID) {
		return nil
	}
	roles, err := a.currentRoles(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !security.Allowed(caller.ID, roles, rule) {
		return ErrUnauthorized
	}
	return nil
}

// IsAdmin reports whether the caller holds the Admin role right now. An
// unknown caller is unauthorized rather than merely not an admin.
func (a *Authorizer) IsAdmin(ctx context.Context, caller security.Principal) (bool, error) {
	roles, err := a.currentRoles(ctx, caller.ID)
	if err != nil {
		return false, err
	}
	return security.Allowed(caller.ID, roles, security.AdminOnly()), nil
}

func (a *Authorizer) currentRoles(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := a.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, Dependency("load caller", err)
	}
	roles, err := a.roles.GetRoles(ctx, userID)
	if err != nil {
		return nil, Dependency("load caller roles", err)
	}
	return roles, nil
}
