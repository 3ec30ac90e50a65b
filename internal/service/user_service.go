package service

import (
	"context"
	"strings"
	"time"

	"accounts/api/internal/models"
	"accounts/api/internal/security"
)

type UserService struct {
	users UserStore
	authz *Authorizer
}

func NewUserService(users UserStore, authz *Authorizer) *UserService {
	return &UserService{users: users, authz: authz}
}

// UpdateUserInput carries the fields an owner or admin may change.
type UpdateUserInput struct {
	ID                   string
	Email                string
	EmailConfirmed       bool
	PhoneNumber          *string
	PhoneNumberConfirmed bool
	TermsAgreedTo        bool
	TermsAgreedToOn      time.Time
	LockoutEnabled       bool
	LockoutEnd           *time.Time
}

func (s *UserService) List(ctx context.Context, caller security.Principal) ([]models.User, error) {
	if err := s.authz.Check(ctx, caller, security.AdminOnly()); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, Dependency("list users", err)
	}
	return users, nil
}

// Update applies input to an existing account and returns the stored result.
// A missing target is reported before the caller's rights are checked.
func (s *UserService) Update(ctx context.Context, caller security.Principal, input UpdateUserInput) (models.User, error) {
	user, err := s.users.FindByID(ctx, input.ID)
	if err != nil {
		return models.User{}, mapStoreError(err, "lookup user")
	}
	if err := s.authz.Check(ctx, caller, security.SelfOrAdmin(user.ID)); err != nil {
		return models.User{}, err
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return models.User{}, ErrEmailRequired
	}

	user.Email = email
	user.Username = email
	user.EmailConfirmed = input.EmailConfirmed
	user.PhoneNumber = input.PhoneNumber
	user.PhoneNumberConfirmed = input.PhoneNumberConfirmed
	user.TermsAgreedTo = input.TermsAgreedTo
	user.TermsAgreedToOn = input.TermsAgreedToOn
	user.LockoutEnabled = input.LockoutEnabled
	user.LockoutEnd = input.LockoutEnd

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, mapStoreError(err, "update user")
	}

	updated, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return models.User{}, mapStoreError(err, "reload user")
	}
	return updated, nil
}
