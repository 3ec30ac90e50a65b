package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"accounts/api/internal/ids"
	"accounts/api/internal/models"
	"accounts/api/internal/repository"
	"accounts/api/internal/security"
)

type AccountService struct {
	users         UserStore
	roles         RoleStore
	confirmations ConfirmationStore
	tokens        TokenIssuer
	notifier      AccountNotifier
	log           zerolog.Logger
	now           func() time.Time
}

func NewAccountService(
	users UserStore,
	roles RoleStore,
	confirmations ConfirmationStore,
	tokens TokenIssuer,
	notifier AccountNotifier,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:         users,
		roles:         roles,
		confirmations: confirmations,
		tokens:        tokens,
		notifier:      notifier,
		log:           log.With().Str("component", "accounts").Logger(),
		now:           time.Now,
	}
}

type SignUpInput struct {
	Email         string
	DisplayName   string
	Password      string
	TermsAgreedTo bool
}

type SignInInput struct {
	Email    string
	Password string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// SignUp registers a new account and returns a session token for it.
// Pre-checks run in a fixed order and the first failure wins.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (string, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return "", ErrEmailRequired
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return "", ErrEmailUnavailable
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", Dependency("lookup email", err)
	}

	if !input.TermsAgreedTo {
		return "", ErrTermsRequired
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		return "", ErrDisplayNameRequired
	}
	if _, err := s.users.FindByDisplayName(ctx, displayName); err == nil {
		return "", ErrDisplayNameUnavailable
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", Dependency("lookup display name", err)
	}

	if err := security.CheckPasswordComposition(input.Password); err != nil {
		return "", policyError(err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:                  ids.New(),
		Email:               email,
		Username:            email,
		DisplayName:         displayName,
		TermsAgreedTo:       true,
		TermsAgreedToOn:     now,
		PasswordLastChanged: now,
		LockoutEnabled:      true,
		JoinedOn:            now,
	}
	if err := s.users.SetPassword(ctx, &user, input.Password); err != nil {
		return "", Dependency("set password", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", mapStoreError(err, "create user")
	}

	roles, err := s.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return "", Dependency("load roles", err)
	}
	token, err := s.tokens.Issue(user, roles)
	if err != nil {
		return "", Dependency("issue token", err)
	}

	s.sendConfirmation(ctx, user)

	s.log.Info().Str("user_id", user.ID).Msg("account created")
	return token, nil
}

func (s *AccountService) sendConfirmation(ctx context.Context, user models.User) {
	code, err := s.confirmations.GenerateConfirmationCode(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("generate confirmation code failed")
		return
	}
	s.notifier.EmailConfirmation(ctx, user, EncodeConfirmationCode(code))
}

// SignIn authenticates by exact username. A locked-out account is refused
// before its password is checked.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", Dependency("lookup user", err)
	}

	if user.LockedOut() {
		return "", ErrLockedOut
	}

	ok, err := s.users.VerifyPassword(ctx, user, input.Password)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return "", ErrBadCredentials
	}
	if !ok {
		return "", ErrBadCredentials
	}

	roles, err := s.roles.GetRoles(ctx, user.ID)
	if err != nil {
		return "", Dependency("load roles", err)
	}
	token, err := s.tokens.Issue(user, roles)
	if err != nil {
		return "", Dependency("issue token", err)
	}
	return token, nil
}

// ChangePassword replaces the caller's own password and notifies them.
func (s *AccountService) ChangePassword(ctx context.Context, caller security.Principal, input ChangePasswordInput) error {
	if input.CurrentPassword == "" {
		return ErrCurrentPasswordMissing
	}
	if err := security.CheckPasswordChange(input.NewPassword, input.ConfirmPassword); err != nil {
		return policyError(err)
	}

	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return mapStoreError(err, "lookup user")
	}

	ok, err := s.users.VerifyPassword(ctx, user, input.CurrentPassword)
	if err != nil || !ok {
		return ErrPasswordChangeFailed
	}
	if err := s.users.SetPassword(ctx, &user, input.NewPassword); err != nil {
		return ErrPasswordChangeFailed
	}
	user.PasswordLastChanged = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return mapStoreError(err, "update password")
	}

	s.notifier.PasswordChanged(ctx, user)
	return nil
}

// ConfirmEmail checks a URL-safe encoded code for the caller.
func (s *AccountService) ConfirmEmail(ctx context.Context, caller security.Principal, encoded string) error {
	if encoded == "" {
		return ErrCodeRequired
	}
	if _, err := s.users.FindByID(ctx, caller.ID); err != nil {
		return mapStoreError(err, "lookup user")
	}

	code, err := DecodeConfirmationCode(encoded)
	if err != nil {
		return ErrConfirmationFailed
	}
	ok, err := s.confirmations.ConfirmEmail(ctx, caller.ID, code)
	if err != nil {
		return Dependency("confirm email", err)
	}
	if !ok {
		return ErrConfirmationFailed
	}
	return nil
}

func (s *AccountService) GetAccount(ctx context.Context, caller security.Principal) (models.User, error) {
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return models.User{}, mapStoreError(err, "lookup user")
	}
	return user, nil
}

// EncodeConfirmationCode wraps a stored code for transport in a URL.
func EncodeConfirmationCode(code string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(code))
}

func DecodeConfirmationCode(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func policyError(err error) error {
	var violation *security.PolicyViolation
	if errors.As(err, &violation) {
		return &Error{Kind: KindValidation, Reason: violation.Error(), Err: violation}
	}
	return Dependency("password policy", err)
}

// mapStoreError converts repository sentinels into client-facing errors.
func mapStoreError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrEmailUnavailable
	case errors.Is(err, repository.ErrDuplicateDisplayName):
		return ErrDisplayNameUnavailable
	}
	return Dependency(op, err)
}
