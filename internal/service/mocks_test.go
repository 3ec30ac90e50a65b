package service

import (
	"context"
	"io"

	"accounts/api/internal/models"
	"accounts/api/internal/repository"
	"accounts/api/internal/security"
)

type mockUserStore struct {
	findByIDFn          func(ctx context.Context, id string) (models.User, error)
	findByEmailFn       func(ctx context.Context, email string) (models.User, error)
	findByUsernameFn    func(ctx context.Context, username string) (models.User, error)
	findByDisplayNameFn func(ctx context.Context, displayName string) (models.User, error)
	listFn              func(ctx context.Context) ([]models.User, error)
	createFn            func(ctx context.Context, user models.User) error
	updateFn            func(ctx context.Context, user models.User) error
	verifyPasswordFn    func(ctx context.Context, user models.User, password string) (bool, error)

	calls int
}

var _ UserStore = (*mockUserStore)(nil)

func (m *mockUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	m.calls++
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	m.calls++
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *mockUserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	m.calls++
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *mockUserStore) FindByDisplayName(ctx context.Context, displayName string) (models.User, error) {
	m.calls++
	if m.findByDisplayNameFn != nil {
		return m.findByDisplayNameFn(ctx, displayName)
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *mockUserStore) List(ctx context.Context) ([]models.User, error) {
	m.calls++
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserStore) Create(ctx context.Context, user models.User) error {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserStore) Update(ctx context.Context, user models.User) error {
	m.calls++
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserStore) VerifyPassword(ctx context.Context, user models.User, password string) (bool, error) {
	m.calls++
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(ctx, user, password)
	}
	return security.VerifyPassword(password, user.PasswordHash)
}

// SetPassword uses cheap hashing parameters to keep tests fast.
func (m *mockUserStore) SetPassword(_ context.Context, user *models.User, password string) error {
	m.calls++
	hash, err := security.HashPasswordWithParams(password, testArgon2Params)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

var testArgon2Params = security.Argon2Params{
	Time:    1,
	Memory:  1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

type mockRoleStore struct {
	roles map[string][]string
	err   error
}

var _ RoleStore = (*mockRoleStore)(nil)

func (m *mockRoleStore) GetRoles(_ context.Context, userID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roles[userID], nil
}

type mockConfirmationStore struct {
	generateFn func(ctx context.Context, userID string) (string, error)
	confirmFn  func(ctx context.Context, userID, code string) (bool, error)
}

var _ ConfirmationStore = (*mockConfirmationStore)(nil)

func (m *mockConfirmationStore) GenerateConfirmationCode(ctx context.Context, userID string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, userID)
	}
	return "stored-code", nil
}

func (m *mockConfirmationStore) ConfirmEmail(ctx context.Context, userID, code string) (bool, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, userID, code)
	}
	return false, nil
}

type mockLoginStore struct {
	recordFn func(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error)
	queryFn  func(ctx context.Context, filter repository.LoginFilter) ([]models.LoginEvent, error)
}

var _ LoginStore = (*mockLoginStore)(nil)

func (m *mockLoginStore) Record(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, event)
	}
	return event, nil
}

func (m *mockLoginStore) Query(ctx context.Context, filter repository.LoginFilter) ([]models.LoginEvent, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, filter)
	}
	return nil, nil
}

type sentConfirmation struct {
	user models.User
	code string
}

type mockNotifier struct {
	confirmations   []sentConfirmation
	passwordChanges []models.User
}

var _ AccountNotifier = (*mockNotifier)(nil)

func (m *mockNotifier) EmailConfirmation(_ context.Context, user models.User, code string) {
	m.confirmations = append(m.confirmations, sentConfirmation{user: user, code: code})
}

func (m *mockNotifier) PasswordChanged(_ context.Context, user models.User) {
	m.passwordChanges = append(m.passwordChanges, user)
}

type mockIssuer struct {
	issued []models.User
	roles  [][]string
}

var _ TokenIssuer = (*mockIssuer)(nil)

func (m *mockIssuer) Issue(user models.User, roles []string) (string, error) {
	m.issued = append(m.issued, user)
	m.roles = append(m.roles, roles)
	return "token-for-" + user.ID, nil
}

type mockArchive struct {
	objects map[string][]byte
	err     error
}

var _ ArchiveStore = (*mockArchive)(nil)

func (m *mockArchive) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if m.err != nil {
		return m.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = raw
	return nil
}
