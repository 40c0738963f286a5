package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/farlliant/tokopos-backend/pkg/auth"
	"github.com/farlliant/tokopos-backend/pkg/config"
	"github.com/farlliant/tokopos-backend/pkg/db/models"
	"github.com/farlliant/tokopos-backend/pkg/enums"
	pkgerrors "github.com/farlliant/tokopos-backend/pkg/errors"
	"github.com/farlliant/tokopos-backend/pkg/security"
)

type fakeAccountRepo struct {
	byEmail    map[string]*models.Account
	lastLogins map[uuid.UUID]time.Time
}

func newFakeAccountRepo(accounts ...*models.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{
		byEmail:    make(map[string]*models.Account),
		lastLogins: make(map[uuid.UUID]time.Time),
	}
	for _, account := range accounts {
		repo.byEmail[account.Email] = account
	}
	return repo
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	account, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	r.lastLogins[id] = at
	return nil
}

type fakeSessionManager struct {
	started map[string]uuid.UUID
	revoked []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{started: make(map[string]uuid.UUID)}
}

func (m *fakeSessionManager) Start(_ context.Context, accessID string, accountID uuid.UUID) error {
	m.started[accessID] = accountID
	return nil
}

func (m *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	m.revoked = append(m.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "tokopos-test",
		ExpirationMinutes: 30,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testAccount(t *testing.T, password string) *models.Account {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)

	return &models.Account{
		ID:           uuid.New(),
		Username:     "kasir1",
		Email:        "kasir1@toko.example",
		PasswordHash: hash,
		Role:         enums.RoleStaff,
		Balance:      decimal.Zero,
		IsActive:     true,
		DateJoined:   time.Now().UTC(),
	}
}

func newTestService(t *testing.T, repo *fakeAccountRepo, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		AccountRepo:    repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	account := testAccount(t, "correct horse battery")
	repo := newFakeAccountRepo(account)
	sessions := newFakeSessionManager()
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Kasir1@toko.example",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, account.ID, resp.Account.ID)
	assert.NotNil(t, resp.Account.LastLogin)
	assert.Contains(t, repo.lastLogins, account.ID)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, enums.RoleStaff, claims.Role)
	require.NotEmpty(t, claims.ID)

	startedFor, ok := sessions.started[claims.ID]
	require.True(t, ok, "session should be keyed by the token jti")
	assert.Equal(t, account.ID, startedFor)
}

func TestLoginUnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	account := testAccount(t, "correct horse battery")
	repo := newFakeAccountRepo(account)
	svc := newTestService(t, repo, newFakeSessionManager())

	_, unknownErr := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@toko.example",
		Password: "correct horse battery",
	})
	require.Error(t, unknownErr)

	_, wrongErr := svc.Login(context.Background(), LoginRequest{
		Email:    account.Email,
		Password: "not the password",
	})
	require.Error(t, wrongErr)

	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(unknownErr).Code())
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(wrongErr).Code())
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginUnknownEmailStillPaysHashVerification(t *testing.T) {
	account := testAccount(t, "correct horse battery")
	repo := newFakeAccountRepo(account)
	svc := newTestService(t, repo, newFakeSessionManager())

	inner := svc.(*service)
	var verifyCalls int
	realVerify := inner.verify
	inner.verify = func(password, encoded string) (bool, error) {
		verifyCalls++
		return realVerify(password, encoded)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@toko.example",
		Password: "correct horse battery",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.Equal(t, 1, verifyCalls, "a lookup miss must still run one password verification")

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    account.Email,
		Password: "not the password",
	})
	require.Error(t, err)
	assert.Equal(t, 2, verifyCalls, "both rejection paths run exactly one verification")
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	account := testAccount(t, "correct horse battery")
	account.IsActive = false
	repo := newFakeAccountRepo(account)
	svc := newTestService(t, repo, newFakeSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    account.Email,
		Password: "correct horse battery",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := newFakeSessionManager()
	svc := newTestService(t, newFakeAccountRepo(), sessions)

	require.NoError(t, svc.Logout(context.Background(), "access-123"))
	assert.Equal(t, []string{"access-123"}, sessions.revoked)

	err := svc.Logout(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
