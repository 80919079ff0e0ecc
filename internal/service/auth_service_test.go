package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/auth"
	"github.com/authgate/auth-service/internal/config"
	"github.com/authgate/auth-service/internal/domain"
	"github.com/authgate/auth-service/internal/repository"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

type fakeAccountStore struct {
	users map[string]*domain.User
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{users: make(map[string]*domain.User)}
}

func (s *fakeAccountStore) FindByIdentifier(_ context.Context, email string) (*domain.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeAccountStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeAccountStore) ExistsByIdentifier(_ context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *fakeAccountStore) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.Email] = user
	return nil
}

func newTestAccount(email string) *domain.User {
	return &domain.User{
		Name:        "Test User",
		Email:       email,
		Authorities: []string{DefaultAuthority},
		Status:      domain.UserStatusActive,
	}
}

func newTestAuthService(t *testing.T, store repository.UserStore) *AuthService {
	t.Helper()

	raw := make([]byte, 64)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	cfg := config.Config{
		Auth: config.AuthConfig{
			Issuer:                 "test-issuer",
			Secret:                 base64.StdEncoding.EncodeToString(raw),
			MinSecretBytes:         64,
			AccessTokenTTLSeconds:  900,
			RefreshTokenTTLSeconds: 3600,
			ClockSkewSeconds:       60,
			BcryptCost:             4,
		},
	}

	keys, err := auth.LoadKeyMaterial(cfg.Auth, zap.NewNop())
	require.NoError(t, err)
	codec := auth.NewTokenCodec(keys, cfg.Auth, zap.NewNop())

	return NewAuthService(cfg, AuthDependencies{
		Users:     store,
		Validator: NewCredentialValidator(store),
		Codec:     codec,
	}, zap.NewNop())
}

func TestRegisterIssuesTokenPair(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	user, pair, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)
	require.NotNil(t, pair)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, []string{DefaultAuthority}, user.Authorities)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))
	// the stored hash is never the raw password
	assert.NotEqual(t, "Str0ng!Pass", store.users["a@b.com"].PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, _, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "Other User", "a@b.com", "Str0ng!Pass")
	require.Error(t, err)
	assert.Equal(t, errorutil.KindDuplicateEmail, errorutil.KindOf(err))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestAuthService(t, newFakeAccountStore())

	_, _, err := svc.Register(context.Background(), "Test User", "a@b.com", "weak")
	require.Error(t, err)
	assert.Equal(t, errorutil.KindWeakPassword, errorutil.KindOf(err))
}

func TestLoginSuccess(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, _, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)

	user, pair, err := svc.Login(context.Background(), "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, _, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)
	suspended := newTestAccount("s@b.com")
	suspended.Status = domain.UserStatusSuspended
	suspended.PasswordHash = store.users["a@b.com"].PasswordHash
	require.NoError(t, store.Create(context.Background(), suspended))

	cases := map[string][2]string{
		"unknown account": {"ghost@b.com", "Str0ng!Pass"},
		"wrong password":  {"a@b.com", "Wr0ng!Pass1"},
		"suspended":       {"s@b.com", "Str0ng!Pass"},
	}
	for name, c := range cases {
		_, _, err := svc.Login(context.Background(), c[0], c[1])
		require.Error(t, err, name)
		assert.Equal(t, errorutil.KindInvalidCredentials, errorutil.KindOf(err), name)
	}
}

func TestRefreshFlow(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, pair, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)

	user, renewed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.NotEmpty(t, renewed.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, pair, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindTokenInvalid, errorutil.KindOf(err))
}

func TestRefreshUnknownSubject(t *testing.T) {
	store := newFakeAccountStore()
	svc := newTestAuthService(t, store)

	_, pair, err := svc.Register(context.Background(), "Test User", "a@b.com", "Str0ng!Pass")
	require.NoError(t, err)
	delete(store.users, "a@b.com")

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, errorutil.KindPrincipalNotFound, errorutil.KindOf(err))
}
