package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/domain"
)

type countingStore struct {
	users map[string]*domain.User
	finds int
}

func (s *countingStore) FindByIdentifier(_ context.Context, email string) (*domain.User, error) {
	s.finds++
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, ErrUserNotFound
}

func (s *countingStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *countingStore) ExistsByIdentifier(_ context.Context, email string) (bool, error) {
	_, ok := s.users[email]
	return ok, nil
}

func (s *countingStore) Create(_ context.Context, user *domain.User) error {
	s.users[user.Email] = user
	return nil
}

func newCacheFixture(t *testing.T) (*countingStore, UserStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	source := &countingStore{users: map[string]*domain.User{
		"a@b.com": {
			ID:          "00000000-0000-0000-0000-000000000001",
			Name:        "Test User",
			Email:       "a@b.com",
			Authorities: []string{"ROLE_USER"},
			Status:      domain.UserStatusActive,
		},
	}}
	return source, NewCachedUserStore(source, client, time.Minute, zap.NewNop())
}

func TestCachedStoreMemoizesLookups(t *testing.T) {
	source, cached := newCacheFixture(t)
	ctx := context.Background()

	first, err := cached.FindByIdentifier(ctx, "a@b.com")
	require.NoError(t, err)
	second, err := cached.FindByIdentifier(ctx, "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, source.finds, "second lookup must be served from cache")
}

func TestCachedStoreMissIsNotCached(t *testing.T) {
	source, cached := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.FindByIdentifier(ctx, "ghost@b.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = cached.FindByIdentifier(ctx, "ghost@b.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, 2, source.finds)
}

func TestCachedStoreCreateInvalidates(t *testing.T) {
	source, cached := newCacheFixture(t)
	ctx := context.Background()

	_, err := cached.FindByIdentifier(ctx, "a@b.com")
	require.NoError(t, err)

	updated := &domain.User{
		ID:     "00000000-0000-0000-0000-000000000001",
		Name:   "Renamed User",
		Email:  "a@b.com",
		Status: domain.UserStatusActive,
	}
	require.NoError(t, cached.Create(ctx, updated))

	user, err := cached.FindByIdentifier(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", user.Name)
	assert.Equal(t, 2, source.finds, "cache entry must be dropped on write")
}

func TestNilClientReturnsSourceUnchanged(t *testing.T) {
	source := &countingStore{users: map[string]*domain.User{}}
	assert.Equal(t, UserStore(source), NewCachedUserStore(source, nil, time.Minute, zap.NewNop()))
}
