package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/authgate/auth-service/internal/domain"
)

const userCacheKeyPrefix = "auth:user:email:"

// cachedUserStore memoizes FindByIdentifier lookups in Redis. The
// authentication gate stays unaware of the cache; invalidation on write is
// this decorator's responsibility.
type cachedUserStore struct {
	next   UserStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserStore wraps next with a Redis read-through cache. A nil
// client returns next unchanged.
func NewCachedUserStore(next UserStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserStore {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedUserStore{next: next, client: client, ttl: ttl, logger: logger}
}

func (s *cachedUserStore) FindByIdentifier(ctx context.Context, email string) (*domain.User, error) {
	key := userCacheKeyPrefix + email

	cached, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var user domain.User
		if unmarshalErr := json.Unmarshal(cached, &user); unmarshalErr == nil {
			return &user, nil
		}
		// corrupt entry, fall through to the source
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := s.next.FindByIdentifier(ctx, email)
	if err != nil {
		return nil, err
	}

	if encoded, marshalErr := json.Marshal(user); marshalErr == nil {
		if setErr := s.client.Set(ctx, key, encoded, s.ttl).Err(); setErr != nil {
			s.logger.Warn("user cache write failed", zap.Error(setErr))
		}
	}
	return user, nil
}

func (s *cachedUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.next.FindByID(ctx, id)
}

func (s *cachedUserStore) ExistsByIdentifier(ctx context.Context, email string) (bool, error) {
	return s.next.ExistsByIdentifier(ctx, email)
}

func (s *cachedUserStore) Create(ctx context.Context, user *domain.User) error {
	if err := s.next.Create(ctx, user); err != nil {
		return err
	}
	s.client.Del(ctx, userCacheKeyPrefix+user.Email)
	return nil
}
