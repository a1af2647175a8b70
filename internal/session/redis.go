package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cx-tal-miterani/airline-reservation/internal/auth"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so multiple server instances share one
// session space. Expiry is enforced by the key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, ac auth.AuthContext) (string, error) {
	token := uuid.New().String()

	payload, err := json.Marshal(ac)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*auth.AuthContext, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var ac auth.AuthContext
	if err := json.Unmarshal(payload, &ac); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &ac, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
