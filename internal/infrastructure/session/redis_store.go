// Package session хранит состояние мастера оформления заказа.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
	"github.com/ignatzorin/atelier-backend/internal/usecase/wizard"
)

const keyPrefix = "wizard_session:"

// RedisStore хранит сессии в Redis в виде JSON с TTL. TTL продлевается при каждом сохранении.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: некорректный REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("session: не удалось подключиться к Redis: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, st *wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	return s.rdb.Set(ctx, keyPrefix+st.ID.String(), data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id uuid.UUID) (*wizard.State, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var st wizard.State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &st, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, keyPrefix+id.String()).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// PingContext проверяет соединение с Redis для /health.
func (s *RedisStore) PingContext(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
