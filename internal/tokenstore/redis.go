package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/profile-session/internal/config"
)

// NewRedisClient подключается к redis и проверяет соединение.
func NewRedisClient(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "tokenstore.NewRedisClient"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// RedisStore хранит значения одного устройства в redis.
// Устройство определяется идентификатором sid; ключи живут ttl.
type RedisStore struct {
	Db  *redis.Client
	sid string
	ns  string
	ttl time.Duration
}

// NewRedisStore создаёт хранилище для устройства sid с префиксом ключей prefix.
func NewRedisStore(db *redis.Client, prefix, sid string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		Db:  db,
		sid: sid,
		ns:  fmt.Sprintf("%s:%s", prefix, sid),
		ttl: ttl,
	}
}

// SID возвращает идентификатор устройства.
func (s *RedisStore) SID() string {
	return s.sid
}

func (s *RedisStore) tokenKey() string {
	return s.ns + ":token"
}

func (s *RedisStore) profileKey() string {
	return s.ns + ":profile_id"
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, "tokenstore.RedisStore.Token", s.tokenKey())
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	return s.set(ctx, "tokenstore.RedisStore.SetToken", s.tokenKey(), token)
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	const op = "tokenstore.RedisStore.ClearToken"
	if err := s.Db.Del(ctx, s.tokenKey()).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) ProfileID(ctx context.Context) (string, error) {
	return s.get(ctx, "tokenstore.RedisStore.ProfileID", s.profileKey())
}

func (s *RedisStore) SetProfileID(ctx context.Context, id string) error {
	const op = "tokenstore.RedisStore.SetProfileID"
	if id == "" {
		if err := s.Db.Del(ctx, s.profileKey()).Err(); err != nil {
			return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
		return nil
	}
	return s.set(ctx, op, s.profileKey(), id)
}

func (s *RedisStore) get(ctx context.Context, op, key string) (string, error) {
	val, err := s.Db.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return val, nil
}

func (s *RedisStore) set(ctx context.Context, op, key, value string) error {
	if err := s.Db.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return nil
}
