package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenKey is the single storage key holding the bearer token.
const TokenKey = "access_token"

// TokenStorage persists the bearer token of one browser session.
// An empty token from Get means no session.
type TokenStorage interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// StorageFactory builds the TokenStorage for a browser session id.
type StorageFactory func(sid string) TokenStorage

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[TokenKey], nil
}

func (m *MemoryStorage) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[TokenKey] = token
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, TokenKey)
	return nil
}

// redisKV is the subset of redis.Cmdable used for token storage.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStorage struct {
	rdb redisKV
	key string
	ttl time.Duration
}

func NewRedisStorage(rdb redisKV, sid string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		rdb: rdb,
		key: "session:" + sid + ":" + TokenKey,
		ttl: ttl,
	}
}

// RedisStorageFactory keys every browser session into the same Redis.
func RedisStorageFactory(rdb redisKV, ttl time.Duration) StorageFactory {
	return func(sid string) TokenStorage {
		return NewRedisStorage(rdb, sid, ttl)
	}
}

// MemoryStorageFactory is used when Redis is not configured.
func MemoryStorageFactory() StorageFactory {
	return func(string) TokenStorage {
		return NewMemoryStorage()
	}
}

func (s *RedisStorage) Get(ctx context.Context) (string, error) {
	token, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

func (s *RedisStorage) Set(ctx context.Context, token string) error {
	if err := s.rdb.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
