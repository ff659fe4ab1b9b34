package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock implements Locker with SET NX PX and a per-acquisition owner token.
type RedisLock struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLock connects to Redis and verifies the connection.
func NewRedisLock(ctx context.Context, opts ...RedisOption) (*RedisLock, error) {
	cfg := defaultRedisConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisLockFromClient(client, cfg.Prefix), nil
}

// NewRedisLockFromClient wraps an existing client.
func NewRedisLockFromClient(client *redis.Client, prefix string) *RedisLock {
	return &RedisLock{client: client, prefix: prefix, tokens: map[string]string{}}
}

// Client returns underlying redis client.
func (l *RedisLock) Client() *redis.Client {
	return l.client
}

// Health pings Redis.
func (l *RedisLock) Health(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (l *RedisLock) Close() error {
	return l.client.Close()
}

func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.wrapKey(key), token, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return ok, nil
}

func (l *RedisLock) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return ErrLockNotHeld
	}

	n, err := releaseScript.Run(ctx, l.client, []string{l.wrapKey(key)}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		// expired and possibly re-acquired by another holder
		return ErrLockNotHeld
	}
	return nil
}

func (l *RedisLock) wrapKey(key string) string {
	if l.prefix == "" {
		return key
	}
	return l.prefix + ":" + key
}
