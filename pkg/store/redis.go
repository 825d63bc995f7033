package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"gfimx/policyd/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisStore publishes policies as plain string values, the form monitoring
// clients read with GET.
type RedisStore struct {
	client       *redis.Client
	suffix       string
	ttl          time.Duration
	writeTimeout time.Duration
}

// NewRedisStore creates a store for the configured server. The connection
// is established on first use; call Ping to check it eagerly.
func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return NewRedisStoreFromClient(client, cfg.KeySuffix, cfg.TTL, cfg.WriteTimeout)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, suffix string, ttl, writeTimeout time.Duration) *RedisStore {
	return &RedisStore{
		client:       client,
		suffix:       suffix,
		ttl:          ttl,
		writeTimeout: writeTimeout,
	}
}

// Ping checks that the server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", s.client.Options().Addr, err)
	}
	return nil
}

// Publish sets the client's key to policy. A configured TTL is applied on
// every write.
func (s *RedisStore) Publish(ctx context.Context, client, policy string) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	key := Key(client, s.suffix)
	if err := s.client.Set(ctx, key, policy, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Fetch reads the client's key. A missing key yields ErrNotFound.
func (s *RedisStore) Fetch(ctx context.Context, client string) (string, error) {
	key := Key(client, s.suffix)
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
