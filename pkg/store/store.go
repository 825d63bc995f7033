package store

import (
	"context"
	"errors"
	"fmt"

	"gfimx/policyd/pkg/config"
)

// ErrNotFound is returned by Fetch when no policy is stored for a client.
var ErrNotFound = errors.New("policy not found")

// Store is where accepted policies are published for clients to read.
type Store interface {
	// Publish stores the raw policy text for client, replacing any
	// previous version.
	Publish(ctx context.Context, client, policy string) error

	// Fetch returns the policy currently stored for client.
	Fetch(ctx context.Context, client string) (string, error)

	// Close releases the store's resources.
	Close() error
}

// Key returns the key a client's policy is stored under: the client name
// followed by suffix, e.g. "web-01_policy".
func Key(client, suffix string) string {
	if suffix == "" {
		suffix = config.DefaultRedisKeySuffix
	}
	return client + suffix
}

// New creates the store selected by cfg.Backend.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "redis", "":
		return NewRedisStore(cfg.Redis), nil
	case "memory":
		return NewMemoryStore(cfg.Redis.KeySuffix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
