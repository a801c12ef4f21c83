// Package store provides the durable key-value backends that hold the CLI's
// tokens and preferences.
package store

import (
	"context"

	"ojclient/internal/cli/config"
	"ojclient/pkg/errors"
)

// Store is a small durable string map. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// New opens the backend selected by cfg.Driver.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.DSN)
	case "sqlite":
		return NewSQLiteStore(cfg.DSN)
	case "redis":
		redisCfg := DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		redisCfg.Prefix = cfg.Prefix
		return NewRedisStore(redisCfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.InvalidValue, "unknown store driver %q", cfg.Driver)
	}
}

func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, errors.StateStoreError, "%s failed: %v", op, err)
}

func closedErr(op string) error {
	return errors.New(errors.StateStoreClosed).WithDetail("op", op)
}

func keyErr(key string) error {
	if key == "" {
		return errors.ValidationError("key", "must not be empty")
	}
	return nil
}
