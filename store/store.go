// Package store provides the key/value contract snippets are persisted
// through, with in-memory, Redis and PostgreSQL backends.
//
// Keys are plain strings; callers namespace them with a prefix (for
// example "codepit:snippet:") and enumerate a namespace with Keys.
//
//	kv, err := store.Open(ctx, "redis://localhost:6379/0")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

var (
	ErrNotFound       = errors.New("key not found")
	ErrKeyTooLarge    = errors.New("key exceeds max size")
	ErrValueTooLarge  = errors.New("value exceeds max size")
	ErrTooManyEntries = errors.New("max entries exceeded")
	ErrEmptyKey       = errors.New("key required")
)

// KV is a minimal key/value store.
type KV interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, in lexical order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Open returns a KV for dsn. Supported schemes are memory://,
// redis:// (or rediss://) and postgres:// (or postgresql://). An empty dsn
// selects the in-memory store.
func Open(ctx context.Context, dsn string) (KV, error) {
	if dsn == "" {
		return NewMemory(DefaultMemoryConfig()), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemory(DefaultMemoryConfig()), nil
	case "redis", "rediss":
		// prefix is ours; go-redis rejects unknown options
		q := u.Query()
		namespace := q.Get("prefix")
		q.Del("prefix")
		u.RawQuery = q.Encode()
		r, err := OpenRedis(ctx, u.String(), namespace)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "postgres", "postgresql":
		db, err := ConnectPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported store scheme: %q", u.Scheme)
	}
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
