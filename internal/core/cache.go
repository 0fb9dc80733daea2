// AngelaMos | 2026
// cache.go

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a read-through JSON cache over Redis. Keys live in namespaces
// carrying a version counter; Invalidate bumps the version so every key
// written before the bump is unreachable and left to expire.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	sf  singleflight.Group
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	if err := c.rdb.Incr(ctx, versionKey(namespace)).Err(); err != nil {
		return fmt.Errorf("invalidate cache %s: %w", namespace, err)
	}

	return nil
}

func (c *Cache) key(ctx context.Context, namespace, identity string) (string, error) {
	version, err := c.rdb.Get(ctx, versionKey(namespace)).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"cache:%s:v%s:%s",
		namespace,
		version,
		strconv.FormatUint(xxhash.Sum64String(identity), 16),
	), nil
}

// GetOrLoadJSON returns the cached value for (namespace, identity) or runs
// load, sharing one in-flight load per key. Redis failures fall through to
// load so the cache never makes a read fail.
func GetOrLoadJSON[T any](
	ctx context.Context,
	c *Cache,
	namespace, identity string,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}

	key, err := c.key(ctx, namespace, identity)
	if err != nil {
		slog.Warn("cache key lookup failed", "namespace", namespace, "error", err)
		return load(ctx)
	}

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var out T
		if jsonErr := json.Unmarshal(b, &out); jsonErr == nil {
			return out, nil
		}
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		out, loadErr := load(ctx)
		if loadErr != nil {
			return out, loadErr
		}

		if b, jsonErr := json.Marshal(out); jsonErr == nil {
			//nolint:errcheck // best-effort cache fill
			_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache %s: unexpected value type", namespace)
	}

	return out, nil
}

func versionKey(namespace string) string {
	return "cache:" + namespace + ":version"
}
