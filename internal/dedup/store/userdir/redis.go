package userdir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "caseguard/pkg/domain"
)

const keyPrefix = "caseguard:userdir:"

// Directory is the lookup the cache wraps.
type Directory interface {
	DisplayNames(ctx context.Context, userIDs []id.UserID) (map[id.UserID]string, error)
}

// RedisCache is a read-through cache in front of another Directory. Cache
// failures are logged and fall through to the backing directory; backing
// directory failures are returned.
type RedisCache struct {
	client redis.UniversalClient
	next   Directory
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, next Directory, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, next: next, ttl: ttl, logger: logger}
}

func cacheKey(u id.UserID) string {
	return keyPrefix + u.String()
}

func (c *RedisCache) DisplayNames(ctx context.Context, userIDs []id.UserID) (map[id.UserID]string, error) {
	out := make(map[id.UserID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(userIDs))
	for i, u := range userIDs {
		keys[i] = cacheKey(u)
	}

	missing := userIDs
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "user directory cache read failed", "error", err)
	} else {
		missing = missing[:0:0]
		for i, v := range vals {
			if s, ok := v.(string); ok {
				out[userIDs[i]] = s
				continue
			}
			missing = append(missing, userIDs[i])
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	resolved, err := c.next.DisplayNames(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("resolve display names: %w", err)
	}

	pipe := c.client.Pipeline()
	for u, name := range resolved {
		out[u] = name
		pipe.Set(ctx, cacheKey(u), name, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && len(resolved) > 0 {
		c.logger.WarnContext(ctx, "user directory cache write failed", "error", err)
	}
	return out, nil
}
