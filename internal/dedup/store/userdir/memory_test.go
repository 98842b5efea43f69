package userdir

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "caseguard/pkg/domain"
)

func TestInMemoryDisplayNames(t *testing.T) {
	dir := NewInMemory()
	known := id.UserID(uuid.New())
	unknown := id.UserID(uuid.New())
	dir.Put(known, "Priya Nair")

	got, err := dir.DisplayNames(context.Background(), []id.UserID{known, unknown})

	require.NoError(t, err)
	assert.Equal(t, map[id.UserID]string{known: "Priya Nair"}, got)
}

func TestInMemoryDisplayNamesEmpty(t *testing.T) {
	got, err := NewInMemory().DisplayNames(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

type countingDirectory struct {
	inner Directory
	calls int
	asked [][]id.UserID
}

func (c *countingDirectory) DisplayNames(ctx context.Context, ids []id.UserID) (map[id.UserID]string, error) {
	c.calls++
	c.asked = append(c.asked, append([]id.UserID(nil), ids...))
	return c.inner.DisplayNames(ctx, ids)
}

// An unreachable cache must not break history rendering.
func TestRedisCacheFallsThroughWhenCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	backing := NewInMemory()
	u := id.UserID(uuid.New())
	backing.Put(u, "Tomás Ruiz")
	counter := &countingDirectory{inner: backing}
	cache := NewRedisCache(client, counter, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := cache.DisplayNames(context.Background(), []id.UserID{u})

	require.NoError(t, err)
	assert.Equal(t, "Tomás Ruiz", got[u])
	assert.Equal(t, 1, counter.calls)
}

func TestRedisCacheEmptyInputSkipsLookups(t *testing.T) {
	counter := &countingDirectory{inner: NewInMemory()}
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), counter, time.Minute, nil)

	got, err := cache.DisplayNames(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, counter.calls)
}
