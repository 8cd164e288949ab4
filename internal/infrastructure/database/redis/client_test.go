package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
)

func TestNewClient_ConnectionFailed(t *testing.T) {
	cfg := config.RedisConfig{Addr: "localhost:1"}

	client, err := NewClient(cfg, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Nil(t, client)
}

func TestClient_Operations(t *testing.T) {
	client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", time.Minute).Err())

	val, err := client.Get(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	n, err := client.Exists(ctx, "k1", "k2").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := client.Del(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestClient_Scan(t *testing.T) {
	client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "scan:a", "1", 0).Err())
	require.NoError(t, client.Set(ctx, "scan:b", "2", 0).Err())
	require.NoError(t, client.Set(ctx, "other:c", "3", 0).Err())

	var found []string
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, "scan:*", 10).Result()
		require.NoError(t, err)
		found = append(found, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}
	assert.ElementsMatch(t, []string{"scan:a", "scan:b"}, found)
}

func TestClient_ClosedGuards(t *testing.T) {
	client := newMiniredisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Close())
	// Close is idempotent.
	require.NoError(t, client.Close())

	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.Get(ctx, "k1").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Set(ctx, "k1", "v", 0).Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "k1").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Exists(ctx, "k1").Err(), ErrClientClosed)
}
