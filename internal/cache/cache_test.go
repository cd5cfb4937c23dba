package cache

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/depot/internal/config"
)

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := Noop()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, store.Delete(ctx, "k"))
}

func TestNewStoreSelectsDriver(t *testing.T) {
	var cfg config.Config
	cfg.Cache.Driver = "noop"

	store, err := NewStore(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Noop(), store)

	cfg.Cache.Driver = "memcached"
	_, err = NewStore(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRedisStoreKeys(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	store := newPrefixedStore(client, "depot:", time.Minute)
	assert.Equal(t, "depot:identity:user:admin", store.key("identity:user:admin"))

	ctx := context.Background()
	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Error(t, store.Set(ctx, "", []byte("v"), 0))
	assert.NoError(t, store.Delete(ctx, ""))

	err = store.Set(ctx, "identity:user:admin", []byte("v"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache set identity:user:admin")
}
