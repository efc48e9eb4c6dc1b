package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-albis-sdk/store"
	"github.com/jrsteele09/go-albis-sdk/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	s := redisstore.New(client, "session-1")

	_, ok, err := s.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, store.KeyToken, "abc"))
	v, ok, err := s.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", v)
	require.Equal(t, "abc", mr.HGet("albis:session:session-1", store.KeyToken))

	require.NoError(t, s.Delete(ctx, store.KeyToken))
	_, ok, err = s.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	_, client := newClient(t)
	a := redisstore.New(client, "a")
	b := redisstore.New(client, "b")

	require.NoError(t, a.Set(ctx, store.KeyToken, "token-a"))
	require.NoError(t, b.Set(ctx, store.KeyToken, "token-b"))

	require.NoError(t, a.Destroy(ctx))

	_, ok, err := a.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := b.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token-b", v)
}

func TestStore_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	s := redisstore.New(client, "s", redisstore.WithTTL(time.Minute), redisstore.WithPrefix("app:"))
	require.Equal(t, "app:s", s.Key())

	require.NoError(t, s.Set(ctx, store.KeyToken, "abc"))
	require.Equal(t, time.Minute, mr.TTL("app:s"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, store.KeyToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_ConnectionError(t *testing.T) {
	mr, client := newClient(t)
	s := redisstore.New(client, "s")
	mr.Close()

	_, _, err := s.Get(context.Background(), store.KeyToken)
	require.Error(t, err)
}
