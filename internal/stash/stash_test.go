package stash_test

import (
	"context"
	"testing"
	"time"

	"hydrogen-admin/internal/stash"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStash(t *testing.T, ttl time.Duration) (*stash.Stash, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return stash.New(client, ttl), mr
}

func TestPutGetTake(t *testing.T) {
	s, mr := newStash(t, time.Minute)
	ctx := context.Background()

	payload := map[string]interface{}{"storeName": "Pets", "storeId": "s1"}
	require.NoError(t, s.Put(ctx, "abc", payload))
	assert.True(t, mr.Exists("publish:payload:abc"))

	raw, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"storeName":"Pets","storeId":"s1"}`, string(raw))

	raw, err = s.Take(ctx, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"storeName":"Pets","storeId":"s1"}`, string(raw))

	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, stash.ErrNotFound)
}

func TestPayloadExpires(t *testing.T) {
	s, mr := newStash(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "abc", map[string]string{"a": "b"}))
	mr.FastForward(2 * time.Minute)

	_, err := s.Take(ctx, "abc")
	assert.ErrorIs(t, err, stash.ErrNotFound)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := stash.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()

	_, err = stash.Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
