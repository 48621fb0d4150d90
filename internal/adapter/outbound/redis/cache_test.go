package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory kv that records TTLs.
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip under prefix", func(t *testing.T) {
		kv := newFakeKV()
		c := newCache(kv, "reelforge:")

		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
		assert.Equal(t, "v", kv.data["reelforge:k"])
		assert.Equal(t, time.Minute, kv.ttls["reelforge:k"])

		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		require.NoError(t, c.Delete(ctx, "k"))
		got, err = c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("miss is not an error", func(t *testing.T) {
		got, err := newCache(newFakeKV(), "").Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("client errors are wrapped", func(t *testing.T) {
		kv := newFakeKV()
		kv.err = errors.New("connection refused")
		c := newCache(kv, "")

		_, err := c.Get(ctx, "k")
		assert.ErrorContains(t, err, "connection refused")
		assert.ErrorContains(t, c.Set(ctx, "k", []byte("v"), 0), "connection refused")
		assert.ErrorContains(t, c.Delete(ctx, "k"), "connection refused")
	})
}
