package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short:abc123", "https://example.com", time.Hour))

	val, ok, err := c.Get(ctx, "short:abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com", val)

	_, ok, err = c.Get(ctx, "short:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short:abc123", "https://example.com", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	_, ok, err := c.Get(ctx, "short:abc123")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must not be served")
}

func TestMemoryCacheDel(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short:abc123", "https://example.com", time.Hour))
	require.NoError(t, c.Del(ctx, "short:abc123"))

	_, ok, err := c.Get(ctx, "short:abc123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDelByPrefix(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ListKey(42, 0, 100), "[]", time.Hour))
	require.NoError(t, c.Set(ctx, ListKey(42, 100, 100), "[]", time.Hour))
	require.NoError(t, c.Set(ctx, ShortKey("abc123"), "https://example.com", time.Hour))

	require.NoError(t, c.DelByPrefix(ctx, ListPrefix))

	_, ok, _ := c.Get(ctx, ListKey(42, 0, 100))
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, ListKey(42, 100, 100))
	assert.False(t, ok)

	// Entries outside the prefix survive.
	_, ok, _ = c.Get(ctx, ShortKey("abc123"))
	assert.True(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "short:abc123", ShortKey("abc123"))
	assert.Equal(t, "urls_list:42:0:100", ListKey(42, 0, 100))
	assert.Equal(t, "analytics:abc123", AnalyticsKey("abc123"))
}
