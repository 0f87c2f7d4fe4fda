package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache[string](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("greeting", "hello")
	got, ok := c.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[int](time.Minute)

	c.SetWithTTL("short", 42, 10*time.Millisecond)
	got, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, 42, got)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok, "expired entry should be evicted on read")
}

func TestCacheOverwrite(t *testing.T) {
	c := NewCache[int](time.Minute)

	c.Set("k", 1)
	c.Set("k", 2)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := NewCache[string](time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCachePointerValues(t *testing.T) {
	c := NewCache[*DomainIntel](time.Minute)

	c.Set("dns:acme.test", &DomainIntel{Domain: "acme.test", HasMX: true})
	got, ok := c.Get("dns:acme.test")
	require.True(t, ok)
	assert.Equal(t, "acme.test", got.Domain)
	assert.True(t, got.HasMX)
}
