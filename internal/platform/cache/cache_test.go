// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/platform/cache"
)

func TestGetSetRoundTrip(t *testing.T) {
	store := cache.New[string](10, time.Minute)

	store.Set(cache.TenantKey("acme"), "tenant_acme")

	value, found := store.Get(cache.TenantKey("acme"))
	require.True(t, found)
	assert.Equal(t, "tenant_acme", value)
}

func TestMissOnAbsentKey(t *testing.T) {
	store := cache.New[string](10, time.Minute)

	_, found := store.Get(cache.TenantKey("ghost"))
	assert.False(t, found)

	stats := store.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	const maxSize = 3
	store := cache.New[string](maxSize, time.Minute)

	// Fill to capacity, then add one more. The first inserted key is the
	// least recently used and must be the one evicted.
	for i := 0; i < maxSize+1; i++ {
		store.Set(fmt.Sprintf("tenant:t%d", i), fmt.Sprintf("schema_%d", i))
	}

	_, found := store.Get("tenant:t0")
	assert.False(t, found, "oldest entry should have been evicted")

	for i := 1; i < maxSize+1; i++ {
		_, found := store.Get(fmt.Sprintf("tenant:t%d", i))
		assert.True(t, found, "entry t%d should survive", i)
	}

	assert.Equal(t, maxSize, store.Stats().Size)
}

func TestGetRefreshesRecency(t *testing.T) {
	store := cache.New[string](2, time.Minute)

	store.Set("a", "1")
	store.Set("b", "2")

	// Touch "a" so "b" becomes the eviction candidate.
	_, found := store.Get("a")
	require.True(t, found)

	store.Set("c", "3")

	_, foundA := store.Get("a")
	_, foundB := store.Get("b")
	assert.True(t, foundA)
	assert.False(t, foundB)
}

func TestTTLExpiryCountsAsMiss(t *testing.T) {
	store := cache.New[string](10, 30*time.Millisecond)

	store.Set("tenant:brief", "tenant_brief")
	time.Sleep(60 * time.Millisecond)

	_, found := store.Get("tenant:brief")
	assert.False(t, found)
	assert.Equal(t, uint64(1), store.Stats().Misses)
}

func TestDeleteAndExists(t *testing.T) {
	store := cache.New[string](10, time.Minute)

	store.Set("k", "v")
	assert.True(t, store.Exists("k"))

	assert.True(t, store.Delete("k"))
	assert.False(t, store.Delete("k"))
	assert.False(t, store.Exists("k"))
}

func TestClearResetsStats(t *testing.T) {
	store := cache.New[int](10, time.Minute)

	store.Set("x", 1)
	store.Get("x")
	store.Get("absent")
	store.Clear()

	stats := store.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
}

func TestStatsHitRate(t *testing.T) {
	store := cache.New[string](10, time.Minute)
	store.Set("k", "v")

	store.Get("k")      // hit
	store.Get("k")      // hit
	store.Get("absent") // miss

	stats := store.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 66.66, stats.HitRate, 0.1)
	assert.Equal(t, 60.0, stats.TTLSeconds)
}

func TestKeyBuilders(t *testing.T) {
	assert.Equal(t, "tenant:acme", cache.TenantKey("acme"))
	assert.Equal(t, "tenant_id:42", cache.TenantIDKey("42"))
	assert.Equal(t, "user_id:tenant_acme:7", cache.UserIDKey("tenant_acme", "7"))
	assert.Equal(t, "user_email:tenant_acme:a@b.c", cache.UserEmailKey("tenant_acme", "a@b.c"))
}
