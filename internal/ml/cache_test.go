package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCacheKeyString tests cache key string representation
func TestCacheKeyString(t *testing.T) {
	key := CacheKey{Game: "ssq", TargetIndex: 120, Params: "abc123"}

	keyStr := key.String()
	assert.Equal(t, "ssq:120:abc123", keyStr)
}

// TestPredictionCacheSetGet tests cache Set and Get operations
func TestPredictionCacheSetGet(t *testing.T) {
	cache := NewPredictionCache(time.Hour, 100)
	defer cache.Clear()

	key := CacheKey{Game: "ssq", TargetIndex: 5, Params: "p"}

	result, ok := cache.Get(key)
	assert.False(t, ok)
	assert.Nil(t, result)

	prediction := &Prediction{Primary: []float64{0.5, 0.5}, Secondary: []float64{1}, Loss: 0.3}
	cache.Set(key, prediction)

	retrieved, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, prediction.Primary, retrieved.Primary)
	assert.Equal(t, prediction.Loss, retrieved.Loss)

	_, ok = cache.Get(CacheKey{Game: "ssq", TargetIndex: 6, Params: "p"})
	assert.False(t, ok)
}

// TestPredictionCacheExpiration tests cache TTL expiration
func TestPredictionCacheExpiration(t *testing.T) {
	cache := NewPredictionCache(100*time.Millisecond, 100)
	defer cache.Clear()

	key := CacheKey{Game: "kl8", TargetIndex: 1, Params: "p"}
	cache.Set(key, &Prediction{Primary: []float64{1}})

	_, ok := cache.Get(key)
	require.True(t, ok)

	time.Sleep(150 * time.Millisecond)

	_, ok = cache.Get(key)
	assert.False(t, ok)
}

// TestPredictionCacheStats tests cache statistics tracking
func TestPredictionCacheStats(t *testing.T) {
	cache := NewPredictionCache(time.Hour, 100)
	defer cache.Clear()

	key := CacheKey{Game: "ssq", TargetIndex: 9, Params: "p"}

	hits, misses, ratio := cache.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(0), misses)
	assert.Equal(t, 0.0, ratio)

	_, _ = cache.Get(key)
	hits, misses, ratio = cache.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.0, ratio)

	cache.Set(key, &Prediction{})
	_, _ = cache.Get(key)
	hits, misses, ratio = cache.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)
}

// TestPredictionCacheMaxSize tests cache size limit enforcement
func TestPredictionCacheMaxSize(t *testing.T) {
	maxSize := 5
	cache := NewPredictionCache(time.Hour, maxSize)
	defer cache.Clear()

	for i := 0; i < maxSize*2; i++ {
		cache.Set(CacheKey{Game: "ssq", TargetIndex: i, Params: "p"}, &Prediction{})
	}

	assert.LessOrEqual(t, cache.ItemCount(), maxSize)
}
