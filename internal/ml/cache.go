package ml

import (
	"fmt"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// CacheKey identifies a trained output: one game, one target period, one
// hyper-parameter set.
type CacheKey struct {
	Game        string
	TargetIndex int
	Params      string
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%d:%s", k.Game, k.TargetIndex, k.Params)
}

// Prediction is a cached pair of smoothed section distributions.
type Prediction struct {
	Primary   []float64
	Secondary []float64
	Loss      float64
	Duration  time.Duration
}

// PredictionCache keeps trained outputs in memory. Training is deterministic,
// so a hit is always identical to a retrain.
type PredictionCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(key CacheKey) (*Prediction, bool) {
	if result, found := pc.cache.Get(key.String()); found {
		if pred, ok := result.(*Prediction); ok {
			pc.hitCount.Add(1)
			pc.updateMetrics(true)
			return pred, true
		}
	}

	pc.missCount.Add(1)
	pc.updateMetrics(false)
	return nil, false
}

// Set stores a prediction in cache
func (pc *PredictionCache) Set(key CacheKey, prediction *Prediction) {
	if pc.maxSize > 0 && pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			return
		}
	}
	pc.cache.Set(key.String(), prediction, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear() {
	pc.cache.Flush()
	pc.hitCount.Store(0)
	pc.missCount.Store(0)
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	hits = pc.hitCount.Load()
	misses = pc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (pc *PredictionCache) updateMetrics(hit bool) {
	_, _, ratio := pc.Stats()
	CacheHitRatio.Set(ratio)
	PredictionsTotal.WithLabelValues(fmt.Sprintf("%t", hit)).Inc()
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}
