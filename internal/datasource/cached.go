package datasource

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/lotto-backtest/internal/models"
)

const defaultHistoryTTL = 10 * time.Minute

// CachedSource memoizes FetchNotices results per (game, limit, maxPages)
type CachedSource struct {
	source DataSource
	cache  *cache.Cache
}

// NewCachedSource wraps source with an in-memory cache
func NewCachedSource(source DataSource, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &CachedSource{source: source, cache: cache.New(ttl, ttl*2)}
}

// Name returns the wrapped source's name
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// IsEnabled returns whether the wrapped source is enabled
func (c *CachedSource) IsEnabled() bool {
	return c.source.IsEnabled()
}

// FetchNotices returns a cached copy when present. Errors are never cached.
func (c *CachedSource) FetchNotices(ctx context.Context, game models.Game, limit, maxPages int) ([]DrawNotice, error) {
	key := fmt.Sprintf("%s:%d:%d", game.Code, limit, maxPages)
	if cached, ok := c.cache.Get(key); ok {
		return append([]DrawNotice(nil), cached.([]DrawNotice)...), nil
	}

	notices, err := c.source.FetchNotices(ctx, game, limit, maxPages)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]DrawNotice(nil), notices...))
	return notices, nil
}

// Invalidate drops every cached entry
func (c *CachedSource) Invalidate() {
	c.cache.Flush()
}
