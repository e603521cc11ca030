package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"forumflow/internal/logger"
	"forumflow/pkg/metrics"
)

// Cache is a Redis-backed result cache for search queries. Keys carry
// an index generation number that is bumped on every index write, so a
// write invalidates all cached pages without touching Redis. A nil
// *Cache is a valid no-op cache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger

	generation atomic.Uint64
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// Bump invalidates every cached result.
func (c *Cache) Bump() {
	if c == nil {
		return
	}
	c.generation.Add(1)
}

func (c *Cache) key(query string, filters Filters, limit, offset int) string {
	return fmt.Sprintf("search:%d:%s:%s:%s:%s:%d:%d",
		c.generation.Load(), query, filters.ContentType, filters.ForumID, filters.AuthorID, limit, offset)
}

func (c *Cache) Get(ctx context.Context, query string, filters Filters, limit, offset int) (Response, bool) {
	if c == nil || c.client == nil {
		return Response{}, false
	}

	raw, err := c.client.Get(ctx, c.key(query, filters, limit, offset)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnwCtx(ctx, "Search cache read failed", "error", err)
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return Response{}, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
		return Response{}, false
	}
	metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
	return resp, true
}

func (c *Cache) Set(ctx context.Context, query string, filters Filters, limit, offset int, resp Response) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(query, filters, limit, offset), raw, c.ttl).Err(); err != nil {
		c.logger.WarnwCtx(ctx, "Search cache write failed", "error", err)
	}
}
