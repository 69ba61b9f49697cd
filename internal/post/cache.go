package post

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anshk/inkwell/backend/internal/models"
)

const (
	feedVersionKey = "feed:version"
	feedCacheTTL   = 60 * time.Second
)

// FeedCache keeps recently served feed pages in Redis. Invalidation bumps a
// version counter embedded in every page key, so stale pages simply stop
// being addressed and age out with their TTL.
//
// The cache is best-effort: any Redis error degrades to a database read.
type FeedCache struct {
	rdb *redis.Client
}

func NewFeedCache(rdb *redis.Client) *FeedCache {
	return &FeedCache{rdb: rdb}
}

func (c *FeedCache) version(ctx context.Context) int64 {
	v, err := c.rdb.Get(ctx, feedVersionKey).Int64()
	if err != nil && err != redis.Nil {
		log.Printf("feed cache version read: %v", err)
	}
	return v
}

func (c *FeedCache) key(version int64, page, limit int) string {
	return fmt.Sprintf("feed:v%d:p%d:l%d", version, page, limit)
}

// Get returns a cached page, or nil on miss.
func (c *FeedCache) Get(ctx context.Context, page, limit int) *models.PostPage {
	data, err := c.rdb.Get(ctx, c.key(c.version(ctx), page, limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("feed cache get: %v", err)
		}
		return nil
	}
	var pp models.PostPage
	if err := json.Unmarshal(data, &pp); err != nil {
		return nil
	}
	return &pp
}

// Set stores a page under the current feed version.
func (c *FeedCache) Set(ctx context.Context, page, limit int, pp *models.PostPage) {
	data, err := json.Marshal(pp)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(c.version(ctx), page, limit), data, feedCacheTTL).Err(); err != nil {
		log.Printf("feed cache set: %v", err)
	}
}

// Invalidate bumps the feed version after any post mutation.
func (c *FeedCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, feedVersionKey).Err(); err != nil {
		log.Printf("feed cache invalidate: %v", err)
	}
}
