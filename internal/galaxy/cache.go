package galaxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SummaryCache keeps galaxy summaries in Redis. A nil cache, or one without
// a client, always misses. Failures are logged and swallowed.
type SummaryCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewSummaryCache(client goredis.Cmdable, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		logger: slog.With("component", "galaxy_cache"),
	}
}

func summaryKey(galaxyID int64) string {
	return fmt.Sprintf("galaxy:%d:summary", galaxyID)
}

func (c *SummaryCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *SummaryCache) Get(ctx context.Context, galaxyID int64) (*Summary, bool) {
	if !c.enabled() {
		return nil, false
	}
	data, err := c.client.Get(ctx, summaryKey(galaxyID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.Warn("Failed to read cached summary", "galaxy_id", galaxyID, "error", err)
		}
		return nil, false
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		c.logger.Warn("Discarding malformed cached summary", "galaxy_id", galaxyID, "error", err)
		return nil, false
	}
	return &s, true
}

func (c *SummaryCache) Set(ctx context.Context, s *Summary) {
	if !c.enabled() || s == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn("Failed to encode summary", "galaxy_id", s.Galaxy.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, summaryKey(s.Galaxy.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache summary", "galaxy_id", s.Galaxy.ID, "error", err)
	}
}

func (c *SummaryCache) Invalidate(ctx context.Context, galaxyID int64) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, summaryKey(galaxyID)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate cached summary", "galaxy_id", galaxyID, "error", err)
	}
}
