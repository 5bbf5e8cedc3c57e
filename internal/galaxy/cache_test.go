package galaxy

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestNilSummaryCache(t *testing.T) {
	ctx := context.Background()
	var c *SummaryCache
	if _, ok := c.Get(ctx, 1); ok {
		t.Fatal("nil cache reported a hit")
	}
	c.Set(ctx, &Summary{})
	c.Invalidate(ctx, 1)

	empty := NewSummaryCache(nil, time.Minute)
	if _, ok := empty.Get(ctx, 1); ok {
		t.Fatal("cache without client reported a hit")
	}
}

func TestSummaryCacheUnreachableMisses(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctx := context.Background()
	c := NewSummaryCache(client, time.Minute)
	c.Set(ctx, &Summary{Galaxy: Galaxy{ID: 7}})
	if _, ok := c.Get(ctx, 7); ok {
		t.Fatal("unreachable cache reported a hit")
	}
	c.Invalidate(ctx, 7)
}

func TestSummaryKey(t *testing.T) {
	if got := summaryKey(42); got != "galaxy:42:summary" {
		t.Fatalf("summaryKey(42) = %q", got)
	}
}
