package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// InvoiceCache implements ports.ProcessedInvoiceCache using Redis. It is
// a fast-path duplicate filter in front of the store, never the source
// of truth: entries expire and the service tolerates cache failures.
type InvoiceCache struct {
	client *goredis.Client
	prefix string
}

// NewInvoiceCache creates a new Redis-backed processed-invoice cache.
func NewInvoiceCache(client *goredis.Client) *InvoiceCache {
	return &InvoiceCache{
		client: client,
		prefix: "invoice:",
	}
}

// Seen reports whether the invoice was recently marked as processed.
func (c *InvoiceCache) Seen(ctx context.Context, invoice string) (bool, error) {
	n, err := c.client.Exists(ctx, c.prefix+invoice).Result()
	if err != nil {
		return false, fmt.Errorf("redis invoice exists: %w", err)
	}
	return n > 0, nil
}

// Mark records the invoice as processed for the given TTL.
func (c *InvoiceCache) Mark(ctx context.Context, invoice string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+invoice, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis invoice mark: %w", err)
	}
	return nil
}
