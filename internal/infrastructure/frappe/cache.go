package frappe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"erpdesk/internal/domain/reports"
	"erpdesk/pkg/logger"
)

const valueKeyPrefix = "erpdesk:value"

// CachedValues is a read-through Redis cache in front of a ValueGetter.
// Only successful lookups are cached; a Redis failure falls back to the site.
type CachedValues struct {
	next   reports.ValueGetter
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedValues wraps next. A nil client disables caching.
func NewCachedValues(next reports.ValueGetter, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedValues {
	return &CachedValues{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log.WithComponent("value_cache"),
	}
}

// GetValue implements reports.ValueGetter.
func (c *CachedValues) GetValue(ctx context.Context, doctype, name, fieldname string) (string, error) {
	if c.client == nil {
		return c.next.GetValue(ctx, doctype, name, fieldname)
	}

	key := strings.Join([]string{valueKeyPrefix, doctype, name, fieldname}, ":")
	v, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.WithContext(ctx).Warnw("value cache read failed", "key", key, "error", err)
	}

	v, err = c.next.GetValue(ctx, doctype, name, fieldname)
	if err != nil {
		return "", err
	}
	if err := c.client.Set(ctx, key, v, c.ttl).Err(); err != nil {
		c.log.WithContext(ctx).Warnw("value cache write failed", "key", key, "error", err)
	}
	return v, nil
}

// Invalidate drops a cached value.
func (c *CachedValues) Invalidate(ctx context.Context, doctype, name, fieldname string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, strings.Join([]string{valueKeyPrefix, doctype, name, fieldname}, ":")).Err()
}
