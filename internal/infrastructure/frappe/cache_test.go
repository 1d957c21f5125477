package frappe

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpdesk/internal/core/apperror"
	"erpdesk/pkg/logger"
)

type countingValues struct {
	calls int
	value string
	err   error
}

func (c *countingValues) GetValue(context.Context, string, string, string) (string, error) {
	c.calls++
	return c.value, c.err
}

func TestCachedValues(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := &countingValues{value: "Acme Co"}
	cache := NewCachedValues(next, client, time.Minute, logger.Nop())
	ctx := context.Background()

	v, err := cache.GetValue(ctx, "Customer", "CUST-001", "customer_name")
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", v)

	v, err = cache.GetValue(ctx, "Customer", "CUST-001", "customer_name")
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", v)
	assert.Equal(t, 1, next.calls)

	mr.FastForward(2 * time.Minute)
	_, err = cache.GetValue(ctx, "Customer", "CUST-001", "customer_name")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	require.NoError(t, cache.Invalidate(ctx, "Customer", "CUST-001", "customer_name"))
	_, err = cache.GetValue(ctx, "Customer", "CUST-001", "customer_name")
	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestCachedValues_ErrorsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	next := &countingValues{err: apperror.NewNotFound("Customer", "CUST-404")}
	cache := NewCachedValues(next, client, time.Minute, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := cache.GetValue(context.Background(), "Customer", "CUST-404", "customer_name")
		assert.True(t, apperror.IsNotFound(err))
	}
	assert.Equal(t, 2, next.calls)
}

func TestCachedValues_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	next := &countingValues{value: "Acme Co"}
	cache := NewCachedValues(next, client, time.Minute, logger.Nop())

	v, err := cache.GetValue(context.Background(), "Customer", "CUST-001", "customer_name")
	require.NoError(t, err)
	assert.Equal(t, "Acme Co", v)
}
