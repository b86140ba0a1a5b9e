package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache implements ports.CacheService and ports.KeyValueStore using Valkey
// (Redis-compatible).
type Cache struct {
	client valkey.Client
	// recentTTL expires visitor lists nobody has touched for a while.
	recentTTL time.Duration
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, recentTTL: 30 * 24 * time.Hour}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Incr atomically increments an integer key, creating it at 1.
func (c *Cache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Do(ctx, c.client.B().Incr().Key(key).Build()).AsInt64()
}

// PushRecent moves value to the head of the list and trims it to limit.
func (c *Cache) PushRecent(ctx context.Context, key, value string, limit int) error {
	cmds := valkey.Commands{
		c.client.B().Multi().Build(),
		c.client.B().Lrem().Key(key).Count(0).Element(value).Build(),
		c.client.B().Lpush().Key(key).Element(value).Build(),
		c.client.B().Ltrim().Key(key).Start(0).Stop(int64(limit - 1)).Build(),
		c.client.B().Expire().Key(key).Seconds(int64(c.recentTTL / time.Second)).Build(),
		c.client.B().Exec().Build(),
	}
	for _, res := range c.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("push recent %s: %w", key, err)
		}
	}
	return nil
}

// Recent returns the list at key, head first. A missing key is an empty list.
func (c *Cache) Recent(ctx context.Context, key string) ([]string, error) {
	vals, err := c.client.Do(ctx, c.client.B().Lrange().Key(key).Start(0).Stop(-1).Build()).AsStrSlice()
	if valkey.IsValkeyNil(err) {
		return []string{}, nil
	}
	return vals, err
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
