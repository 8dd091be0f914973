package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Client wraps a Valkey connection shared by the durable area slot and the
// read-through cache.
type Client struct {
	client valkey.Client
}

// New connects to a Valkey (Redis-compatible) server.
func New(addr string) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases the connection.
func (c *Client) Close() {
	c.client.Close()
}

// Cache implements ports.CacheService for transient values such as geocoding
// results.
type Cache struct {
	c *Client
}

// NewCache creates a cache on top of an existing connection.
func NewCache(c *Client) *Cache {
	return &Cache{c: c}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.c.client.Do(ctx, c.c.client.B().Get().Key(key).Build())
	if cmd.Error() != nil {
		return nil, cmd.Error()
	}
	return cmd.AsBytes()
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.c.client.Do(ctx,
		c.c.client.B().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.c.client.Do(ctx, c.c.client.B().Del().Key(key).Build())
	return cmd.Error()
}
