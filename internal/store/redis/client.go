// Package redis stores personas, relationships and conversations as JSON
// values in Redis, with sorted sets as ordering indexes.
//
// Keys are namespaced under a prefix (default "personasim"):
//
//	{prefix}:persona:{id}              persona JSON
//	{prefix}:personas                  zset of persona ids by creation millis
//	{prefix}:relationship:{a}|{b}      relationship JSON, pair sorted
//	{prefix}:relationships             set of pair keys
//	{prefix}:persona:{id}:relationships set of pair keys touching id
//	{prefix}:conversation:{id}         conversation JSON
//	{prefix}:conversations             zset of conversation ids by start millis
//	{prefix}:settings:{key}            settings JSON
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"personasim/internal/store"
)

const DefaultPrefix = "personasim"

var _ store.Store = (*Client)(nil)

type Client struct {
	rdb    *goredis.Client
	prefix string
}

// New connects using a redis:// or rediss:// URL.
func New(ctx context.Context, dsn string) (*Client, error) {
	opts, err := goredis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing redis DSN: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w: %w", store.ErrUnavailable, err)
	}
	return &Client{rdb: rdb, prefix: DefaultPrefix}, nil
}

// WithPrefix returns a client sharing the connection under another namespace.
func (c *Client) WithPrefix(prefix string) *Client {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Client{rdb: c.rdb, prefix: prefix}
}

func (c *Client) Close(ctx context.Context) error {
	return c.rdb.Close()
}

// EnsureSchema is a no-op; Redis needs no DDL.
func (c *Client) EnsureSchema(ctx context.Context) error {
	return nil
}

func (c *Client) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// getJSON decodes the value at key into dst. It reports false when the key
// is absent.
func (c *Client) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// mgetJSON loads keys in order, calling decode for each value present.
// Index entries whose value has gone missing are skipped.
func (c *Client) mgetJSON(ctx context.Context, keys []string, decode func(raw []byte) error) error {
	if len(keys) == 0 {
		return nil
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode([]byte(s)); err != nil {
			return fmt.Errorf("decoding %s: %w", keys[i], err)
		}
	}
	return nil
}
