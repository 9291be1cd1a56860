package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore is the subset of Client the idempotency middleware needs:
// claim a key, finalize it, or release it after a failed attempt.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Set(context.Context, string, any, time.Duration) error
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.raw == nil {
		return errNotInitialized
	}
	return c.raw.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil (see IsNil) for a missing key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.raw == nil {
		return "", errNotInitialized
	}
	return c.raw.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.raw == nil {
		return false, errNotInitialized
	}
	return c.raw.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.raw == nil {
		return errNotInitialized
	}
	return c.raw.Del(ctx, keys...).Err()
}

// HSet writes one cart line.
func (c *Client) HSet(ctx context.Context, key, field string, value any) error {
	if c.raw == nil {
		return errNotInitialized
	}
	return c.raw.HSet(ctx, key, field, value).Err()
}

// HGetAll returns an empty map for a missing key.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if c.raw == nil {
		return nil, errNotInitialized
	}
	return c.raw.HGetAll(ctx, key).Result()
}

func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	if c.raw == nil {
		return errNotInitialized
	}
	return c.raw.HDel(ctx, key, fields...).Err()
}

// Deletes key only while it still holds token, so a holder whose lock expired
// cannot remove a lock another request has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ReleaseLock reports whether the lock was still held by token.
func (c *Client) ReleaseLock(ctx context.Context, key, token string) (bool, error) {
	if c.raw == nil {
		return false, errNotInitialized
	}
	n, err := releaseScript.Run(ctx, c.raw, []string{key}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
