package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgredis "github.com/gocart/storefront/pkg/redis"
)

type redisStore interface {
	HSet(ctx context.Context, key, field string, value any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CartKey(consumerID string) string
	ProfileKey(consumerID string) string
}

// RedisStorage keeps each cart in a hash with one JSON field per line item.
type RedisStorage struct {
	store redisStore
}

func NewRedisStorage(store redisStore) *RedisStorage {
	return &RedisStorage{store: store}
}

func (r *RedisStorage) Load(ctx context.Context, consumerID string) ([]LineItem, error) {
	fields, err := r.store.HGetAll(ctx, r.store.CartKey(consumerID))
	if err != nil {
		return nil, fmt.Errorf("read cart hash: %w", err)
	}
	items := make([]LineItem, 0, len(fields))
	for productID, raw := range fields {
		var item LineItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode cart item %s: %w", productID, err)
		}
		items = append(items, item)
	}
	sortByPosition(items)
	return items, nil
}

func (r *RedisStorage) SaveItem(ctx context.Context, consumerID string, item LineItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cart item: %w", err)
	}
	return r.store.HSet(ctx, r.store.CartKey(consumerID), item.ProductID, string(payload))
}

func (r *RedisStorage) DeleteItem(ctx context.Context, consumerID, productID string) error {
	return r.store.HDel(ctx, r.store.CartKey(consumerID), productID)
}

func (r *RedisStorage) Clear(ctx context.Context, consumerID string) error {
	return r.store.Del(ctx, r.store.CartKey(consumerID))
}

func (r *RedisStorage) LoadProfile(ctx context.Context, consumerID string) (*Profile, error) {
	raw, err := r.store.Get(ctx, r.store.ProfileKey(consumerID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

func (r *RedisStorage) SaveProfile(ctx context.Context, profile Profile) error {
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return r.store.Set(ctx, r.store.ProfileKey(profile.ConsumerID), string(payload), 0)
}
