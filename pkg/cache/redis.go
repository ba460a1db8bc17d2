package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the Redis key RedisStore keeps its snapshot under.
const DefaultRedisKey = "met:cache:snapshot"

// RedisStore persists snapshots as a single Redis string value.
// The key expires together with the longest-lived entry it holds.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a RedisStore. An empty key selects DefaultRedisKey.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
	}
}

// Location returns the Redis key.
func (r *RedisStore) Location() string {
	return "redis:" + r.key
}

// Load fetches the snapshot from Redis.
func (r *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	return DecodeSnapshot(data)
}

// Save stores the snapshot. An empty snapshot deletes the key.
func (r *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	ttl := snap.latestExpiry().Sub(snap.SavedAt)
	if len(snap.Entries) == 0 || ttl <= 0 {
		if err := r.redis.Del(ctx, r.key).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	}

	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := r.redis.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
