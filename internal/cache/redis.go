package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	maxJitterMinutes = 5

	// versionTTL outlives any in-flight load by a wide margin.
	versionTTL = 24 * time.Hour
)

func NewRedisCache(client redis.UniversalClient, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

// RedisCache stores whole carts as JSON. The TTL gets up to five minutes of
// jitter so entries written together do not expire together.
type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, memberID int64) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(memberID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

// Version is the member's invalidation counter; a missing counter is zero.
func (r *RedisCache) Version(ctx context.Context, memberID int64) (int64, error) {
	v, err := readVersion(ctx, r.client, memberID)
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return v, nil
}

// Set stores the cart only while the counter still equals version. The
// check and the write run under WATCH, so a Delete landing in between
// aborts the write with ErrStaleVersion.
func (r *RedisCache) Set(ctx context.Context, memberID int64, cart *domain.Cart, version int64) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitterMinutes))*time.Minute
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if current != version {
			return ErrStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(memberID), payload, ttl)
			return nil
		})
		return err
	}, versionKey(memberID))

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleVersion), errors.Is(err, redis.TxFailedErr):
		return ErrStaleVersion
	default:
		return fmt.Errorf("redis set failed: %w", err)
	}
}

// Delete drops the cart and bumps the counter in one MULTI.
func (r *RedisCache) Delete(ctx context.Context, memberID int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(memberID))
		pipe.Expire(ctx, versionKey(memberID), versionTTL)
		pipe.Del(ctx, cacheKey(memberID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, c stringGetter, memberID int64) (int64, error) {
	v, err := c.Get(ctx, versionKey(memberID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func cacheKey(memberID int64) string {
	return fmt.Sprintf("cart:%d", memberID)
}

func versionKey(memberID int64) string {
	return fmt.Sprintf("cart:%d:version", memberID)
}
