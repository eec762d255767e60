package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 24 * time.Hour

	pendingValue = "PENDING"
)

var ErrRegistryUnavailable = errors.New("idempotency registry unavailable")

// Outcome of trying to claim a token.
type Outcome int

const (
	// Acquired means the caller owns the token and must Resolve or Release it.
	Acquired Outcome = iota
	// InProgress means another request holds the token and has not finished.
	InProgress
	// Completed means an order was already created for the token.
	Completed
)

type Registry interface {
	Acquire(ctx context.Context, key string) (Outcome, int64, error)
	Resolve(ctx context.Context, key string, orderID int64) error
	Release(ctx context.Context, key string) error
}

// Key namespaces a client token by member so tokens never collide across members.
func Key(memberID int64, token string) string {
	return fmt.Sprintf("order:idempotency:%d:%s", memberID, token)
}

type RedisRegistry struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRegistry(client redis.UniversalClient, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

// Acquire places a PENDING marker with SET NX. When the key already exists the
// stored value decides the outcome: an order id means Completed, anything
// else (including the key vanishing between the two calls) means InProgress.
func (r *RedisRegistry) Acquire(ctx context.Context, key string) (Outcome, int64, error) {
	ok, err := r.client.SetNX(ctx, key, pendingValue, r.ttl).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: setnx %s: %v", ErrRegistryUnavailable, key, err)
	}
	if ok {
		return Acquired, 0, nil
	}

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return InProgress, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: get %s: %v", ErrRegistryUnavailable, key, err)
	}
	if val == pendingValue {
		return InProgress, 0, nil
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return InProgress, 0, nil
	}
	return Completed, orderID, nil
}

// Resolve replaces the marker with the created order id and restarts the TTL.
func (r *RedisRegistry) Resolve(ctx context.Context, key string, orderID int64) error {
	if err := r.client.Set(ctx, key, strconv.FormatInt(orderID, 10), r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrRegistryUnavailable, key, err)
	}
	return nil
}

func (r *RedisRegistry) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrRegistryUnavailable, key, err)
	}
	return nil
}
