package cache

import (
	"context"
	"errors"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
)

// CartCache is a read-through cache of whole carts. Writers read Version
// before loading from the database and hand it back to Set, so a load that
// raced with a Delete never repopulates the cache.
type CartCache interface {
	Get(ctx context.Context, memberID int64) (*domain.Cart, error)
	Version(ctx context.Context, memberID int64) (int64, error)
	Set(ctx context.Context, memberID int64, cart *domain.Cart, version int64) error
	Delete(ctx context.Context, memberID int64) error
}

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrStaleVersion = errors.New("cart invalidated since version was read")
)
