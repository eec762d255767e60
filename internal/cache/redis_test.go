package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, 15*time.Minute), mr
}

func testCart(memberID int64) *domain.Cart {
	return &domain.Cart{
		MemberID: memberID,
		Lines: []domain.CartLine{
			{ID: 1, MemberID: memberID, ProductID: 10, Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")},
			{ID: 2, MemberID: memberID, ProductID: 11, Quantity: 1, UnitPrice: decimal.RequireFromString("8")},
		},
	}
}

func TestGet_Success(t *testing.T) {
	c, mr := setupTestRedis(t)

	data, err := json.Marshal(testCart(42))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey(42), string(data)))

	got, err := c.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.MemberID)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestGet_CacheMiss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey(5), `{"member_id":`))

	_, err := c.Get(context.Background(), 5)
	require.ErrorContains(t, err, "unmarshal cart failed")
}

func TestSet_WithJitteredTTL(t *testing.T) {
	c, mr := setupTestRedis(t)

	require.NoError(t, c.Set(context.Background(), 7, testCart(7), 0))

	assert.True(t, mr.Exists(cacheKey(7)))
	ttl := mr.TTL(cacheKey(7))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestSet_Expires(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 7, testCart(7), 0))
	mr.FastForward(21 * time.Minute)

	_, err := c.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 9, testCart(9), 0))
	require.NoError(t, c.Delete(ctx, 9))
	assert.False(t, mr.Exists(cacheKey(9)))

	assert.NoError(t, c.Delete(ctx, 12345))
}

func TestDelete_BumpsVersion(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	v, err := c.Version(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, c.Delete(ctx, 9))
	require.NoError(t, c.Delete(ctx, 9))

	v, err = c.Version(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.Greater(t, mr.TTL(versionKey(9)), time.Duration(0))
}

func TestSet_AfterDeleteIsStale(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	v, err := c.Version(ctx, 3)
	require.NoError(t, err)

	// the cart is invalidated while the caller is still loading it
	require.NoError(t, c.Delete(ctx, 3))

	err = c.Set(ctx, 3, testCart(3), v)
	assert.ErrorIs(t, err, ErrStaleVersion)
	assert.False(t, mr.Exists(cacheKey(3)))

	v, err = c.Version(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, 3, testCart(3), v))
	assert.True(t, mr.Exists(cacheKey(3)))
}

func TestGet_RedisDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "cart:123", cacheKey(123))
	assert.Equal(t, "cart:123:version", versionKey(123))
}
