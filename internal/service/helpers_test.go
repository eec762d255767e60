package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/cache"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/idempotency"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo   *repository.Repository
	store  *faultyStore
	mr     *miniredis.Miniredis
	carts  *CartService
	orders *OrderService
}

func newFixture(t *testing.T) *fixture {
	repo, err := repository.NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(&repository.Credentials{MigrationsDirPath: "../repository/migrations/sqlite"}))
	t.Cleanup(func() { repo.Close() })

	return newFixtureOn(t, repo)
}

// newFixtureOn wires both services over repo, a miniredis cache and a
// miniredis idempotency registry.
func newFixtureOn(t *testing.T, repo *repository.Repository) *fixture {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := &faultyStore{Repository: repo}
	cartCache := cache.NewRedisCache(client, 15*time.Minute)
	registry := idempotency.NewRedisRegistry(client, idempotency.DefaultTTL)

	return &fixture{
		repo:   repo,
		store:  store,
		mr:     mr,
		carts:  NewCartService(store, cartCache),
		orders: NewOrderService(store, registry, cartCache),
	}
}

func (f *fixture) product(t *testing.T, price string, stock int) *domain.Product {
	p := &domain.Product{
		Name:          "Pearl Leash",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, f.repo.SaveProduct(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	p, err := f.repo.FindProductByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func (f *fixture) addToCart(t *testing.T, memberID, productID int64, qty int) *domain.CartLine {
	line, err := f.carts.AddItem(context.Background(), memberID, productID, qty)
	require.NoError(t, err)
	return line
}

func (f *fixture) orderCount(t *testing.T, memberID int64) int {
	n, err := f.repo.CountOrdersByMember(context.Background(), memberID)
	require.NoError(t, err)
	return n
}

func (f *fixture) placeOrder(t *testing.T, memberID int64) *domain.Order {
	order, err := f.orders.CreateOrderFromCart(context.Background(), memberID, "12 Kennel Lane", "", "")
	require.NoError(t, err)
	return order
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
