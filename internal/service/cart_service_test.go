package service

import (
	"context"
	"testing"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_SnapshotsEffectivePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "100", 10)
	sale := dec("80")
	p.SalePrice = &sale
	require.NoError(t, f.repo.SaveProduct(ctx, p))

	line := f.addToCart(t, 1, p.ID, 2)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(sale))
}

func TestAddItem_MergesExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 5)

	first := f.addToCart(t, 1, p.ID, 2)
	second := f.addToCart(t, 1, p.ID, 3)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	_, err := f.carts.AddItem(ctx, 1, p.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock, "merged quantity is re-checked")

	n, err := f.carts.CountItems(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddItem_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, "10", 2)
	inactive := f.product(t, "10", 2)
	inactive.IsActive = false
	require.NoError(t, f.repo.SaveProduct(ctx, inactive))

	_, err := f.carts.AddItem(ctx, 1, p.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.carts.AddItem(ctx, 1, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.carts.AddItem(ctx, 1, inactive.ID, 1)
	assert.ErrorIs(t, err, ErrProductInactive)

	_, err = f.carts.AddItem(ctx, 1, p.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, CodeInsufficientStock, CodeOf(err))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 4)
	line := f.addToCart(t, 1, p.ID, 1)

	updated, err := f.carts.UpdateQuantity(ctx, 1, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.carts.UpdateQuantity(ctx, 1, line.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.carts.UpdateQuantity(ctx, 2, line.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.carts.UpdateQuantity(ctx, 1, 9999, 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	_, err = f.carts.UpdateQuantity(ctx, 1, line.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItem_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 4)
	line := f.addToCart(t, 1, p.ID, 1)

	assert.ErrorIs(t, f.carts.RemoveItem(ctx, 2, line.ID), ErrForbidden)
	require.NoError(t, f.carts.RemoveItem(ctx, 1, line.ID))
	assert.ErrorIs(t, f.carts.RemoveItem(ctx, 1, line.ID), ErrCartItemNotFound)
}

func TestClearCart_TotalsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "12.50", 10)
	b := f.product(t, "3", 10)

	f.addToCart(t, 1, a.ID, 2)
	f.addToCart(t, 1, b.ID, 3)

	total, err := f.carts.CalculateTotal(ctx, 1)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("34")), total.String())

	n, err := f.carts.CountItems(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cart, err := f.carts.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, n, cart.ItemCount(), "GET /cart and CountItems agree")

	require.NoError(t, f.carts.ClearCart(ctx, 1))
	n, err = f.carts.CountItems(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestValidateCart_PriceDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "100", 10)
	f.addToCart(t, 1, p.ID, 1)

	p.Price = dec("120")
	require.NoError(t, f.repo.SaveProduct(ctx, p))

	result, err := f.carts.ValidateCart(ctx, 1)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, domain.ValidationPriceChanged, result.Errors[0].Type)
	assert.Equal(t, p.ID, result.Errors[0].ProductID)
}

func TestValidateCart_CollectsAllErrorsPerLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "50", 5)
	f.addToCart(t, 1, p.ID, 4)

	p.IsActive = false
	p.StockQuantity = 1
	p.Price = dec("55")
	require.NoError(t, f.repo.SaveProduct(ctx, p))

	result, err := f.carts.ValidateCart(ctx, 1)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Has(domain.ValidationProductInactive))
	assert.True(t, result.Has(domain.ValidationOutOfStock))
	assert.True(t, result.Has(domain.ValidationPriceChanged))
}

func TestValidateCart_MissingProductShortCircuits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.repo.InsertCartLine(ctx, &domain.CartLine{
		MemberID: 1, ProductID: 4242, Quantity: 1, UnitPrice: dec("1"), CreatedAt: now, UpdatedAt: now,
	}))

	result, err := f.carts.ValidateCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, domain.ValidationProductNotFound, result.Errors[0].Type)
}

func TestValidateCart_ValidIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 3)
	f.addToCart(t, 1, p.ID, 3)

	result, err := f.carts.ValidateCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestRefreshCartPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "100", 10)
	same := f.product(t, "5", 10)
	f.addToCart(t, 1, p.ID, 1)
	f.addToCart(t, 1, same.ID, 1)

	p.Price = dec("120")
	require.NoError(t, f.repo.SaveProduct(ctx, p))

	updated, err := f.carts.RefreshCartPrices(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	result, err := f.carts.ValidateCart(ctx, 1)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestGetCart_CachesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 10)
	f.addToCart(t, 1, p.ID, 1)

	cart, err := f.carts.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	require.Eventually(t, func() bool { return f.mr.Exists("cart:1") }, time.Second, 10*time.Millisecond)

	f.addToCart(t, 1, p.ID, 1)
	assert.False(t, f.mr.Exists("cart:1"))

	cart, err = f.carts.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestGetCart_OrderDuringLoadIsNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "10", 10)
	f.addToCart(t, 1, p.ID, 1)

	f.store.AfterCartLoad = func(memberID int64) {
		f.store.AfterCartLoad = nil
		f.placeOrder(t, memberID)
	}

	cart, err := f.carts.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1, "read before the order committed")

	assert.Never(t, func() bool { return f.mr.Exists("cart:1") }, 200*time.Millisecond, 10*time.Millisecond)

	cart, err = f.carts.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
}

func TestGetCart_EmptyCart(t *testing.T) {
	f := newFixture(t)

	cart, err := f.carts.GetCart(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, int64(77), cart.MemberID)
	assert.Empty(t, cart.Lines)
}
