package service

import (
	"context"
	"testing"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncProduct_InsertThenUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	products := NewProductService(f.store)

	p, err := products.SyncProduct(ctx, &domain.Product{Name: "Velvet Collar", Price: dec("30"), StockQuantity: 4, IsActive: true})
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	sale := dec("24.50")
	_, err = products.SyncProduct(ctx, &domain.Product{
		ID: p.ID, Name: "Velvet Collar", Price: dec("30"), SalePrice: &sale, StockQuantity: 9, IsActive: true,
	})
	require.NoError(t, err)

	stored, err := f.repo.FindProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, stored.StockQuantity)
	assert.True(t, stored.EffectivePrice().Equal(sale))

	// a synced sale price is what new cart lines snapshot
	line := f.addToCart(t, 1, p.ID, 1)
	assert.True(t, line.UnitPrice.Equal(sale))
}

func TestSyncProduct_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	products := NewProductService(f.store)
	tooHigh := dec("31")

	for name, p := range map[string]*domain.Product{
		"no name":        {Price: dec("30")},
		"zero price":     {Name: "Bow", Price: dec("0")},
		"sale over base": {Name: "Bow", Price: dec("30"), SalePrice: &tooHigh},
		"negative stock": {Name: "Bow", Price: dec("30"), StockQuantity: -1},
	} {
		_, err := products.SyncProduct(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidProduct, name)
		assert.Equal(t, CodeInvalidProduct, CodeOf(err), name)
	}

	_, err := products.SyncProduct(ctx, &domain.Product{ID: 404, Name: "Bow", Price: dec("30")})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
