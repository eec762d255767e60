package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
)

// ProductService keeps the local copy of catalog rows in step with the
// catalog service. Carts and orders only ever read these rows.
type ProductService struct {
	store repository.Store
}

func NewProductService(store repository.Store) *ProductService {
	return &ProductService{store: store}
}

// SyncProduct inserts p when p.ID is zero and overwrites the row otherwise.
// Stock is taken as given; reservations already made are not replayed.
func (s *ProductService) SyncProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.store.SaveProduct(ctx, p); err != nil {
		err = mapStoreError(err)
		logIfInternal("sync product", err, "product_id", p.ID)
		return nil, err
	}

	slog.Info("product synced", "product_id", p.ID, "stock_quantity", p.StockQuantity, "is_active", p.IsActive)
	return p, nil
}

func validateProduct(p *domain.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case !p.Price.IsPositive():
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	case p.SalePrice != nil && (p.SalePrice.IsNegative() || p.SalePrice.GreaterThan(p.Price)):
		return fmt.Errorf("%w: sale price must be between 0 and price", ErrInvalidProduct)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock quantity cannot be negative", ErrInvalidProduct)
	}
	return nil
}
