package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/cache"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	store repository.Store
	cache cache.CartCache
	sfg   singleflight.Group // Prevents cache stampede
	now   func() time.Time
}

func NewCartService(store repository.Store, cartCache cache.CartCache) *CartService {
	return &CartService{
		store: store,
		cache: cartCache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartService) GetCart(ctx context.Context, memberID int64) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(memberID, 10), func() (interface{}, error) {
		if s.cache == nil {
			return s.loadCart(ctx, memberID)
		}

		cart, err := s.cache.Get(ctx, memberID)
		if err == nil {
			return cart, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("cart cache get failed", "member_id", memberID, "err", err)
		}

		version, verErr := s.cache.Version(ctx, memberID)
		if verErr != nil {
			slog.Warn("cart cache version failed", "member_id", memberID, "err", verErr)
		}

		cart, err = s.loadCart(ctx, memberID)
		if err != nil {
			return nil, err
		}
		if verErr != nil {
			return cart, nil
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			errSet := s.cache.Set(ctx, memberID, cart, version)
			switch {
			case errors.Is(errSet, cache.ErrStaleVersion):
				slog.Debug("cart changed during load, not cached", "member_id", memberID)
			case errSet != nil:
				slog.Warn("cart cache set failed", "member_id", memberID, "err", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *CartService) loadCart(ctx context.Context, memberID int64) (*domain.Cart, error) {
	lines, err := s.store.FindCartLines(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return &domain.Cart{MemberID: memberID, Lines: lines}, nil
}

// AddItem puts qty units of a product in the cart. A product already in the
// cart has its quantity summed and re-checked against stock; a new line
// snapshots the effective price.
func (s *CartService) AddItem(ctx context.Context, memberID, productID int64, qty int) (*domain.CartLine, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var line *domain.CartLine
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		product, err := q.FindProductByID(ctx, productID)
		if err != nil {
			return mapStoreError(err)
		}
		if !product.IsActive {
			return ErrProductInactive
		}
		if product.StockQuantity < qty {
			return ErrInsufficientStock
		}

		now := s.now()
		existing, err := q.FindCartLineByProduct(ctx, memberID, productID)
		switch {
		case err == nil:
			newQty := existing.Quantity + qty
			if product.StockQuantity < newQty {
				return ErrInsufficientStock
			}
			if err := q.UpdateCartLine(ctx, existing.ID, newQty, existing.UnitPrice, now); err != nil {
				return err
			}
			existing.Quantity = newQty
			existing.UpdatedAt = now
			line = existing
			return nil
		case errors.Is(err, repository.ErrCartLineNotFound):
			line = &domain.CartLine{
				MemberID:  memberID,
				ProductID: productID,
				Quantity:  qty,
				UnitPrice: product.EffectivePrice(),
				CreatedAt: now,
				UpdatedAt: now,
			}
			return q.InsertCartLine(ctx, line)
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	slog.Info("cart item added", "member_id", memberID, "product_id", productID, "quantity", line.Quantity)
	s.invalidateCache(memberID)
	return line, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, memberID, lineID int64, qty int) (*domain.CartLine, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var line *domain.CartLine
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		line, err = ownedCartLine(ctx, q, memberID, lineID)
		if err != nil {
			return err
		}

		product, err := q.FindProductByID(ctx, line.ProductID)
		if err != nil {
			return mapStoreError(err)
		}
		if product.StockQuantity < qty {
			return ErrInsufficientStock
		}

		line.Quantity = qty
		line.UpdatedAt = s.now()
		return q.UpdateCartLine(ctx, line.ID, qty, line.UnitPrice, line.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache(memberID)
	return line, nil
}

func (s *CartService) RemoveItem(ctx context.Context, memberID, lineID int64) error {
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if _, err := ownedCartLine(ctx, q, memberID, lineID); err != nil {
			return err
		}
		return q.DeleteCartLine(ctx, lineID)
	})
	if err != nil {
		return err
	}

	s.invalidateCache(memberID)
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, memberID int64) error {
	if err := s.store.DeleteCartLines(ctx, memberID); err != nil {
		slog.Error("clear cart failed", "member_id", memberID, "err", err)
		return err
	}

	s.invalidateCache(memberID)
	return nil
}

// CalculateTotal sums snapshot prices, not live ones.
func (s *CartService) CalculateTotal(ctx context.Context, memberID int64) (decimal.Decimal, error) {
	lines, err := s.store.FindCartLines(ctx, memberID)
	if err != nil {
		return decimal.Zero, err
	}
	cart := domain.Cart{MemberID: memberID, Lines: lines}
	return cart.Total(), nil
}

// CountItems is the number of distinct lines in the cart.
func (s *CartService) CountItems(ctx context.Context, memberID int64) (int, error) {
	return s.store.CountCartLines(ctx, memberID)
}

// ValidateCart reports every problem with every line without changing
// anything. A missing product stops the checks for that line; all other
// failures accumulate.
func (s *CartService) ValidateCart(ctx context.Context, memberID int64) (*domain.ValidationResult, error) {
	lines, err := s.store.FindCartLines(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return validateLines(ctx, s.store, lines, false)
}

// RefreshCartPrices rewrites stale snapshots to the live effective price.
// Lines whose product is gone are left alone.
func (s *CartService) RefreshCartPrices(ctx context.Context, memberID int64) (int, error) {
	updated := 0
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		updated = 0
		lines, err := q.FindCartLines(ctx, memberID)
		if err != nil {
			return err
		}
		now := s.now()
		for _, l := range lines {
			product, err := q.FindProductByID(ctx, l.ProductID)
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			price := product.EffectivePrice()
			if price.Equal(l.UnitPrice) {
				continue
			}
			if err := q.UpdateCartLine(ctx, l.ID, l.Quantity, price, now); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		s.invalidateCache(memberID)
	}
	return updated, nil
}

// validateLines runs the per-line checks. In stockOnly mode only lines whose
// product exists are checked, and only for stock.
func validateLines(ctx context.Context, q repository.Querier, lines []domain.CartLine, stockOnly bool) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{Valid: true, Errors: []domain.ValidationError{}}

	for _, l := range lines {
		product, err := q.FindProductByID(ctx, l.ProductID)
		if errors.Is(err, repository.ErrProductNotFound) {
			if !stockOnly {
				result.Add(domain.ValidationProductNotFound, l.ProductID, "product no longer exists")
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if !stockOnly && !product.IsActive {
			result.Add(domain.ValidationProductInactive, l.ProductID, "product is no longer available")
		}

		if product.StockQuantity < l.Quantity {
			result.Add(domain.ValidationOutOfStock, l.ProductID,
				fmt.Sprintf("requested %d, %d in stock", l.Quantity, product.StockQuantity))
		}

		if !stockOnly && !product.EffectivePrice().Equal(l.UnitPrice) {
			result.Add(domain.ValidationPriceChanged, l.ProductID,
				fmt.Sprintf("price changed from %s to %s", l.UnitPrice, product.EffectivePrice()))
		}
	}

	return result, nil
}

func ownedCartLine(ctx context.Context, q repository.Querier, memberID, lineID int64) (*domain.CartLine, error) {
	line, err := q.FindCartLineByID(ctx, lineID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if line.MemberID != memberID {
		return nil, ErrForbidden
	}
	return line, nil
}

func (s *CartService) invalidateCache(memberID int64) {
	invalidateCart(s.cache, memberID)
}

func invalidateCart(c cache.CartCache, memberID int64) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Delete(ctx, memberID); err != nil {
		slog.Warn("cart cache invalidate failed", "member_id", memberID, "err", err)
	}
}
