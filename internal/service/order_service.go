package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/cache"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/idempotency"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	maxPageSize    = 100
	releaseTimeout = 2 * time.Second
)

type OrderService struct {
	store          repository.Store
	registry       idempotency.Registry
	cartCache      cache.CartCache
	newOrderNumber func() (string, error)
	now            func() time.Time
}

func NewOrderService(store repository.Store, registry idempotency.Registry, cartCache cache.CartCache) *OrderService {
	return &OrderService{
		store:          store,
		registry:       registry,
		cartCache:      cartCache,
		newOrderNumber: RandomOrderNumber,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrderFromCart turns the member's cart into a PENDING order. With a
// non-empty idempotencyKey, repeated calls for the same member and key
// return the order created by the first successful call.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, memberID int64, shippingAddress, notes, idempotencyKey string) (*domain.Order, error) {
	if idempotencyKey == "" {
		return s.createOrder(ctx, memberID, shippingAddress, notes, nil)
	}

	key := idempotency.Key(memberID, idempotencyKey)
	outcome, existingID, err := s.registry.Acquire(ctx, key)
	if err != nil {
		slog.Error("idempotency acquire failed", "member_id", memberID, "key", key, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	switch outcome {
	case idempotency.Completed:
		order, err := s.store.FindOrderByID(ctx, existingID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			// The token resolves before the creating transaction commits.
			return nil, fmt.Errorf("%w: order %d for this request is not visible yet, retry", ErrConflict, existingID)
		}
		if err != nil {
			return nil, mapStoreError(err)
		}
		slog.Info("idempotent replay", "member_id", memberID, "order_id", order.ID)
		return order, nil
	case idempotency.InProgress:
		return nil, fmt.Errorf("%w: order creation in progress, retry", ErrConflict)
	}

	order, err := s.createOrder(ctx, memberID, shippingAddress, notes, func(ctx context.Context, o *domain.Order) error {
		return s.registry.Resolve(ctx, key, o.ID)
	})
	if err != nil {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if relErr := s.registry.Release(releaseCtx, key); relErr != nil {
			slog.Error("idempotency release failed", "member_id", memberID, "key", key, "err", relErr)
		}
		return nil, err
	}

	return order, nil
}

// createOrder runs the whole pipeline in one transaction. beforeCommit runs
// last inside the transaction; its error rolls everything back.
func (s *OrderService) createOrder(ctx context.Context, memberID int64, shippingAddress, notes string,
	beforeCommit func(ctx context.Context, o *domain.Order) error) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		lines, err := q.FindCartLines(ctx, memberID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		check, err := validateLines(ctx, q, lines, true)
		if err != nil {
			return err
		}
		if check.Has(domain.ValidationOutOfStock) {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, check.Errors[0].Message)
		}

		cart := domain.Cart{MemberID: memberID, Lines: lines}
		total := cart.Total()

		for _, l := range inLockOrder(lines, func(l domain.CartLine) int64 { return l.ProductID }) {
			ok, err := q.DecreaseStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return mapStoreError(err)
			}
			if !ok {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, l.ProductID)
			}
		}

		number, err := s.uniqueOrderNumber(ctx, q)
		if err != nil {
			return err
		}

		now := s.now()
		order = &domain.Order{
			OrderNumber:     number,
			MemberID:        memberID,
			StatusID:        domain.OrderStatusPending.ID(),
			TotalAmount:     total,
			ShippingAmount:  decimal.Zero,
			TaxAmount:       decimal.Zero,
			DiscountAmount:  decimal.Zero,
			ShippingAddress: shippingAddress,
			Notes:           notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := q.InsertOrder(ctx, order); err != nil {
			return err
		}

		orderLines := make([]domain.OrderLine, 0, len(lines))
		for _, l := range lines {
			orderLines = append(orderLines, domain.OrderLine{
				OrderID:    order.ID,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				TotalPrice: l.Subtotal(),
				CreatedAt:  now,
			})
		}
		if err := q.InsertOrderLines(ctx, orderLines); err != nil {
			return err
		}

		if err := q.DeleteCartLines(ctx, memberID); err != nil {
			return err
		}

		if err := appendOrderEvent(ctx, q, domain.EventOrderCreated, order, nil); err != nil {
			return err
		}

		if beforeCommit != nil {
			return beforeCommit(ctx, order)
		}
		return nil
	})
	if err != nil {
		logIfInternal("create order", err, "member_id", memberID)
		return nil, err
	}

	slog.Info("order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"member_id", memberID,
		"total_amount", order.TotalAmount.String())
	invalidateCart(s.cartCache, memberID)
	return order, nil
}

// UpdateOrderStatus is the administrative transition path. It follows the
// transition table only; the member-facing CanCancel rule does not apply.
//
// Moving an order to CANCELLED here also returns every line's quantity to
// stock, in the same transaction and lock order as CancelOrder. This is
// more than a bare status update: an admin cancel of a PROCESSING order
// gives its units back.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, targetStatusID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		order, err = q.FindOrderByID(ctx, orderID)
		if err != nil {
			return mapStoreError(err)
		}

		current, err := orderStatus(order)
		if err != nil {
			return err
		}
		target, ok := domain.StatusFromID(targetStatusID)
		if !ok {
			return fmt.Errorf("%w: unknown status id %d", ErrOrderStatus, targetStatusID)
		}
		if current == target {
			return fmt.Errorf("%w: order is already %s", ErrOrderStatus, current)
		}
		if current.IsTerminal() {
			return fmt.Errorf("%w: %s is final", ErrInvalidTransition, current)
		}
		if !current.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
		}

		if target == domain.OrderStatusCancelled {
			if err := restoreStock(ctx, q, order.ID); err != nil {
				return err
			}
		}

		return s.transition(ctx, q, order, current, target)
	})
	if err != nil {
		logIfInternal("update order status", err, "order_id", orderID, "target_status_id", targetStatusID)
		return nil, err
	}

	slog.Info("order status updated", "order_id", orderID, "status", domain.OrderStatus(order.StatusID).String())
	return order, nil
}

// CancelOrder lets a member cancel a PENDING or CONFIRMED order. Stock for
// every line is returned in the same transaction as the status change.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		order, err = ownedOrder(ctx, q, orderID, memberID)
		if err != nil {
			return err
		}

		current, err := orderStatus(order)
		if err != nil {
			return err
		}
		if !current.CanCancel() {
			return fmt.Errorf("%w: %s order cannot be cancelled", ErrOrderStatus, current)
		}

		if err := restoreStock(ctx, q, order.ID); err != nil {
			return err
		}

		if !current.CanTransitionTo(domain.OrderStatusCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, domain.OrderStatusCancelled)
		}
		return s.transition(ctx, q, order, current, domain.OrderStatusCancelled)
	})
	if err != nil {
		logIfInternal("cancel order", err, "order_id", orderID, "member_id", memberID)
		return nil, err
	}

	slog.Info("order cancelled", "order_id", orderID, "member_id", memberID)
	return order, nil
}

// DeleteOrder removes a member's cancelled order. Lines go before the header.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, memberID int64) error {
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		order, err := ownedOrder(ctx, q, orderID, memberID)
		if err != nil {
			return err
		}
		return deleteCancelled(ctx, q, order)
	})
	if err != nil {
		logIfInternal("delete order", err, "order_id", orderID, "member_id", memberID)
		return err
	}

	slog.Info("order deleted", "order_id", orderID, "member_id", memberID)
	return nil
}

func (s *OrderService) DeleteOrderAsAdmin(ctx context.Context, orderID int64) error {
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		order, err := q.FindOrderByID(ctx, orderID)
		if err != nil {
			return mapStoreError(err)
		}
		return deleteCancelled(ctx, q, order)
	})
	if err != nil {
		logIfInternal("admin delete order", err, "order_id", orderID)
		return err
	}

	slog.Info("order deleted by admin", "order_id", orderID)
	return nil
}

func (s *OrderService) FindOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error) {
	return ownedOrder(ctx, s.store, orderID, memberID)
}

func (s *OrderService) FindOrderByNumber(ctx context.Context, orderNumber string, memberID int64) (*domain.Order, error) {
	order, err := s.store.FindOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if order.MemberID != memberID {
		return nil, ErrForbidden
	}
	return order, nil
}

// FindUserOrders pages through a member's orders, newest first. page is
// zero-based and size must be in 1..100.
func (s *OrderService) FindUserOrders(ctx context.Context, memberID int64, page, size int) ([]*domain.Order, error) {
	if page < 0 || size <= 0 || size > maxPageSize {
		return nil, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPagination, page, size)
	}
	return s.store.FindOrdersByMember(ctx, memberID, page*size, size)
}

func (s *OrderService) FindOrderLines(ctx context.Context, orderID, memberID int64) ([]domain.OrderLine, error) {
	if _, err := ownedOrder(ctx, s.store, orderID, memberID); err != nil {
		return nil, err
	}
	lines, err := s.store.FindOrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []domain.OrderLine{}
	}
	return lines, nil
}

func (s *OrderService) CountUserOrders(ctx context.Context, memberID int64) (int, error) {
	return s.store.CountOrdersByMember(ctx, memberID)
}

// transition performs the conditional status update and records the event.
// When no row matches, the order is re-read to tell a vanished order from a
// concurrent status change.
func (s *OrderService) transition(ctx context.Context, q repository.Querier, order *domain.Order, from, to domain.OrderStatus) error {
	now := s.now()
	ok, err := q.UpdateOrderStatus(ctx, order.ID, from, to, now)
	if err != nil {
		return err
	}
	if !ok {
		latest, err := q.FindOrderByID(ctx, order.ID)
		if err != nil {
			return mapStoreError(err)
		}
		if latest.StatusID != from.ID() {
			return fmt.Errorf("%w: order %d changed status concurrently", ErrConflict, order.ID)
		}
		return fmt.Errorf("%w: status update for order %d affected no rows", ErrInternal, order.ID)
	}

	order.StatusID = to.ID()
	order.UpdatedAt = now

	eventType := domain.EventOrderStatusChanged
	if to == domain.OrderStatusCancelled {
		eventType = domain.EventOrderCancelled
	}
	return appendOrderEvent(ctx, q, eventType, order, &from)
}

func restoreStock(ctx context.Context, q repository.Querier, orderID int64) error {
	lines, err := q.FindOrderLines(ctx, orderID)
	if err != nil {
		return err
	}
	for _, l := range inLockOrder(lines, func(l domain.OrderLine) int64 { return l.ProductID }) {
		ok, err := q.IncreaseStock(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return mapStoreError(err)
		}
		if !ok {
			slog.Warn("stock restore skipped, product missing",
				"order_id", orderID, "product_id", l.ProductID, "quantity", l.Quantity)
		}
	}
	return nil
}

// inLockOrder returns a copy of lines sorted by product id. Every stock
// update walks products in this order so two transactions never wait on
// each other's rows.
func inLockOrder[L any](lines []L, productID func(L) int64) []L {
	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b L) int {
		return cmp.Compare(productID(a), productID(b))
	})
	return sorted
}

func deleteCancelled(ctx context.Context, q repository.Querier, order *domain.Order) error {
	if domain.OrderStatus(order.StatusID) != domain.OrderStatusCancelled {
		return fmt.Errorf("%w: only cancelled orders can be deleted", ErrOrderStatus)
	}
	if err := q.DeleteOrderLines(ctx, order.ID); err != nil {
		return err
	}
	if err := q.DeleteOrder(ctx, order.ID); err != nil {
		return mapStoreError(err)
	}
	return appendOrderEvent(ctx, q, domain.EventOrderDeleted, order, nil)
}

func ownedOrder(ctx context.Context, q repository.Querier, orderID, memberID int64) (*domain.Order, error) {
	order, err := q.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if order.MemberID != memberID {
		return nil, ErrForbidden
	}
	return order, nil
}

func orderStatus(order *domain.Order) (domain.OrderStatus, error) {
	status, ok := domain.StatusFromID(order.StatusID)
	if !ok {
		return 0, fmt.Errorf("%w: order %d has unknown status id %d", ErrInternal, order.ID, order.StatusID)
	}
	return status, nil
}

func logIfInternal(op string, err error, attrs ...any) {
	if CodeOf(err) != CodeInternalError {
		return
	}
	slog.Error(op+" failed", append(attrs, "err", err)...)
}
