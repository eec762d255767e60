package http

import (
	"context"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type CartServiceMock struct {
	cart    *domain.Cart
	line    *domain.CartLine
	result  *domain.ValidationResult
	updated int
	total   decimal.Decimal
	count   int
	err     error

	gotMemberID  int64
	gotProductID int64
	gotLineID    int64
	gotQuantity  int
}

func (m *CartServiceMock) GetCart(_ context.Context, memberID int64) (*domain.Cart, error) {
	m.gotMemberID = memberID
	return m.cart, m.err
}

func (m *CartServiceMock) AddItem(_ context.Context, memberID, productID int64, qty int) (*domain.CartLine, error) {
	m.gotMemberID, m.gotProductID, m.gotQuantity = memberID, productID, qty
	return m.line, m.err
}

func (m *CartServiceMock) UpdateQuantity(_ context.Context, memberID, lineID int64, qty int) (*domain.CartLine, error) {
	m.gotMemberID, m.gotLineID, m.gotQuantity = memberID, lineID, qty
	return m.line, m.err
}

func (m *CartServiceMock) RemoveItem(_ context.Context, memberID, lineID int64) error {
	m.gotMemberID, m.gotLineID = memberID, lineID
	return m.err
}

func (m *CartServiceMock) ClearCart(_ context.Context, memberID int64) error {
	m.gotMemberID = memberID
	return m.err
}

func (m *CartServiceMock) ValidateCart(_ context.Context, memberID int64) (*domain.ValidationResult, error) {
	m.gotMemberID = memberID
	return m.result, m.err
}

func (m *CartServiceMock) RefreshCartPrices(_ context.Context, memberID int64) (int, error) {
	m.gotMemberID = memberID
	return m.updated, m.err
}

func (m *CartServiceMock) CalculateTotal(_ context.Context, memberID int64) (decimal.Decimal, error) {
	m.gotMemberID = memberID
	return m.total, m.err
}

func (m *CartServiceMock) CountItems(_ context.Context, memberID int64) (int, error) {
	m.gotMemberID = memberID
	return m.count, m.err
}

type OrderServiceMock struct {
	order  *domain.Order
	orders []*domain.Order
	lines  []domain.OrderLine
	count  int
	err    error

	gotMemberID       int64
	gotOrderID        int64
	gotStatusID       int64
	gotNumber         string
	gotIdempotencyKey string
	gotAddress        string
	gotPage, gotSize  int
	adminDeleted      bool
}

func (m *OrderServiceMock) CreateOrderFromCart(_ context.Context, memberID int64, shippingAddress, _ string, idempotencyKey string) (*domain.Order, error) {
	m.gotMemberID, m.gotAddress, m.gotIdempotencyKey = memberID, shippingAddress, idempotencyKey
	return m.order, m.err
}

func (m *OrderServiceMock) UpdateOrderStatus(_ context.Context, orderID, targetStatusID int64) (*domain.Order, error) {
	m.gotOrderID, m.gotStatusID = orderID, targetStatusID
	return m.order, m.err
}

func (m *OrderServiceMock) CancelOrder(_ context.Context, orderID, memberID int64) (*domain.Order, error) {
	m.gotOrderID, m.gotMemberID = orderID, memberID
	return m.order, m.err
}

func (m *OrderServiceMock) DeleteOrder(_ context.Context, orderID, memberID int64) error {
	m.gotOrderID, m.gotMemberID = orderID, memberID
	return m.err
}

func (m *OrderServiceMock) DeleteOrderAsAdmin(_ context.Context, orderID int64) error {
	m.gotOrderID = orderID
	m.adminDeleted = m.err == nil
	return m.err
}

func (m *OrderServiceMock) FindOrder(_ context.Context, orderID, memberID int64) (*domain.Order, error) {
	m.gotOrderID, m.gotMemberID = orderID, memberID
	return m.order, m.err
}

func (m *OrderServiceMock) FindOrderByNumber(_ context.Context, orderNumber string, memberID int64) (*domain.Order, error) {
	m.gotNumber, m.gotMemberID = orderNumber, memberID
	return m.order, m.err
}

func (m *OrderServiceMock) FindUserOrders(_ context.Context, memberID int64, page, size int) ([]*domain.Order, error) {
	m.gotMemberID, m.gotPage, m.gotSize = memberID, page, size
	return m.orders, m.err
}

func (m *OrderServiceMock) FindOrderLines(_ context.Context, orderID, memberID int64) ([]domain.OrderLine, error) {
	m.gotOrderID, m.gotMemberID = orderID, memberID
	return m.lines, m.err
}

func (m *OrderServiceMock) CountUserOrders(_ context.Context, memberID int64) (int, error) {
	m.gotMemberID = memberID
	return m.count, m.err
}

type ProductServiceMock struct {
	err error

	got *domain.Product
}

func (m *ProductServiceMock) SyncProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.got = p
	if m.err != nil {
		return nil, m.err
	}
	if p.ID == 0 {
		p.ID = 100
	}
	return p, nil
}
