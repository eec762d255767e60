package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 20
	// IdempotencyHeader carries the client token for order creation.
	IdempotencyHeader = "Idempotency-Key"
)

type OrderService interface {
	CreateOrderFromCart(ctx context.Context, memberID int64, shippingAddress, notes, idempotencyKey string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, targetStatusID int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID, memberID int64) error
	DeleteOrderAsAdmin(ctx context.Context, orderID int64) error
	FindOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error)
	FindOrderByNumber(ctx context.Context, orderNumber string, memberID int64) (*domain.Order, error)
	FindUserOrders(ctx context.Context, memberID int64, page, size int) ([]*domain.Order, error)
	FindOrderLines(ctx context.Context, orderID, memberID int64) ([]domain.OrderLine, error)
	CountUserOrders(ctx context.Context, memberID int64) (int, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	ShippingAddress string `json:"shipping_address"`
	Notes           string `json:"notes"`
}

type OrderResponseDTO struct {
	*domain.Order
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
}

type OrderPageDTO struct {
	Orders []OrderResponseDTO `json:"orders"`
	Total  int                `json:"total"`
	Page   int                `json:"page"`
	Size   int                `json:"size"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	status := domain.OrderStatus(o.StatusID)
	return OrderResponseDTO{
		Order:       o,
		Status:      status.String(),
		StatusLabel: status.Label(),
	}
}

// POST /api/v1/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.ShippingAddress == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "shipping_address is required")
		return
	}

	order, err := h.orders.CreateOrderFromCart(ctx, getMemberIDFromContext(r.Context()),
		req.ShippingAddress, req.Notes, r.Header.Get(IdempotencyHeader))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders?page=0&size=20
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, errPage := queryInt(r, "page", 0)
	size, errSize := queryInt(r, "size", defaultPageSize)
	if errPage != nil || errSize != nil {
		respondError(w, http.StatusBadRequest, service.CodeInvalidPagination, "page and size must be integers")
		return
	}

	memberID := getMemberIDFromContext(r.Context())
	orders, err := h.orders.FindUserOrders(ctx, memberID, page, size)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	total, err := h.orders.CountUserOrders(ctx, memberID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}

	respondJSON(w, http.StatusOK, OrderPageDTO{Orders: dtos, Total: total, Page: page, Size: size})
}

// GET /api/v1/orders/count
func (h *OrdersHandler) CountOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	count, err := h.orders.CountUserOrders(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	order, err := h.orders.FindOrder(ctx, orderID, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// GET /api/v1/orders/number/{order_number}
func (h *OrdersHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.FindOrderByNumber(ctx, chi.URLParam(r, "order_number"), getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// GET /api/v1/orders/{order_id}/items
func (h *OrdersHandler) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	lines, err := h.orders.FindOrderLines(ctx, orderID, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, lines)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	order, err := h.orders.CancelOrder(ctx, orderID, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// DELETE /api/v1/orders/{order_id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	if err := h.orders.DeleteOrder(ctx, orderID, getMemberIDFromContext(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
