package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	SyncProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
}

type AdminHandler struct {
	orders   OrderService
	products ProductService
	timeout  time.Duration
}

func NewAdminHandler(orders OrderService, products ProductService, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		orders:   orders,
		products: products,
		timeout:  timeout,
	}
}

type UpdateStatusRequestDTO struct {
	StatusID int64 `json:"status_id"`
}

type ProductRequestDTO struct {
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	IsActive      bool             `json:"is_active"`
}

type ProductResponseDTO struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Price          decimal.Decimal  `json:"price"`
	SalePrice      *decimal.Decimal `json:"sale_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	StockQuantity  int              `json:"stock_quantity"`
	IsActive       bool             `json:"is_active"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func convertProduct(p *domain.Product) ProductResponseDTO {
	return ProductResponseDTO{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
		UpdatedAt:      p.UpdatedAt,
	}
}

// PUT /api/v1/admin/orders/{order_id}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, orderID, req.StatusID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// DELETE /api/v1/admin/orders/{order_id}
func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(r, "order_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "order_id must be a positive integer")
		return
	}

	if err := h.orders.DeleteOrderAsAdmin(ctx, orderID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.syncProduct(w, r, 0, http.StatusCreated)
}

// PUT /api/v1/admin/products/{product_id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "product_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "product_id must be a positive integer")
		return
	}
	h.syncProduct(w, r, productID, http.StatusOK)
}

func (h *AdminHandler) syncProduct(w http.ResponseWriter, r *http.Request, productID int64, status int) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	product, err := h.products.SyncProduct(ctx, &domain.Product{
		ID:            productID,
		Name:          req.Name,
		Price:         req.Price,
		SalePrice:     req.SalePrice,
		StockQuantity: req.StockQuantity,
		IsActive:      req.IsActive,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, status, convertProduct(product))
}
