package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/domain"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, memberID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, memberID, productID int64, qty int) (*domain.CartLine, error)
	UpdateQuantity(ctx context.Context, memberID, lineID int64, qty int) (*domain.CartLine, error)
	RemoveItem(ctx context.Context, memberID, lineID int64) error
	ClearCart(ctx context.Context, memberID int64) error
	ValidateCart(ctx context.Context, memberID int64) (*domain.ValidationResult, error)
	RefreshCartPrices(ctx context.Context, memberID int64) (int, error)
	CalculateTotal(ctx context.Context, memberID int64) (decimal.Decimal, error)
	CountItems(ctx context.Context, memberID int64) (int, error)
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	MemberID  int64             `json:"member_id"`
	Items     []domain.CartLine `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetCart(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		MemberID:  cart.MemberID,
		Items:     cart.Lines,
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	})
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "product_id must be positive")
		return
	}

	line, err := h.carts.AddItem(ctx, getMemberIDFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, line)
}

// PUT /api/v1/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := pathID(r, "item_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "item_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
		return
	}

	line, err := h.carts.UpdateQuantity(ctx, getMemberIDFromContext(r.Context()), lineID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, line)
}

// DELETE /api/v1/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID, ok := pathID(r, "item_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "item_id must be a positive integer")
		return
	}

	if err := h.carts.RemoveItem(ctx, getMemberIDFromContext(r.Context()), lineID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.ClearCart(ctx, getMemberIDFromContext(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/cart/validate
func (h *CartHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.carts.ValidateCart(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// POST /api/v1/cart/refresh-prices
func (h *CartHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	updated, err := h.carts.RefreshCartPrices(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// GET /api/v1/cart/total
func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	total, err := h.carts.CalculateTotal(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

// GET /api/v1/cart/count
func (h *CartHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	count, err := h.carts.CountItems(ctx, getMemberIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}
