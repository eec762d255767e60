package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter wires every route behind the shared middleware stack and wraps
// the result in otelhttp instrumentation.
func NewRouter(carts CartService, orders OrderService, products ProductService, requestTimeout time.Duration) http.Handler {
	cartHandler := NewCartHandler(carts, requestTimeout)
	ordersHandler := NewOrdersHandler(orders, requestTimeout)
	adminHandler := NewAdminHandler(orders, products, requestTimeout)

	r := chi.NewRouter()

	// Global middleware; the request id is assigned first so the access log
	// and error logs carry the same one.
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(MemberAuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Get("/total", cartHandler.GetTotal)
				r.Get("/count", cartHandler.GetCount)
				r.Get("/validate", cartHandler.ValidateCart)
				r.Post("/refresh-prices", cartHandler.RefreshPrices)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordersHandler.CreateOrder)
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/count", ordersHandler.CountOrders)
				r.Get("/number/{order_number}", ordersHandler.GetOrderByNumber)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Delete("/{order_id}", ordersHandler.DeleteOrder)
				r.Get("/{order_id}/items", ordersHandler.ListOrderItems)
				r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnlyMiddleware)
			r.Put("/orders/{order_id}/status", adminHandler.UpdateOrderStatus)
			r.Delete("/orders/{order_id}", adminHandler.DeleteOrder)
			r.Post("/products", adminHandler.CreateProduct)
			r.Put("/products/{product_id}", adminHandler.UpdateProduct)
		})
	})

	return otelhttp.NewHandler(r, "bark-bijou-api")
}
