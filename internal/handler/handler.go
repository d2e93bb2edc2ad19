// Package handler exposes the storefront API over HTTP.
//
// Handlers are thin: decode, delegate to a domain service, map the result or
// the domain error onto the wire. Error bodies are always
// {"code": <status>, "message": <text>}.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/wearly/storefront/internal/domain/address"
	"github.com/wearly/storefront/internal/domain/cart"
	"github.com/wearly/storefront/internal/domain/catalog"
	"github.com/wearly/storefront/internal/domain/order"
	"github.com/wearly/storefront/internal/domain/payment"
)

// Handler implements the storefront HTTP API, delegating business logic to
// the injected domain services.
type Handler struct {
	products catalog.Reader
	carts    *cart.Service
	orders   *order.Service
	payments *payment.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	products catalog.Reader,
	carts *cart.Service,
	orders *order.Service,
	payments *payment.Service,
) *Handler {
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		payments: payments,
	}
}

// Routes assembles the API router. Catalog reads are public; everything else
// sits behind the supplied authentication middleware.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{productID}", h.updateCartItem)
		r.Delete("/cart/items/{productID}", h.removeCartItem)
		r.Delete("/cart", h.clearCart)

		r.Post("/checkout", h.checkout)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{orderID}", h.getOrder)

		r.Post("/payments/create-intent", h.createIntent)
		r.Post("/payments/verify", h.verifyPayment)
	})

	return r
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Code: status, Message: message})
}

// respondDomainError maps a domain error to its HTTP status. Unknown errors
// are logged and hidden behind a generic 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		oosErr *cart.OutOfStockError
		insErr *cart.InsufficientStockError
	)

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, address.ErrForbidden),
		errors.Is(err, order.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrUnknownPaymentMethod),
		errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &oosErr),
		errors.As(err, &insErr),
		errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, payment.ErrPaymentClosed):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrInvalidReference):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, payment.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "payment gateway unavailable")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
