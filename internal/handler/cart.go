package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wearly/storefront/internal/domain/pricing"
)

type cartLineResponse struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
}

type cartResponse struct {
	Items    []cartLineResponse `json:"items"`
	Subtotal float64            `json:"subtotal"`
	Shipping float64            `json:"shipping"`
	Total    float64            `json:"total"`
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	snapshot, err := h.carts.Snapshot(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	items := make([]cartLineResponse, len(snapshot))
	priced := make([]pricing.Item, len(snapshot))
	for i, line := range snapshot {
		items[i] = cartLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Price:       line.UnitPrice.InexactFloat64(),
			Quantity:    line.Quantity,
			TotalPrice:  line.LineTotal().InexactFloat64(),
		}
		priced[i] = pricing.Item{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}

	quote := pricing.Compute(priced)
	respondJSON(w, http.StatusOK, cartResponse{
		Items:    items,
		Subtotal: quote.Subtotal.InexactFloat64(),
		Shipping: quote.Shipping.InexactFloat64(),
		Total:    quote.Total.InexactFloat64(),
	})
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "productId required")
		return
	}
	// Adding without an explicit quantity means one unit.
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	userID := UserIDFromContext(r.Context())
	if err := h.carts.AddLine(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := UserIDFromContext(r.Context())
	err := h.carts.SetQuantity(r.Context(), userID, chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if err := h.carts.RemoveLine(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if err := h.carts.Clear(r.Context(), userID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
