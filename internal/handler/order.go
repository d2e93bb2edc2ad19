package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wearly/storefront/internal/domain/address"
	"github.com/wearly/storefront/internal/domain/order"
)

type checkoutRequest struct {
	AddressID     string `json:"addressId"`
	PaymentMethod string `json:"paymentMethod"`
}

type checkoutResponse struct {
	OrderID       string  `json:"orderId"`
	OrderStatus   string  `json:"orderStatus"`
	PaymentStatus string  `json:"paymentStatus"`
	TotalAmount   float64 `json:"totalAmount"`
}

type orderItemResponse struct {
	OrderItemID string  `json:"orderItemId"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
}

type orderResponse struct {
	OrderID         string              `json:"orderId"`
	OrderStatus     string              `json:"orderStatus"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentMethod   string              `json:"paymentMethod"`
	Subtotal        float64             `json:"subtotal"`
	ShippingFee     float64             `json:"shippingFee"`
	TotalAmount     float64             `json:"totalAmount"`
	ShippingAddress address.Address     `json:"shippingAddress"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			OrderItemID: it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.UnitPrice.InexactFloat64(),
			Quantity:    it.Quantity,
			TotalPrice:  it.TotalPrice.InexactFloat64(),
		}
	}

	return orderResponse{
		OrderID:         o.ID,
		OrderStatus:     string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal.InexactFloat64(),
		ShippingFee:     o.ShippingFee.InexactFloat64(),
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AddressID == "" {
		respondError(w, http.StatusBadRequest, "addressId required")
		return
	}
	if req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "paymentMethod required")
		return
	}

	userID := UserIDFromContext(r.Context())
	o, err := h.orders.Checkout(r.Context(), userID, order.CheckoutRequest{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:       o.ID,
		OrderStatus:   string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount.InexactFloat64(),
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	orders, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	o, err := h.orders.GetForUser(r.Context(), chi.URLParam(r, "orderID"), userID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}
